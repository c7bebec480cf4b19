package runner

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/http"
	"github.com/abdul-hamid-achik/dothttp/packages/output"
	"github.com/abdul-hamid-achik/dothttp/packages/script"
)

// Executor runs one request script end to end against a shared engine
// and client, emitting output events as it goes.
type Executor struct {
	engine *script.Engine
	client http.Client
	output output.Output
}

func NewExecutor(engine *script.Engine, client http.Client, out output.Output) *Executor {
	return &Executor{engine: engine, client: client, output: out}
}

// Result is one executed request: what was sent after substitution,
// what came back, and the response handler's test report.
type Result struct {
	Name     string
	Request  *http.Request
	Response *http.Response
	Report   script.Report
}

// Execute runs the script's phases in order: declare its variables,
// run the pre-request handler, substitute placeholders, send the
// request and run the response handler. The request event fires after
// substitution and before the send, so the request is printed even
// when the transport fails. name identifies the request in errors and
// output.
func (x *Executor) Execute(ctx context.Context, rs *parser.RequestScript, name string) (*Result, error) {
	if err := x.declareVariables(rs); err != nil {
		return nil, fmt.Errorf("declaring variables for request %s: %w", name, err)
	}
	if rs.PreHandler != nil {
		if err := x.engine.PreHandle(rs.PreHandler, rs.Request); err != nil {
			return nil, fmt.Errorf("error pre handling request %s: %w", name, err)
		}
	}

	request, err := x.resolveRequest(rs.Request)
	if err != nil {
		return nil, fmt.Errorf("failed processing request %s: %w", name, err)
	}

	if err := x.output.Request(request, name); err != nil {
		return nil, fmt.Errorf("error outputting request %s: %w", name, err)
	}

	response, err := x.client.Do(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("error executing request %s: %w", name, err)
	}

	report := script.Report{}
	if rs.Handler != nil {
		if err := x.engine.Handle(rs.Handler, response); err != nil {
			return nil, fmt.Errorf("error handling response for request %s: %w", name, err)
		}
		report = x.engine.Report()
	}

	if err := x.output.Response(response, report); err != nil {
		return nil, fmt.Errorf("error outputting response for request %s: %w", name, err)
	}

	return &Result{Name: name, Request: request, Response: response, Report: report}, nil
}

// declareVariables processes each declaration value and records it in
// the request store, in source order, so later declarations may refer
// to earlier ones.
func (x *Executor) declareVariables(rs *parser.RequestScript) error {
	for _, variable := range rs.Variables {
		value, err := x.engine.Process(variable.Value)
		if err != nil {
			return err
		}
		x.engine.DeclareVariable(variable.Name, value)
	}
	return nil
}

// resolveRequest substitutes every placeholder of the request. The
// target additionally has all whitespace removed, so a multi-line
// request line collapses into a single URL.
func (x *Executor) resolveRequest(request *parser.Request) (*http.Request, error) {
	target, err := x.engine.Process(request.Target)
	if err != nil {
		return nil, err
	}
	target = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, target)

	headers := make([]http.Header, 0, len(request.Headers))
	for _, header := range request.Headers {
		value, err := x.engine.Process(header.Value)
		if err != nil {
			return nil, err
		}
		headers = append(headers, http.Header{Name: header.Name, Value: value})
	}

	body := ""
	if request.Body != nil {
		if body, err = x.engine.Process(request.Body); err != nil {
			return nil, err
		}
	}

	return &http.Request{
		Method:  string(request.Method),
		Target:  target,
		Headers: headers,
		Body:    body,
	}, nil
}
