package script

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/http"
)

// Engine wraps a single goja runtime plus the three variable stores:
// request-scoped declarations, the persisted global store and the
// read-only environment selection. The runtime is rebuilt from a
// snapshot of the global store on Reset, so script state never leaks
// between requests.
type Engine struct {
	vm      *goja.Runtime
	global  map[string]any
	env     map[string]any
	request map[string]any
	tests   map[string]TestResult

	logWriter io.Writer
	opts      []Option
}

type Option func(*Engine)

// WithLogWriter redirects client.log output, which goes to stdout by
// default.
func WithLogWriter(w io.Writer) Option {
	return func(e *Engine) {
		e.logWriter = w
	}
}

// NewEngine seeds the global store from global (usually a merged
// snapshot) and keeps environment as the read-only fallback store.
func NewEngine(global, environment map[string]any, opts ...Option) (*Engine, error) {
	for _, stores := range []map[string]any{global, environment} {
		if _, ok := stores["client"]; ok {
			return nil, fmt.Errorf("cannot register a variable with the name `client`")
		}
	}

	e := &Engine{
		vm:        goja.New(),
		global:    cloneStore(global),
		env:       cloneStore(environment),
		request:   make(map[string]any),
		tests:     make(map[string]TestResult),
		logWriter: os.Stdout,
		opts:      opts,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.bind(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) bind() error {
	if err := e.vm.Set("client", e.clientObject()); err != nil {
		return fmt.Errorf("binding client object: %w", err)
	}
	if err := e.vm.Set("request", e.requestObject(nil)); err != nil {
		return fmt.Errorf("binding request object: %w", err)
	}
	return e.bindGenerators()
}

// Execute evaluates src and converts the result through the runtime's
// own String() so function objects with a custom toString stringify
// the way a script would see them.
func (e *Engine) Execute(src string) (string, error) {
	value, err := e.vm.RunString(src)
	if err != nil {
		return "", fmt.Errorf("error executing script: %w", err)
	}
	return e.stringify(value)
}

func (e *Engine) stringify(value goja.Value) (string, error) {
	toString, ok := goja.AssertFunction(e.vm.Get("String"))
	if !ok {
		return value.String(), nil
	}
	out, err := toString(goja.Undefined(), value)
	if err != nil {
		return "", fmt.Errorf("error converting script result: %w", err)
	}
	return out.String(), nil
}

// Process substitutes every placeholder of v left to right. Each inline
// script replaces the first remaining occurrence of its placeholder
// text, so identical placeholders substitute independently resolved
// values in order.
func (e *Engine) Process(v *parser.Value) (string, error) {
	if !v.HasInline() {
		return v.Text, nil
	}

	interpolated := v.Text
	for _, inline := range v.Inline {
		result, err := e.Resolve(inline.Script)
		if err != nil {
			return "", fmt.Errorf("failed processing `%s`: %w", inline.Placeholder, err)
		}
		interpolated = strings.Replace(interpolated, inline.Placeholder, result, 1)
	}
	return interpolated, nil
}

// Resolve looks a placeholder up in the request, global and environment
// stores in that order. A $-prefixed fragment is evaluated as script
// instead. Unknown names resolve to their literal {{name}} form.
func (e *Engine) Resolve(name string) (string, error) {
	if strings.HasPrefix(name, "$") {
		return e.Execute(name)
	}

	for _, store := range []map[string]any{e.request, e.global, e.env} {
		if value, ok := store[name]; ok && value != nil {
			return e.stringify(e.vm.ToValue(value))
		}
	}

	return "{{" + name + "}}", nil
}

// DeclareVariable records an @name declaration in the request store.
func (e *Engine) DeclareVariable(name, value string) {
	e.request[name] = value
}

// PreHandle binds the request object for the given request and runs the
// pre-request handler.
func (e *Engine) PreHandle(handler *parser.Handler, request *parser.Request) error {
	if err := e.vm.Set("request", e.requestObject(request)); err != nil {
		return fmt.Errorf("binding request object: %w", err)
	}
	_, err := e.Execute(handler.Script)
	return err
}

// Handle binds the response object and runs the response handler.
func (e *Engine) Handle(handler *parser.Handler, response *http.Response) error {
	if err := e.SetResponse(response); err != nil {
		return err
	}
	_, err := e.Execute(handler.Script)
	return err
}

// SetResponse exposes the response to scripts. The body is promoted to
// a parsed object when it is a JSON object, and stays a plain string
// otherwise.
func (e *Engine) SetResponse(response *http.Response) error {
	headers := make(map[string]any, len(response.Headers))
	for name, value := range response.Headers {
		headers[name] = value
	}

	obj := map[string]any{
		"status":  response.StatusCode,
		"headers": headers,
	}

	switch {
	case len(response.Body) == 0:
		obj["body"] = nil
	default:
		if parsed, ok := response.JSONObject(); ok {
			obj["body"] = parsed
		} else {
			obj["body"] = string(response.Body)
		}
	}

	if err := e.vm.Set("response", obj); err != nil {
		return fmt.Errorf("binding response object: %w", err)
	}
	return nil
}

// Report returns the tests registered since the last Reset, sorted by
// name.
func (e *Engine) Report() Report {
	names := make([]string, 0, len(e.tests))
	for name := range e.tests {
		names = append(names, name)
	}
	sort.Strings(names)

	report := make(Report, 0, len(names))
	for _, name := range names {
		report = append(report, e.tests[name])
	}
	return report
}

// Snapshot returns a copy of the persisted global store.
func (e *Engine) Snapshot() map[string]any {
	return cloneStore(e.global)
}

// Reset rebuilds the runtime from a snapshot of the global store. The
// request store, the tests and everything scripts defined on the global
// object are discarded.
func (e *Engine) Reset() error {
	fresh, err := NewEngine(e.Snapshot(), e.env, e.opts...)
	if err != nil {
		return fmt.Errorf("resetting script engine: %w", err)
	}
	*e = *fresh
	return nil
}

func cloneStore(m map[string]any) map[string]any {
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// exceptionMessage extracts the thrown value from a script error, so
// `throw "boom"` reports as `boom` rather than a wrapped Go error.
func exceptionMessage(err error) string {
	if ex, ok := err.(*goja.Exception); ok {
		return ex.Value().String()
	}
	return err.Error()
}
