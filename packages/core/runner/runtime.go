package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/dothttp/packages/core/env"
	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/core/source"
	"github.com/abdul-hamid-achik/dothttp/packages/http"
	"github.com/abdul-hamid-achik/dothttp/packages/output"
	"github.com/abdul-hamid-achik/dothttp/packages/script"
)

// Runtime drives a whole run: every request of every source item, in
// order. The engine is reset between requests so script state never
// leaks, and the global store snapshot is saved once at the end.
type Runtime struct {
	engine   *script.Engine
	client   http.Client
	provider env.Provider
	output   output.Output
	limiter  *rate.Limiter
	observer func(Record)
}

// Record describes one executed request for observers such as history
// stores and latency recorders.
type Record struct {
	File       string
	Request    string
	Method     string
	Target     string
	StatusCode int
	Duration   time.Duration
	Failed     bool
}

type RuntimeOption func(*Runtime)

func WithClient(client http.Client) RuntimeOption {
	return func(r *Runtime) {
		r.client = client
	}
}

// WithRequestsPerSecond throttles request starts to at most rps per
// second.
func WithRequestsPerSecond(rps int) RuntimeOption {
	return func(r *Runtime) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithObserver registers a callback invoked after every executed
// request.
func WithObserver(observer func(Record)) RuntimeOption {
	return func(r *Runtime) {
		r.observer = observer
	}
}

func NewRuntime(provider env.Provider, out output.Output, opts ...RuntimeOption) (*Runtime, error) {
	snapshot, err := provider.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	environment, err := provider.Environment()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	engine, err := script.NewEngine(snapshot, environment)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		engine:   engine,
		client:   http.NewClient(),
		provider: provider,
		output:   out,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type job struct {
	file string
	name string
	rs   *parser.RequestScript
}

// Run executes items in order. All items parse before any request is
// sent, so a parse error aborts the whole run up front. Failed tests
// accumulate into a single TestsFailedError returned after the
// snapshot is saved.
func (r *Runtime) Run(ctx context.Context, items []source.Item) error {
	jobs, err := r.collect(items)
	if err != nil {
		return err
	}

	var failures []Failure
	var reports []output.RunReport

	executor := NewExecutor(r.engine, r.client, r.output)
	for _, j := range jobs {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		displayName := j.file + " / " + j.name
		result, err := executor.Execute(ctx, j.rs, displayName)
		if err != nil {
			return err
		}

		for _, failed := range result.Report.Failed() {
			failures = append(failures, Failure{Request: displayName, Test: failed.Name})
		}
		reports = append(reports, output.RunReport{File: j.file, Request: j.name, Report: result.Report})

		if r.observer != nil {
			r.observer(Record{
				File:       j.file,
				Request:    j.name,
				Method:     result.Request.Method,
				Target:     result.Request.Target,
				StatusCode: result.Response.StatusCode,
				Duration:   result.Response.Duration,
				Failed:     len(result.Report.Failed()) > 0,
			})
		}

		if err := r.engine.Reset(); err != nil {
			return err
		}
	}

	if err := r.provider.Save(r.engine.Snapshot()); err != nil {
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	if err := r.output.Tests(reports); err != nil {
		return err
	}

	if len(failures) > 0 {
		return &TestsFailedError{Failures: failures}
	}
	return nil
}

// collect parses every item and flattens it into executable jobs.
// Request names come from the section separator, falling back to the
// request's 1-based position in its file.
func (r *Runtime) collect(items []source.Item) ([]job, error) {
	var jobs []job
	for _, item := range items {
		file, err := parser.Parse(item.Text, item.Path)
		if err != nil {
			return nil, err
		}
		scripts, err := file.RequestScripts(item.Index)
		if err != nil {
			return nil, err
		}

		for i, rs := range scripts {
			position := i + 1
			if item.Index > 0 {
				position = item.Index
			}
			name := rs.Name
			if name == "" {
				name = "#" + strconv.Itoa(position)
			}
			jobs = append(jobs, job{file: item.Path, name: name, rs: rs})
		}
	}
	return jobs, nil
}

// Failure is one failed test and the request it ran under.
type Failure struct {
	Request string
	Test    string
}

// TestsFailedError aggregates every failed test of a run.
type TestsFailedError struct {
	Failures []Failure
}

func (e *TestsFailedError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Test)
	}
	return "failed tests: " + strings.Join(names, ", ")
}
