// Package runtime provides the top-level TLL runtime orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
	"github.com/thomasrohde/tll/pkg/evaluator"
	"github.com/thomasrohde/tll/pkg/formatter"
	"github.com/thomasrohde/tll/pkg/parser"
	"github.com/thomasrohde/tll/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value   evaluator.Value
	Env     *evaluator.Environment
	Tracker evaluator.BudgetTracker
}

// Runtime wires together all TLL components for program execution.
type Runtime struct {
	budget evaluator.Budget
	output evaluator.Output
	runID  string
	trace  func(event evaluator.TraceEvent)
	strict bool
	logger *slog.Logger
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithBudget sets the resource limits for every run.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// WithOutput sets where print writes. Defaults to stdout.
func WithOutput(out evaluator.Output) Option {
	return func(rt *Runtime) {
		rt.output = out
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithStrict makes Run validate the program before evaluating it.
func WithStrict(strict bool) Option {
	return func(rt *Runtime) {
		rt.strict = strict
	}
}

// WithLogger sets the logger for run lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		runID:  "cli",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run decodes and executes a program, choosing the decoder from filename.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	return rt.RunAs(ctx, parser.DetectFormat(filename), source, filename)
}

// RunAs decodes source in the given format and executes it against a fresh
// environment. In strict mode the program is validated first.
func (rt *Runtime) RunAs(ctx context.Context, format parser.Format, source, filename string) (*Result, error) {
	program, err := rt.decode(format, source, filename)
	if err != nil {
		return nil, err
	}
	return rt.exec(ctx, program, filename, rt.output, rt.runID, rt.trace)
}

// RunFile reads and executes the program at path.
func (rt *Runtime) RunFile(ctx context.Context, path string) (*Result, error) {
	program, diags := parser.ParseFile(path)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	if err := rt.validate(program); err != nil {
		return nil, err
	}
	return rt.exec(ctx, program, path, rt.output, rt.runID, rt.trace)
}

func (rt *Runtime) decode(format parser.Format, source, filename string) (ast.Node, error) {
	program, diags := parser.ParseAs(format, source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	if err := rt.validate(program); err != nil {
		return nil, err
	}
	return program, nil
}

func (rt *Runtime) validate(program ast.Node) error {
	if !rt.strict {
		return nil
	}
	if diags := validator.Validate(program); len(diags) > 0 {
		return &DiagnosticError{Diagnostics: diags}
	}
	return nil
}

func (rt *Runtime) exec(ctx context.Context, program ast.Node, filename string, out evaluator.Output, runID string, trace func(evaluator.TraceEvent)) (*Result, error) {
	start := time.Now()
	rt.logger.Debug("run start", "file", filename, "runId", runID)

	res, err := evaluator.Execute(ctx, program, evaluator.ExecOptions{
		Output: out,
		Budget: rt.budget,
		Trace:  trace,
		RunID:  runID,
	})
	result := &Result{Env: res.Env, Tracker: res.Tracker}
	if err != nil {
		rt.logger.Debug("run failed", "file", filename, "code", evaluator.Code(err), "steps", res.Tracker.Steps)
		return result, err
	}
	result.Value = res.Value
	rt.logger.Debug("run finished", "file", filename,
		"steps", res.Tracker.Steps, "peakDepth", res.Tracker.PeakDepth, "elapsed", time.Since(start))
	return result, nil
}

// Check decodes and validates a program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.ParseAs(parser.DetectFormat(filename), source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format decodes a program and renders it canonically in the target format.
func (rt *Runtime) Format(source, filename string, to parser.Format) (string, error) {
	program, diags := parser.ParseAs(parser.DetectFormat(filename), source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program, to)
}

// BatchResult is the outcome of one file in a batch run.
type BatchResult struct {
	File   string
	Output string
	Result *Result
	Err    error
}

// RunBatch executes files concurrently, at most jobs at a time (jobs <= 0
// means one per file). Each file gets its own environment and output buffer,
// so results do not depend on scheduling. Results are returned in input
// order; a failing file does not stop the others.
func (rt *Runtime) RunBatch(ctx context.Context, files []string, jobs int) []BatchResult {
	results := make([]BatchResult, len(files))

	trace := rt.trace
	if trace != nil {
		var mu sync.Mutex
		inner := trace
		trace = func(e evaluator.TraceEvent) {
			mu.Lock()
			defer mu.Unlock()
			inner(e)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = rt.runOne(gctx, file, fmt.Sprintf("%s-%d", rt.runID, i+1), trace)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (rt *Runtime) runOne(ctx context.Context, file, runID string, trace func(evaluator.TraceEvent)) BatchResult {
	br := BatchResult{File: file}
	program, diags := parser.ParseFile(file)
	if len(diags) > 0 {
		br.Err = &DiagnosticError{Diagnostics: diags}
		return br
	}
	if err := rt.validate(program); err != nil {
		br.Err = err
		return br
	}
	out := &evaluator.BufferOutput{}
	br.Result, br.Err = rt.exec(ctx, program, file, out, runID, trace)
	br.Output = out.String()
	return br
}

// DiagnosticError wraps decode or validation diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Process exit statuses.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitDiag    = 2
	ExitRuntime = 4
	ExitBudget  = 6
)

// ExitCode maps an error from Run, RunFile or a BatchResult to an exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var dErr *DiagnosticError
	if errors.As(err, &dErr) {
		for _, d := range dErr.Diagnostics {
			if d.Code == diagnostics.EIO {
				return ExitUsage
			}
		}
		return ExitDiag
	}
	switch evaluator.Code(err) {
	case "":
		return ExitUsage
	case diagnostics.EBudget:
		return ExitBudget
	case diagnostics.EIO:
		return ExitUsage
	}
	return ExitRuntime
}
