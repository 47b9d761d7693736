package evaluator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceOpStart        TraceEventType = "op_start"
	TraceOpEnd          TraceEventType = "op_end"
	TracePrint          TraceEventType = "print"
	TraceAlloc          TraceEventType = "alloc"
	TraceAssign         TraceEventType = "assign"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Output Output
	Budget Budget
	Trace  func(event TraceEvent)
	RunID  string
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	Value   Value
	Env     *Environment
	Tracker BudgetTracker
}

// RuntimeError represents a fatal error during evaluation.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Span)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Diagnostic converts the error for reporting.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, diagnostics.HintFor(e.Code))
}

// Code returns the diagnostic code of err if it is a *RuntimeError, or "".
func Code(err error) string {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		return rtErr.Code
	}
	return ""
}

type evaluator struct {
	ctx     context.Context
	opts    ExecOptions
	out     Output
	budget  Budget
	tracker BudgetTracker
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]any) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

func (ev *evaluator) fail(code string, span ast.Span, format string, args ...any) error {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

func (ev *evaluator) budgetExceeded(span ast.Span, limit string, msg string) error {
	ev.emit(TraceBudgetExceeded, &span, map[string]any{"limit": limit})
	return ev.fail(diagnostics.EBudget, span, "%s", msg)
}

// Execute evaluates program against a fresh Environment.
func Execute(ctx context.Context, program ast.Node, opts ExecOptions) (*ExecResult, error) {
	return ExecuteIn(ctx, NewEnvironment(), program, opts)
}

// ExecuteIn evaluates program against env, which may carry state from an
// earlier run (the REPL keeps one Environment per session).
func ExecuteIn(ctx context.Context, env *Environment, program ast.Node, opts ExecOptions) (*ExecResult, error) {
	out := opts.Output
	if out == nil {
		out = NewWriterOutput(os.Stdout)
	}
	ev := &evaluator{
		ctx:    ctx,
		opts:   opts,
		out:    out,
		budget: opts.Budget,
	}

	// Set up context timeout for time budget
	if ev.budget.TimeMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(ev.budget.TimeMs)*time.Millisecond)
		defer cancel()
		ev.ctx = ctx
	}

	var span *ast.Span
	if program != nil {
		s := program.NodeSpan()
		span = &s
	}
	ev.emit(TraceRunStart, span, nil)
	val, err := ev.eval(env, program)
	ev.emit(TraceRunEnd, span, map[string]any{"steps": ev.tracker.Steps, "ok": err == nil})

	res := &ExecResult{Env: env, Tracker: ev.tracker}
	if err != nil {
		return res, err
	}
	res.Value = val
	return res, nil
}

// Evaluate runs one instruction against env with default options and
// returns its value. Printed values go to out.
func Evaluate(env *Environment, instruction ast.Node, out Output) (Value, error) {
	res, err := ExecuteIn(context.Background(), env, instruction, ExecOptions{Output: out})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// eval is the dispatch engine: literals evaluate to themselves, sequences
// are looked up by operator tag in the operation table.
func (ev *evaluator) eval(env *Environment, node ast.Node) (Value, error) {
	switch n := node.(type) {
	case nil:
		return nil, &RuntimeError{Code: diagnostics.EUnknownOp, Message: "missing instruction"}
	case ast.Literal:
		return FromLiteral(n), nil
	case *ast.Sequence:
		return ev.evalSequence(env, n)
	}
	return nil, ev.fail(diagnostics.EUnknownOp, node.NodeSpan(), "unsupported node %s", node.Kind())
}

func (ev *evaluator) evalSequence(env *Environment, seq *ast.Sequence) (Value, error) {
	if err := ev.step(seq.Span); err != nil {
		return nil, err
	}

	if len(seq.Items) == 0 {
		return nil, ev.fail(diagnostics.EUnknownOp, seq.Span, "empty instruction")
	}
	name, ok := seq.Op()
	if !ok {
		return nil, ev.fail(diagnostics.EUnknownOp, seq.Span, "operator must be a string, got %s", seq.Items[0].Kind())
	}
	op, ok := operations[name]
	if !ok {
		return nil, ev.fail(diagnostics.EUnknownOp, seq.Span, "unknown operator '%s'", name)
	}

	args := seq.Args()
	if err := op.checkArity(len(args)); err != nil {
		return nil, ev.fail(diagnostics.EArity, seq.Span, "%s", err)
	}

	ev.tracker.Depth++
	if ev.tracker.Depth > ev.tracker.PeakDepth {
		ev.tracker.PeakDepth = ev.tracker.Depth
	}
	defer func() { ev.tracker.Depth-- }()
	if ev.tracker.Depth > ev.budget.maxDepth() {
		return nil, ev.budgetExceeded(seq.Span, "maxDepth",
			fmt.Sprintf("nesting depth exceeds %d", ev.budget.maxDepth()))
	}

	if ev.opts.Trace != nil {
		span := seq.Span
		ev.emit(TraceOpStart, &span, map[string]any{"op": name, "depth": ev.tracker.Depth})
		defer ev.emit(TraceOpEnd, &span, map[string]any{"op": name})
	}

	val, err := op.fn(ev, env, &call{op: name, span: seq.Span, args: args})
	if err != nil {
		var rtErr *RuntimeError
		if errors.As(err, &rtErr) && rtErr.Span == nil {
			span := seq.Span
			rtErr.Span = &span
		}
		return nil, err
	}
	return val, nil
}

// step counts one instruction evaluation against the step and time budgets.
func (ev *evaluator) step(span ast.Span) error {
	ev.tracker.Steps++
	if ev.budget.MaxSteps > 0 && ev.tracker.Steps > ev.budget.MaxSteps {
		return ev.budgetExceeded(span, "maxSteps",
			fmt.Sprintf("step budget exceeded (max %d)", ev.budget.MaxSteps))
	}
	if err := ev.ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ev.budgetExceeded(span, "timeMs",
				fmt.Sprintf("time budget exceeded (%dms)", ev.budget.TimeMs))
		}
		return ev.fail(diagnostics.EBudget, span, "evaluation canceled")
	}
	return nil
}

func (ev *evaluator) checkIterationBudget(span ast.Span) error {
	ev.tracker.Iterations++
	if ev.budget.MaxIterations > 0 && ev.tracker.Iterations > ev.budget.MaxIterations {
		return ev.budgetExceeded(span, "maxIterations",
			fmt.Sprintf("iteration budget exceeded (max %d)", ev.budget.MaxIterations))
	}
	return nil
}
