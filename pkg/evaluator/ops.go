package evaluator

import (
	"fmt"
	"math"
	"sort"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
)

// call is one operator invocation: the tag, its source span, and the
// unevaluated argument nodes.
type call struct {
	op   string
	span ast.Span
	args []ast.Node
}

type handler func(ev *evaluator, env *Environment, c *call) (Value, error)

type operation struct {
	info OperatorInfo
	fn   handler
}

// OperatorInfo describes an operator for validation and help output.
type OperatorInfo struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means variadic
	Usage   string
	Summary string
	// IdentArgs lists argument positions that must be string literals
	// naming a variable; they are never evaluated as expressions.
	IdentArgs []int
}

func (op *operation) checkArity(n int) error {
	info := op.info
	if n < info.MinArgs || (info.MaxArgs >= 0 && n > info.MaxArgs) {
		return fmt.Errorf("%s expects %s, got %d", info.Name, info.ArityText(), n)
	}
	return nil
}

// ArityText describes the accepted argument count, e.g. "2 arguments".
func (info OperatorInfo) ArityText() string {
	switch {
	case info.MaxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", info.MinArgs)
	case info.MinArgs == info.MaxArgs && info.MinArgs == 1:
		return "1 argument"
	case info.MinArgs == info.MaxArgs:
		return fmt.Sprintf("%d arguments", info.MinArgs)
	}
	return fmt.Sprintf("%d to %d arguments", info.MinArgs, info.MaxArgs)
}

// operations is the closed operator table. It is filled once in init and
// never modified afterwards.
var operations map[string]*operation

func init() {
	table := []operation{
		{OperatorInfo{Name: "add", MinArgs: 2, MaxArgs: 2, Usage: `["add", A, B]`, Summary: "sum of two numbers or concatenation of two strings"}, opAdd},
		{OperatorInfo{Name: "neg", MinArgs: 1, MaxArgs: 1, Usage: `["neg", A]`, Summary: "arithmetic negation"}, opNeg},
		{OperatorInfo{Name: "not", MinArgs: 1, MaxArgs: 1, Usage: `["not", A]`, Summary: "logical negation of A's truthiness"}, opNot},
		{OperatorInfo{Name: "gt", MinArgs: 2, MaxArgs: 2, Usage: `["gt", A, B]`, Summary: "A > B"}, opGt},
		{OperatorInfo{Name: "leq", MinArgs: 2, MaxArgs: 2, Usage: `["leq", A, B]`, Summary: "A <= B"}, opLeq},
		{OperatorInfo{Name: "or", MinArgs: 2, MaxArgs: 2, Usage: `["or", A, B]`, Summary: "A if A is truthy, otherwise B; B is only evaluated when needed"}, opOr},
		{OperatorInfo{Name: "if", MinArgs: 3, MaxArgs: 3, Usage: `["if", C, A, B]`, Summary: "A if C is truthy else B; only one branch is evaluated"}, opIf},
		{OperatorInfo{Name: "comment", MinArgs: 1, MaxArgs: 1, Usage: `["comment", "text"]`, Summary: "ignored; returns null"}, opComment},
		{OperatorInfo{Name: "print", MinArgs: 0, MaxArgs: -1, Usage: `["print", ...values]`, Summary: "print values separated by spaces; returns null"}, opPrint},
		{OperatorInfo{Name: "seq", MinArgs: 1, MaxArgs: -1, Usage: `["seq", A, B, ...]`, Summary: "evaluate in order; returns the last value"}, opSeq},
		{OperatorInfo{Name: "array", MinArgs: 2, MaxArgs: 2, Usage: `["array", "new", N]`, Summary: "allocate N variable slots and reset the slot cursor"}, opArray},
		{OperatorInfo{Name: "set", MinArgs: 2, MaxArgs: 2, Usage: `["set", name, expr]`, Summary: "store expr in the next free slot and bind name to it", IdentArgs: []int{0}}, opSet},
		{OperatorInfo{Name: "get", MinArgs: 1, MaxArgs: 1, Usage: `["get", name]`, Summary: "value of a variable", IdentArgs: []int{0}}, opGet},
		{OperatorInfo{Name: "repeat", MinArgs: 3, MaxArgs: 3, Usage: `["repeat", N, expr, name]`, Summary: "evaluate expr N times, then set name to the iteration index; returns expr's last value", IdentArgs: []int{2}}, opRepeat},
	}
	operations = make(map[string]*operation, len(table))
	for i := range table {
		operations[table[i].info.Name] = &table[i]
	}
}

// Operators returns the operator table sorted by name.
func Operators() []OperatorInfo {
	out := make([]OperatorInfo, 0, len(operations))
	for _, op := range operations {
		out = append(out, op.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupOperator returns the description of a single operator.
func LookupOperator(name string) (OperatorInfo, bool) {
	op, ok := operations[name]
	if !ok {
		return OperatorInfo{}, false
	}
	return op.info, true
}

// --- argument helpers ---

func (ev *evaluator) evalArg(env *Environment, c *call, i int) (Value, error) {
	return ev.eval(env, c.args[i])
}

// identArg returns the variable name at position i, which must be a string literal.
func (ev *evaluator) identArg(c *call, i int) (string, error) {
	s, ok := c.args[i].(*ast.StrLiteral)
	if !ok {
		return "", ev.fail(diagnostics.EType, c.args[i].NodeSpan(),
			"%s: variable name must be a string literal, got %s", c.op, c.args[i].Kind())
	}
	return s.Value, nil
}

// countArg converts v to a non-negative integer count.
func (ev *evaluator) countArg(c *call, i int, v Value, what string) (int, error) {
	n, ok := v.(Number)
	if !ok || n.Value != math.Trunc(n.Value) || n.Value < 0 || n.Value > math.MaxInt32 {
		return 0, ev.fail(diagnostics.EType, c.args[i].NodeSpan(),
			"%s: %s must be a non-negative integer, got %s", c.op, what, describe(v))
	}
	return int(n.Value), nil
}

func describe(v Value) string {
	switch v.(type) {
	case Number, Bool:
		return fmt.Sprintf("%s %s", TypeName(v), Render(v))
	case String:
		return fmt.Sprintf("string %q", Render(v))
	}
	return TypeName(v)
}

func (ev *evaluator) evalPair(env *Environment, c *call) (Value, Value, error) {
	left, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, nil, err
	}
	right, err := ev.evalArg(env, c, 1)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (ev *evaluator) mismatch(c *call, left, right Value) error {
	return ev.fail(diagnostics.EType, c.span, "%s: unsupported operand types %s and %s",
		c.op, TypeName(left), TypeName(right))
}

// --- arithmetic and comparison ---

func opAdd(ev *evaluator, env *Environment, c *call) (Value, error) {
	left, right, err := ev.evalPair(env, c)
	if err != nil {
		return nil, err
	}
	switch l := left.(type) {
	case Number:
		if r, ok := right.(Number); ok {
			return NewNumber(l.Value + r.Value), nil
		}
	case String:
		if r, ok := right.(String); ok {
			return NewString(l.Value + r.Value), nil
		}
	}
	return nil, ev.mismatch(c, left, right)
}

func opNeg(ev *evaluator, env *Environment, c *call) (Value, error) {
	v, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, err
	}
	n, ok := v.(Number)
	if !ok {
		return nil, ev.fail(diagnostics.EType, c.span, "neg: cannot negate %s", TypeName(v))
	}
	return NewNumber(-n.Value), nil
}

func opNot(ev *evaluator, env *Environment, c *call) (Value, error) {
	v, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, err
	}
	return NewBool(!Truthiness(v)), nil
}

// compare returns -1, 0 or 1 for two numbers or two strings.
func (ev *evaluator) compare(env *Environment, c *call) (int, error) {
	left, right, err := ev.evalPair(env, c)
	if err != nil {
		return 0, err
	}
	switch l := left.(type) {
	case Number:
		if r, ok := right.(Number); ok {
			switch {
			case l.Value < r.Value:
				return -1, nil
			case l.Value > r.Value:
				return 1, nil
			}
			return 0, nil
		}
	case String:
		if r, ok := right.(String); ok {
			switch {
			case l.Value < r.Value:
				return -1, nil
			case l.Value > r.Value:
				return 1, nil
			}
			return 0, nil
		}
	}
	return 0, ev.mismatch(c, left, right)
}

func opGt(ev *evaluator, env *Environment, c *call) (Value, error) {
	cmp, err := ev.compare(env, c)
	if err != nil {
		return nil, err
	}
	return NewBool(cmp > 0), nil
}

func opLeq(ev *evaluator, env *Environment, c *call) (Value, error) {
	cmp, err := ev.compare(env, c)
	if err != nil {
		return nil, err
	}
	return NewBool(cmp <= 0), nil
}

// --- control flow ---

func opOr(ev *evaluator, env *Environment, c *call) (Value, error) {
	left, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, err
	}
	if Truthiness(left) {
		return left, nil
	}
	return ev.evalArg(env, c, 1)
}

func opIf(ev *evaluator, env *Environment, c *call) (Value, error) {
	cond, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, err
	}
	if Truthiness(cond) {
		return ev.evalArg(env, c, 1)
	}
	return ev.evalArg(env, c, 2)
}

func opComment(ev *evaluator, env *Environment, c *call) (Value, error) {
	return NewNull(), nil
}

func opPrint(ev *evaluator, env *Environment, c *call) (Value, error) {
	values := make([]Value, len(c.args))
	for i := range c.args {
		v, err := ev.evalArg(env, c, i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	if err := ev.out.Print(values); err != nil {
		return nil, ev.fail(diagnostics.EIO, c.span, "print: %s", err)
	}
	if ev.opts.Trace != nil {
		span := c.span
		ev.emit(TracePrint, &span, map[string]any{"text": RenderAll(values)})
	}
	return NewNull(), nil
}

func opSeq(ev *evaluator, env *Environment, c *call) (Value, error) {
	var result Value
	for i := range c.args {
		v, err := ev.evalArg(env, c, i)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// --- storage ---

func opArray(ev *evaluator, env *Environment, c *call) (Value, error) {
	name, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, err
	}
	size, err := ev.evalArg(env, c, 1)
	if err != nil {
		return nil, err
	}
	if s, ok := name.(String); !ok || s.Value != "new" {
		return nil, ev.fail(diagnostics.EArrayOp, c.args[0].NodeSpan(),
			"array operation must be \"new\", got %s", describe(name))
	}
	capacity, err := ev.countArg(c, 1, size, "capacity")
	if err != nil {
		return nil, err
	}
	if limit := ev.budget.maxSlots(); capacity > limit {
		return nil, ev.budgetExceeded(c.span, "maxSlots",
			fmt.Sprintf("array capacity %d exceeds slot budget (max %d)", capacity, limit))
	}
	env.Allocate(capacity)
	if ev.opts.Trace != nil {
		span := c.span
		ev.emit(TraceAlloc, &span, map[string]any{"capacity": capacity})
	}
	return NewNull(), nil
}

// assign binds name to a fresh slot holding val. Shared by set and repeat.
func (ev *evaluator) assign(env *Environment, span ast.Span, name string, val Value) error {
	idx, err := env.Assign(name, val)
	if err != nil {
		return err
	}
	if ev.opts.Trace != nil {
		ev.emit(TraceAssign, &span, map[string]any{"name": name, "slot": idx})
	}
	return nil
}

func opSet(ev *evaluator, env *Environment, c *call) (Value, error) {
	name, err := ev.identArg(c, 0)
	if err != nil {
		return nil, err
	}
	val, err := ev.evalArg(env, c, 1)
	if err != nil {
		return nil, err
	}
	if err := ev.assign(env, c.span, name, val); err != nil {
		return nil, err
	}
	return val, nil
}

func opGet(ev *evaluator, env *Environment, c *call) (Value, error) {
	name, err := ev.identArg(c, 0)
	if err != nil {
		return nil, err
	}
	return env.Lookup(name)
}

// opRepeat evaluates the body and then assigns the iteration index to the
// counter, in that order, on every iteration. The body of iteration i sees
// the counter value written by iteration i-1 (or whatever the name held
// before the loop on the first iteration).
func opRepeat(ev *evaluator, env *Environment, c *call) (Value, error) {
	countVal, err := ev.evalArg(env, c, 0)
	if err != nil {
		return nil, err
	}
	count, err := ev.countArg(c, 0, countVal, "count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ev.fail(diagnostics.EEmptyRepeat, c.span, "repeat: count is 0, so there is no result")
	}

	var result Value
	for i := 0; i < count; i++ {
		if err := ev.checkIterationBudget(c.span); err != nil {
			return nil, err
		}
		v, err := ev.evalArg(env, c, 1)
		if err != nil {
			return nil, err
		}
		result = v

		name, err := ev.identArg(c, 2)
		if err != nil {
			return nil, err
		}
		if err := ev.assign(env, c.span, name, NewNumber(float64(i))); err != nil {
			return nil, err
		}
	}
	return result, nil
}
