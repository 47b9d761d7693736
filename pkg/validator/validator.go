// Package validator implements static checks of TLL instruction trees.
// It reports every problem it can find without evaluating anything.
package validator

import (
	"fmt"
	"math"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
	"github.com/thomasrohde/tll/pkg/evaluator"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate walks program and returns diagnostics for unknown operators, arity
// mismatches, non-literal variable names, and literal arguments that are
// certain to fail at runtime. The arguments of comment are not inspected.
func Validate(program ast.Node) []diagnostics.Diagnostic {
	v := &validator{}
	if program == nil {
		v.addDiag(diagnostics.EUnknownOp, "missing instruction", nil)
		return v.diags
	}
	v.validateNode(program)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span *ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, diagnostics.HintFor(code)))
}

func (v *validator) validateNode(node ast.Node) {
	seq, ok := node.(*ast.Sequence)
	if !ok {
		return
	}
	span := seq.Span

	if len(seq.Items) == 0 {
		v.addDiag(diagnostics.EUnknownOp, "empty instruction", &span)
		return
	}
	name, ok := seq.Op()
	if !ok {
		v.addDiag(diagnostics.EUnknownOp, fmt.Sprintf("operator must be a string, got %s", seq.Items[0].Kind()), &span)
		v.validateChildren(seq.Items)
		return
	}
	info, ok := evaluator.LookupOperator(name)
	if !ok {
		v.addDiag(diagnostics.EUnknownOp, fmt.Sprintf("unknown operator '%s'", name), &span)
		v.validateChildren(seq.Args())
		return
	}

	args := seq.Args()
	if len(args) < info.MinArgs || (info.MaxArgs >= 0 && len(args) > info.MaxArgs) {
		v.addDiag(diagnostics.EArity, fmt.Sprintf("%s expects %s, got %d", name, info.ArityText(), len(args)), &span)
		if name != "comment" {
			v.validateChildren(args)
		}
		return
	}

	switch name {
	case "comment":
		return
	case "array":
		v.checkArrayOp(args[0])
		v.checkCount(name, "capacity", args[1], true)
	case "repeat":
		v.checkCount(name, "count", args[0], false)
	}

	ident := make(map[int]bool, len(info.IdentArgs))
	for _, i := range info.IdentArgs {
		ident[i] = true
		if _, ok := args[i].(*ast.StrLiteral); !ok {
			argSpan := args[i].NodeSpan()
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("%s: variable name must be a string literal, got %s", name, args[i].Kind()), &argSpan)
		}
	}
	for i, arg := range args {
		if !ident[i] {
			v.validateNode(arg)
		}
	}
}

func (v *validator) validateChildren(nodes []ast.Node) {
	for _, n := range nodes {
		v.validateNode(n)
	}
}

func (v *validator) checkArrayOp(arg ast.Node) {
	span := arg.NodeSpan()
	switch lit := arg.(type) {
	case *ast.StrLiteral:
		if lit.Value != "new" {
			v.addDiag(diagnostics.EArrayOp, fmt.Sprintf("array operation must be \"new\", got %q", lit.Value), &span)
		}
	case *ast.NumLiteral, *ast.BoolLiteral, *ast.NullLiteral:
		v.addDiag(diagnostics.EArrayOp, fmt.Sprintf("array operation must be \"new\", got %s", arg.Kind()), &span)
	}
}

// checkCount flags literal counts that can never be valid. Computed counts
// are left to the evaluator.
func (v *validator) checkCount(op, what string, arg ast.Node, allowZero bool) {
	span := arg.NodeSpan()
	switch lit := arg.(type) {
	case *ast.NumLiteral:
		n := lit.Value
		if n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
			v.addDiag(diagnostics.EType, fmt.Sprintf("%s: %s must be a non-negative integer, got %s", op, what, lit.Raw), &span)
			return
		}
		if n == 0 && !allowZero {
			v.addDiag(diagnostics.EEmptyRepeat, fmt.Sprintf("%s: %s is 0, so there is no result", op, what), &span)
		}
	case *ast.StrLiteral, *ast.BoolLiteral, *ast.NullLiteral:
		v.addDiag(diagnostics.EType, fmt.Sprintf("%s: %s must be a non-negative integer, got %s", op, what, arg.Kind()), &span)
	}
}
