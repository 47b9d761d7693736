// Package evaluator implements the TLL instruction evaluator.
package evaluator

import (
	"strings"

	"github.com/thomasrohde/tll/pkg/ast"
)

// Value is the interface for all TLL runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	tllvalue() // sealed marker
}

// Null represents a null value.
type Null struct{}

func (Null) tllvalue() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) tllvalue() {}

// Number represents a numeric value (int or float).
type Number struct {
	Value float64
}

func (Number) tllvalue() {}

// String represents a string value.
type String struct {
	Value string
}

func (String) tllvalue() {}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// FromLiteral converts a decoded scalar into its runtime value.
func FromLiteral(lit ast.Literal) Value {
	switch l := lit.(type) {
	case *ast.NumLiteral:
		return NewNumber(l.Value)
	case *ast.StrLiteral:
		return NewString(l.Value)
	case *ast.BoolLiteral:
		return NewBool(l.Value)
	}
	return NewNull()
}

// Truthiness returns the boolean interpretation of a value.
// null, false, 0, and "" are falsy; everything else is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Null:
		return false
	case Bool:
		return val.Value
	case Number:
		return val.Value != 0
	case String:
		return val.Value != ""
	default:
		return v != nil
	}
}

// TypeName returns the name used for a value in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Null, nil:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	}
	return "unknown"
}

// Render formats a value the way print emits it: strings verbatim,
// whole numbers without a decimal point.
func Render(v Value) string {
	switch val := v.(type) {
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(val.Value)
	case String:
		return val.Value
	}
	return "null"
}

// RenderAll joins rendered values with a single space.
func RenderAll(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Render(v)
	}
	return strings.Join(parts, " ")
}
