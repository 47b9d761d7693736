package evaluator_test

import (
	"math"
	"testing"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/evaluator"
)

func TestNewValues(t *testing.T) {
	values := []evaluator.Value{
		evaluator.NewNull(),
		evaluator.NewBool(true),
		evaluator.NewBool(false),
		evaluator.NewNumber(42),
		evaluator.NewNumber(3.14),
		evaluator.NewString("hello"),
	}

	for i, v := range values {
		if v == nil {
			t.Errorf("value %d: got nil", i)
		}
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{evaluator.NewNull(), false},
		{evaluator.NewBool(false), false},
		{evaluator.NewBool(true), true},
		{evaluator.NewNumber(0), false},
		{evaluator.NewNumber(1), true},
		{evaluator.NewNumber(-1), true},
		{evaluator.NewNumber(0.5), true},
		{evaluator.NewString(""), false},
		{evaluator.NewString("hello"), true},
		{evaluator.NewString("0"), true},
	}

	for i, tt := range tests {
		got := evaluator.Truthiness(tt.value)
		if got != tt.expected {
			t.Errorf("test %d: Truthiness(%v) = %v, want %v", i, tt.value, got, tt.expected)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.NewNull(), "null"},
		{evaluator.NewBool(true), "true"},
		{evaluator.NewBool(false), "false"},
		{evaluator.NewNumber(5), "5"},
		{evaluator.NewNumber(-12), "-12"},
		{evaluator.NewNumber(2.5), "2.5"},
		{evaluator.NewNumber(1e20), "100000000000000000000"},
		{evaluator.NewString("two words"), "two words"},
		{evaluator.NewString(""), ""},
	}

	for _, tt := range tests {
		if got := evaluator.Render(tt.value); got != tt.want {
			t.Errorf("Render(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}

	got := evaluator.RenderAll([]evaluator.Value{evaluator.NewString("x"), evaluator.NewNumber(1), evaluator.NewNull()})
	if got != "x 1 null" {
		t.Errorf("RenderAll = %q, want %q", got, "x 1 null")
	}
}

func TestTypeName(t *testing.T) {
	names := map[string]evaluator.Value{
		"null":    evaluator.NewNull(),
		"boolean": evaluator.NewBool(true),
		"number":  evaluator.NewNumber(1),
		"string":  evaluator.NewString("s"),
	}
	for want, v := range names {
		if got := evaluator.TypeName(v); got != want {
			t.Errorf("TypeName(%#v) = %q, want %q", v, got, want)
		}
	}
}

func TestFromLiteral(t *testing.T) {
	if v := evaluator.FromLiteral(ast.Num(7)); v != evaluator.NewNumber(7) {
		t.Errorf("num literal: got %#v", v)
	}
	if v := evaluator.FromLiteral(ast.Str("s")); v != evaluator.NewString("s") {
		t.Errorf("string literal: got %#v", v)
	}
	if v := evaluator.FromLiteral(ast.Bool(true)); v != evaluator.NewBool(true) {
		t.Errorf("bool literal: got %#v", v)
	}
	if v := evaluator.FromLiteral(ast.Null()); v != evaluator.NewNull() {
		t.Errorf("null literal: got %#v", v)
	}
}

func TestValueToJSON(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.NewNull(), "null"},
		{evaluator.NewBool(false), "false"},
		{evaluator.NewNumber(3), "3"},
		{evaluator.NewNumber(-0.25), "-0.25"},
		{evaluator.NewString("a\"b"), `"a\"b"`},
		{evaluator.NewNumber(math.Inf(1)), `"+Inf"`},
	}
	for _, tt := range tests {
		if got := evaluator.ValueToJSONString(tt.value); got != tt.want {
			t.Errorf("ValueToJSONString(%#v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

