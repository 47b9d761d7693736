package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
	"github.com/thomasrohde/tll/pkg/parser"
	"github.com/thomasrohde/tll/pkg/validator"
)

// mustParseAndValidate parses source and validates, returning diagnostics
// from validation only. It fatals on parse errors so test cases focus on
// validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	prog, parseErrs := parser.Parse(source, "test.json")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(prog)
}

func diagSummary(diags []diagnostics.Diagnostic) string {
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Code+": "+d.Message)
	}
	return strings.Join(msgs, "\n  ")
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), diagSummary(diags))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), diagSummary(diags))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// --- Valid programs ---

func TestValidPrograms(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"literal", `42`},
		{"null", `null`},
		{"add", `["add", 1, 2]`},
		{"nested", `["if", ["gt", 2, 1], ["neg", 3], ["not", false]]`},
		{"print no args", `["print"]`},
		{"storage", `["seq", ["array", "new", 2], ["set", "x", 1], ["get", "x"]]`},
		{"repeat", `["seq", ["array", "new", 5], ["set", "i", 0], ["repeat", 3, ["get", "i"], "i"]]`},
		{"computed counts", `["seq", ["array", "new", ["add", 1, 1]], ["repeat", ["add", 1, 0], 1, "i"]]`},
		{"computed array op", `["array", ["add", "ne", "w"], 1]`},
		{"zero capacity", `["array", "new", 0]`},
		{"comment", `["comment", "text"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNoDiags(t, mustParseAndValidate(t, tt.source))
		})
	}
}

// Validation never evaluates, so runtime-only failures are not reported.
func TestRuntimeOnlyFailuresPass(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `["get", "never_set"]`))
	assertNoDiags(t, mustParseAndValidate(t, `["set", "x", 1]`))
	assertNoDiags(t, mustParseAndValidate(t, `["add", 1, "a"]`))
}

// --- Unknown operators ---

func TestUnknownOperator(t *testing.T) {
	diags := mustParseAndValidate(t, `["mul", 2, 3]`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUnknownOp)
	if !strings.Contains(diags[0].Message, "mul") {
		t.Errorf("message should name the operator: %s", diags[0].Message)
	}
}

func TestUnknownOperatorArgsStillChecked(t *testing.T) {
	diags := mustParseAndValidate(t, `["mul", ["add", 1], ["frob"]]`)
	assertDiagCount(t, diags, 3)
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestEmptyAndNonStringTag(t *testing.T) {
	assertHasCode(t, mustParseAndValidate(t, `[]`), diagnostics.EUnknownOp)
	assertHasCode(t, mustParseAndValidate(t, `[1, 2]`), diagnostics.EUnknownOp)

	diags := mustParseAndValidate(t, `[["add", 1], 2]`)
	assertDiagCount(t, diags, 2)
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestNilProgram(t *testing.T) {
	diags := validator.Validate(nil)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUnknownOp)
}

// --- Arity ---

func TestArity(t *testing.T) {
	for _, src := range []string{
		`["add", 1]`,
		`["neg", 1, 2]`,
		`["if", 1, 2]`,
		`["seq"]`,
		`["comment"]`,
		`["comment", 1, 2]`,
		`["repeat", 1, 2]`,
		`["get"]`,
	} {
		t.Run(src, func(t *testing.T) {
			diags := mustParseAndValidate(t, src)
			assertDiagCount(t, diags, 1)
			assertHasCode(t, diags, diagnostics.EArity)
		})
	}
}

func TestArityMessage(t *testing.T) {
	diags := mustParseAndValidate(t, `["add", 1]`)
	assertDiagCount(t, diags, 1)
	if diags[0].Message != "add expects 2 arguments, got 1" {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// --- Identifiers ---

func TestVariableNamesMustBeLiterals(t *testing.T) {
	diags := mustParseAndValidate(t, `["set", ["add", "a", "b"], 1]`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EType)

	diags = mustParseAndValidate(t, `["get", 3]`)
	assertHasCode(t, diags, diagnostics.EType)

	diags = mustParseAndValidate(t, `["repeat", 2, 1, null]`)
	assertHasCode(t, diags, diagnostics.EType)
}

// Names are not evaluated, so an unknown operator inside a name slot is only
// reported as a bad name.
func TestIdentArgNotDescended(t *testing.T) {
	diags := mustParseAndValidate(t, `["get", ["frob"]]`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EType)
}

// --- Literal arguments ---

func TestArrayOperation(t *testing.T) {
	diags := mustParseAndValidate(t, `["array", "old", 3]`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArrayOp)

	assertHasCode(t, mustParseAndValidate(t, `["array", 7, 3]`), diagnostics.EArrayOp)
}

func TestLiteralCounts(t *testing.T) {
	assertHasCode(t, mustParseAndValidate(t, `["array", "new", -1]`), diagnostics.EType)
	assertHasCode(t, mustParseAndValidate(t, `["array", "new", 1.5]`), diagnostics.EType)
	assertHasCode(t, mustParseAndValidate(t, `["array", "new", "3"]`), diagnostics.EType)
	assertHasCode(t, mustParseAndValidate(t, `["repeat", "x", 1, "i"]`), diagnostics.EType)
	assertHasCode(t, mustParseAndValidate(t, `["repeat", 0, 1, "i"]`), diagnostics.EEmptyRepeat)
}

// --- comment ---

func TestCommentArgumentIgnored(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `["comment", ["frob", 1]]`))
	assertNoDiags(t, mustParseAndValidate(t, `["comment", ["add"]]`))
}

// --- Multiple errors and spans ---

func TestReportsAllErrors(t *testing.T) {
	diags := mustParseAndValidate(t, `["seq", ["frob"], ["add", 1], ["array", "old", 1], ["get", 1]]`)
	assertDiagCount(t, diags, 4)
	want := []string{diagnostics.EUnknownOp, diagnostics.EArity, diagnostics.EArrayOp, diagnostics.EType}
	for i, code := range want {
		if diags[i].Code != code {
			t.Errorf("diag %d: got %s, want %s", i, diags[i].Code, code)
		}
	}
}

func TestDiagnosticSpan(t *testing.T) {
	diags := mustParseAndValidate(t, "[\"seq\",\n  1,\n  [\"frob\"]]")
	assertDiagCount(t, diags, 1)
	if diags[0].Span == nil {
		t.Fatal("expected span")
	}
	if diags[0].Span.StartLine != 3 || diags[0].Span.StartCol != 3 {
		t.Errorf("span = %s, want line 3 col 3", diags[0].Span)
	}
	if diags[0].Span.File != "test.json" {
		t.Errorf("span file = %q", diags[0].Span.File)
	}
}

func TestValidateBuiltTree(t *testing.T) {
	prog := ast.Seq("seq",
		ast.Seq("array", ast.Str("new"), ast.Num(2)),
		ast.Seq("set", ast.Str("x"), ast.Num(1)),
		ast.Seq("print", ast.Seq("get", ast.Str("x"))),
	)
	assertNoDiags(t, validator.Validate(prog))
}
