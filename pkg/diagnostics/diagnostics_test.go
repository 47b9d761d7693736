package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
)

func init() {
	color.NoColor = true
}

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.json", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	assert.Equal(t, diagnostics.EParse, d.Code)
	assert.Equal(t, "unexpected token", d.Message)
	assert.Equal(t, "check syntax", d.Hint)
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.json", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUnbound, "unbound variable 'x'", span, "set it first")

	out := diagnostics.FormatDiagnostic(d, true)
	assert.Contains(t, out, "error[E_UNBOUND]")
	assert.Contains(t, out, "test.json:3:5")
	assert.Contains(t, out, "hint: set it first")
}

func TestFormatDiagnosticNoSpan(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.EIO, "cannot read file", nil, "")
	out := diagnostics.FormatDiagnostic(d, true)
	assert.Contains(t, out, "<unknown>")
	assert.NotContains(t, out, "hint:")
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.EArity, "add expects 2 arguments", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	assert.Contains(t, out, `"code":"E_ARITY"`)
	assert.NotContains(t, out, "span")
}

func TestFormatDiagnosticsJoinsPretty(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EParse, "one", nil, ""),
		diagnostics.MakeDiag(diagnostics.EParse, "two", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	assert.Equal(t, 2, strings.Count(out, "error[E_PARSE]"))
	assert.Contains(t, out, "\n\n")
}

func TestHintFor(t *testing.T) {
	assert.Contains(t, diagnostics.HintFor(diagnostics.EUninitialized), `"array", "new"`)
	assert.Empty(t, diagnostics.HintFor(diagnostics.EType))
}
