// Package diagnostics defines TLL diagnostic types for decode/validation/runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thomasrohde/tll/pkg/ast"
)

// Diagnostic code constants.
const (
	EParse         = "E_PARSE"
	EUnknownOp     = "E_UNKNOWN_OP"
	EArity         = "E_ARITY"
	EUninitialized = "E_UNINITIALIZED"
	EUnbound       = "E_UNBOUND"
	EOutOfBounds   = "E_OUT_OF_BOUNDS"
	EArrayOp       = "E_ARRAY_OP"
	EType          = "E_TYPE"
	EEmptyRepeat   = "E_EMPTY_REPEAT"
	EBudget        = "E_BUDGET"
	EIO            = "E_IO"
)

// Diagnostic represents a decode, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	arrowLabel = color.New(color.FgBlue).SprintFunc()
	hintLabel  = color.New(color.FgCyan).SprintFunc()
)

// FormatDiagnostic formats a single diagnostic for display.
// Colors follow color.NoColor, so piped output stays plain.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = d.Span.String()
	}
	out := fmt.Sprintf("%s: %s\n  %s %s", errorLabel("error["+d.Code+"]"), d.Message, arrowLabel("-->"), loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  %s %s", hintLabel("hint:"), d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// HintFor returns a short remediation hint for a code, or "".
func HintFor(code string) string {
	switch code {
	case EUninitialized:
		return `allocate storage first with ["array", "new", N]`
	case EOutOfBounds:
		return "every set (and every repeat iteration) consumes a fresh slot; raise the array capacity"
	case EArrayOp:
		return `the only supported array operation is "new"`
	case EEmptyRepeat:
		return "repeat needs a count of at least 1 to produce a value"
	case EBudget:
		return "raise the limit with --max-depth/--max-steps or in .tll.yaml"
	}
	return ""
}
