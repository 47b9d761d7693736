package parser_test

import (
	"testing"

	"github.com/thomasrohde/tll/pkg/formatter"
	"github.com/thomasrohde/tll/pkg/parser"
)

// FuzzParse feeds random inputs to the JSON decoder. It must never panic,
// and anything it accepts must survive a format and re-decode unchanged.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`42`,
		`"hello"`,
		`null`,
		`true`,
		`["add", 1, 2]`,
		`["seq", ["array", "new", 2], ["set", "x", 1], ["print", ["get", "x"]]]`,
		`["repeat", 3, ["print", "hi"], "i"]`,
		`["if", ["gt", 2, 1], "yes", "no"]`,
		`["comment", "ignored"]`,
		`["print", "a\nb", "é", 1.5e3]`,
		`[]`,
		`[[]]`,
		`[1, 2]`,
		`{"a": 1}`,
		``,
		`   `,
		`["add", 1`,
		`["add" 1]`,
		`"unterminated`,
		`["a"] ["b"]`,
		`-0`,
		`1e400`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		program, diags := parser.Parse(input, "fuzz.json")
		if len(diags) > 0 {
			return
		}
		first, err := formatter.Format(program, parser.FormatJSON)
		if err != nil {
			return
		}
		again, diags := parser.Parse(first, "fuzz.json")
		if len(diags) > 0 {
			t.Fatalf("formatted output does not decode: %q -> %q: %v", input, first, diags)
		}
		second, err := formatter.Format(again, parser.FormatJSON)
		if err != nil {
			t.Fatalf("second format failed: %v", err)
		}
		if first != second {
			t.Fatalf("format is not stable:\n%s\n%s", first, second)
		}
	})
}
