// Package parser decodes TLL programs from JSON or YAML into an instruction tree.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
)

// Format identifies a source encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// DetectFormat picks a format from a file extension. Unknown extensions,
// stdin ("-") and "" default to JSON.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseAs decodes source using the given format.
func ParseAs(format Format, source, filename string) (ast.Node, []diagnostics.Diagnostic) {
	if format == FormatYAML {
		return ParseYAML(source, filename)
	}
	return Parse(source, filename)
}

// ParseFile reads and decodes a program file, choosing the decoder by extension.
func ParseFile(path string) (ast.Node, []diagnostics.Diagnostic) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", path), nil, ""),
		}
	}
	return ParseAs(DetectFormat(path), string(data), path)
}

// maxNesting bounds how deeply sequences may nest in a decoded program.
// It matches the limit yaml.v3 enforces on its own input.
const maxNesting = 10000

type parser struct {
	src       string
	file      string
	dec       *json.Decoder
	lineStart []int
	diags     []diagnostics.Diagnostic
	depth     int
}

// Parse decodes a JSON program into an instruction tree.
func Parse(source, filename string) (ast.Node, []diagnostics.Diagnostic) {
	dec := json.NewDecoder(strings.NewReader(source))
	dec.UseNumber()

	p := &parser{src: source, file: filename, dec: dec, lineStart: lineStarts(source)}

	if strings.TrimSpace(source) == "" {
		p.addError("empty program", p.spanAt(0, 0))
		return nil, p.diags
	}

	node := p.parseValue()
	if len(p.diags) > 0 {
		return nil, p.diags
	}

	// Exactly one top-level value.
	start := p.nextTokenStart()
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		p.addError("unexpected content after program", p.spanAt(start, start+1))
		return nil, p.diags
	}
	return node, nil
}

func (p *parser) addError(msg string, span ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

// nextTokenStart returns the byte offset where the decoder's next token begins.
// json.Decoder consumes separators implicitly, so skip them here too.
func (p *parser) nextTokenStart() int {
	off := int(p.dec.InputOffset())
	for off < len(p.src) && strings.IndexByte(" \t\r\n,:", p.src[off]) >= 0 {
		off++
	}
	return off
}

func (p *parser) parseValue() ast.Node {
	start := p.nextTokenStart()
	tok, err := p.dec.Token()
	if err != nil {
		p.addError(decodeMessage(err), p.spanAt(start, start+1))
		return nil
	}
	end := int(p.dec.InputOffset())
	span := p.spanAt(start, end)

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			return p.parseSequence(start)
		case '{':
			p.addError("objects are not valid instructions; use [\"op\", args...]", span)
			return nil
		default:
			p.addError(fmt.Sprintf("unexpected '%s'", t), span)
			return nil
		}
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid number %s", t.String()), span)
			return nil
		}
		return &ast.NumLiteral{Span: span, Value: f, Raw: t.String()}
	case string:
		return &ast.StrLiteral{Span: span, Value: t}
	case bool:
		return &ast.BoolLiteral{Span: span, Value: t}
	case nil:
		return &ast.NullLiteral{Span: span}
	}
	p.addError(fmt.Sprintf("unexpected token %v", tok), span)
	return nil
}

func (p *parser) parseSequence(start int) ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		p.addError(fmt.Sprintf("nesting too deep (max %d)", maxNesting), p.spanAt(start, start+1))
		return nil
	}

	seq := &ast.Sequence{}
	for p.dec.More() {
		item := p.parseValue()
		if item == nil {
			return nil
		}
		seq.Items = append(seq.Items, item)
	}
	closeAt := p.nextTokenStart()
	if _, err := p.dec.Token(); err != nil {
		p.addError(decodeMessage(err), p.spanAt(closeAt, closeAt+1))
		return nil
	}
	seq.Span = p.spanAt(start, int(p.dec.InputOffset()))
	return seq
}

const msgUnexpectedEnd = "unexpected end of input"

// IsIncomplete reports whether diags only say the input stopped early, so
// more text could still make it a valid program.
func IsIncomplete(diags []diagnostics.Diagnostic) bool {
	return len(diags) == 1 && diags[0].Message == msgUnexpectedEnd
}

func decodeMessage(err error) string {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return msgUnexpectedEnd
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return syn.Error()
	}
	return err.Error()
}

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position converts a byte offset into a 1-based line and column.
func (p *parser) position(off int) (int, int) {
	line := sort.Search(len(p.lineStart), func(i int) bool { return p.lineStart[i] > off }) - 1
	if line < 0 {
		line = 0
	}
	return line + 1, off - p.lineStart[line] + 1
}

func (p *parser) spanAt(start, end int) ast.Span {
	sl, sc := p.position(start)
	el, ec := p.position(end)
	return ast.Span{File: p.file, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}
