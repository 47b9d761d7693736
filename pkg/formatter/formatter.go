// Package formatter renders TLL instruction trees in canonical form.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/parser"
)

const (
	indent    = "  "
	lineWidth = 72
)

// Format renders program in the given format.
func Format(program ast.Node, format parser.Format) (string, error) {
	switch format {
	case parser.FormatYAML:
		return FormatYAML(program)
	case parser.FormatJSON:
		return FormatJSON(program), nil
	}
	return "", fmt.Errorf("unsupported format %q", format)
}

// FormatJSON pretty-prints program as JSON. A sequence stays on one line
// when it fits; otherwise each item goes on its own line.
func FormatJSON(program ast.Node) string {
	return formatNode(program, 0) + "\n"
}

func formatNode(n ast.Node, depth int) string {
	switch node := n.(type) {
	case *ast.NumLiteral:
		return formatNumber(node)
	case *ast.StrLiteral:
		return quote(node.Value)
	case *ast.BoolLiteral:
		return strconv.FormatBool(node.Value)
	case *ast.NullLiteral:
		return "null"
	case *ast.Sequence:
		return formatSequence(node, depth)
	}
	return "null"
}

func formatSequence(seq *ast.Sequence, depth int) string {
	if len(seq.Items) == 0 {
		return "[]"
	}

	// Try inline first
	inlineParts := make([]string, len(seq.Items))
	multiline := false
	for i, item := range seq.Items {
		inlineParts[i] = formatNode(item, depth+1)
		if strings.Contains(inlineParts[i], "\n") {
			multiline = true
		}
	}
	inline := "[" + strings.Join(inlineParts, ", ") + "]"
	if !multiline && len(strings.Repeat(indent, depth))+len(inline) <= lineWidth {
		return inline
	}

	// Multi-line, with the operator tag kept on the opening line
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	var b strings.Builder
	b.WriteString("[")
	start := 0
	if _, ok := seq.Op(); ok {
		b.WriteString(inlineParts[0])
		start = 1
		if len(seq.Items) > 1 {
			b.WriteString(",")
		}
	}
	b.WriteString("\n")
	for i := start; i < len(seq.Items); i++ {
		b.WriteString(inner)
		b.WriteString(inlineParts[i])
		if i < len(seq.Items)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(outer + "]")
	return b.String()
}

func formatNumber(n *ast.NumLiteral) string {
	if n.Raw != "" && json.Valid([]byte(n.Raw)) {
		return n.Raw
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// quote produces a JSON string literal without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// FormatYAML renders program as a YAML document. Sequences made only of
// scalars use flow style; anything nested uses block style.
func FormatYAML(program ast.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toYAMLNode(program)); err != nil {
		return "", fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.String(), nil
}

func toYAMLNode(n ast.Node) *yaml.Node {
	switch node := n.(type) {
	case *ast.NumLiteral:
		tag := "!!float"
		if node.Value == math.Trunc(node.Value) && math.Abs(node.Value) < 1e18 {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: strconv.FormatFloat(node.Value, 'f', -1, 64)}
	case *ast.StrLiteral:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: node.Value}
	case *ast.BoolLiteral:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(node.Value)}
	case *ast.Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		flat := true
		for _, item := range node.Items {
			if _, ok := item.(*ast.Sequence); ok {
				flat = false
			}
			out.Content = append(out.Content, toYAMLNode(item))
		}
		if flat {
			out.Style = yaml.FlowStyle
		}
		return out
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
