package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
)

// ParseYAML decodes a YAML program. Sequences map to instructions and
// scalars to literals, so
//
//	- seq
//	- [array, new, 2]
//	- [print, hello]
//
// is the same program as its JSON form.
func ParseYAML(source, filename string) (ast.Node, []diagnostics.Diagnostic) {
	dec := yaml.NewDecoder(strings.NewReader(source))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "empty program"
		}
		span := ast.Span{File: filename, StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, msg, &span, "")}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		span := yamlSpan(filename, &extra)
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, "a program file holds exactly one document", &span, "")}
	}

	y := &yamlConverter{file: filename}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	node := y.convert(root)
	if len(y.diags) > 0 {
		return nil, y.diags
	}
	return node, nil
}

// maxAliasNodes caps the nodes produced by expanding aliases, so nested
// anchors cannot blow a small document up into a huge tree.
const maxAliasNodes = 100000

type yamlConverter struct {
	file  string
	diags []diagnostics.Diagnostic
	depth int

	inAlias    int
	aliasNodes int
}

func (y *yamlConverter) addError(msg string, n *yaml.Node) {
	span := yamlSpan(y.file, n)
	y.diags = append(y.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

func yamlSpan(file string, n *yaml.Node) ast.Span {
	return ast.Span{File: file, StartLine: n.Line, StartCol: n.Column, EndLine: n.Line, EndCol: n.Column}
}

func (y *yamlConverter) convert(n *yaml.Node) ast.Node {
	span := yamlSpan(y.file, n)

	if y.inAlias > 0 {
		y.aliasNodes++
		if y.aliasNodes > maxAliasNodes {
			y.addError(fmt.Sprintf("aliases expand to more than %d nodes", maxAliasNodes), n)
			return nil
		}
	}

	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			y.addError("dangling alias", n)
			return nil
		}
		y.inAlias++
		defer func() { y.inAlias-- }()
		return y.convert(n.Alias)

	case yaml.SequenceNode:
		y.depth++
		defer func() { y.depth-- }()
		if y.depth > maxNesting {
			y.addError(fmt.Sprintf("nesting too deep (max %d)", maxNesting), n)
			return nil
		}
		seq := &ast.Sequence{Span: span}
		for _, child := range n.Content {
			item := y.convert(child)
			if item == nil {
				return nil
			}
			seq.Items = append(seq.Items, item)
		}
		return seq

	case yaml.MappingNode:
		y.addError("mappings are not valid instructions; use [op, args...]", n)
		return nil

	case yaml.ScalarNode:
		return y.convertScalar(n, span)
	}

	y.addError(fmt.Sprintf("unsupported YAML node kind %d", n.Kind), n)
	return nil
}

func (y *yamlConverter) convertScalar(n *yaml.Node, span ast.Span) ast.Node {
	switch n.ShortTag() {
	case "!!null":
		return &ast.NullLiteral{Span: span}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			y.addError(err.Error(), n)
			return nil
		}
		return &ast.BoolLiteral{Span: span, Value: b}
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			y.addError(err.Error(), n)
			return nil
		}
		return &ast.NumLiteral{Span: span, Value: f, Raw: n.Value}
	case "!!str":
		return &ast.StrLiteral{Span: span, Value: n.Value}
	}
	y.addError(fmt.Sprintf("unsupported scalar tag %s", n.ShortTag()), n)
	return nil
}
