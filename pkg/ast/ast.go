// Package ast defines the decoded TLL instruction tree.
package ast

import (
	"fmt"
	"strconv"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

func (s Span) String() string {
	file := s.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, s.StartLine, s.StartCol)
}

// Node is the interface implemented by all instruction nodes.
// A program is a single Node: either a literal or a sequence.
type Node interface {
	Kind() string
	NodeSpan() Span
	node() // sealed marker
}

// Literal is the interface for scalar leaves.
type Literal interface {
	Node
	literalNode() // sealed marker
}

// --- Literals ---

type NumLiteral struct {
	Span  Span
	Value float64
	Raw   string
}

func (n *NumLiteral) Kind() string   { return "NumLiteral" }
func (n *NumLiteral) NodeSpan() Span { return n.Span }
func (n *NumLiteral) node()          {}
func (n *NumLiteral) literalNode()   {}

type StrLiteral struct {
	Span  Span
	Value string
}

func (n *StrLiteral) Kind() string   { return "StrLiteral" }
func (n *StrLiteral) NodeSpan() Span { return n.Span }
func (n *StrLiteral) node()          {}
func (n *StrLiteral) literalNode()   {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) node()          {}
func (n *BoolLiteral) literalNode()   {}

type NullLiteral struct {
	Span Span
}

func (n *NullLiteral) Kind() string   { return "NullLiteral" }
func (n *NullLiteral) NodeSpan() Span { return n.Span }
func (n *NullLiteral) node()          {}
func (n *NullLiteral) literalNode()   {}

// --- Sequences ---

// Sequence is an operator-tagged instruction: Items[0] is the tag and
// Items[1:] are the unevaluated arguments.
type Sequence struct {
	Span  Span
	Items []Node
}

func (n *Sequence) Kind() string   { return "Sequence" }
func (n *Sequence) NodeSpan() Span { return n.Span }
func (n *Sequence) node()          {}

// Op returns the operator tag if the first item is a string literal.
func (n *Sequence) Op() (string, bool) {
	if len(n.Items) == 0 {
		return "", false
	}
	s, ok := n.Items[0].(*StrLiteral)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// Args returns the argument nodes following the tag.
func (n *Sequence) Args() []Node {
	if len(n.Items) == 0 {
		return nil
	}
	return n.Items[1:]
}

// --- Constructors ---
// Used by tests and the REPL to build trees without a decoder. Spans are zero.

// Num builds a number literal.
func Num(v float64) *NumLiteral {
	return &NumLiteral{Value: v, Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Str builds a string literal.
func Str(s string) *StrLiteral {
	return &StrLiteral{Value: s}
}

// Bool builds a boolean literal.
func Bool(b bool) *BoolLiteral {
	return &BoolLiteral{Value: b}
}

// Null builds a null literal.
func Null() *NullLiteral {
	return &NullLiteral{}
}

// Seq builds a sequence from an operator tag and arguments.
func Seq(op string, args ...Node) *Sequence {
	items := make([]Node, 0, len(args)+1)
	items = append(items, Str(op))
	items = append(items, args...)
	return &Sequence{Items: items}
}
