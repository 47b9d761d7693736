package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/tll/pkg/ast"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		ast.Num(42),
		ast.Str("hello"),
		ast.Bool(true),
		ast.Null(),
		ast.Seq("add", ast.Num(1), ast.Num(2)),
	}

	expected := []string{
		"NumLiteral", "StrLiteral", "BoolLiteral", "NullLiteral", "Sequence",
	}

	for i, node := range nodes {
		assert.Equal(t, expected[i], node.Kind(), "node %d", i)
	}
}

func TestSequenceOpAndArgs(t *testing.T) {
	seq := ast.Seq("set", ast.Str("x"), ast.Num(10))

	op, ok := seq.Op()
	require.True(t, ok)
	assert.Equal(t, "set", op)
	require.Len(t, seq.Args(), 2)
	assert.Equal(t, "x", seq.Args()[0].(*ast.StrLiteral).Value)

	empty := &ast.Sequence{}
	_, ok = empty.Op()
	assert.False(t, ok)
	assert.Nil(t, empty.Args())

	numTag := &ast.Sequence{Items: []ast.Node{ast.Num(1)}}
	_, ok = numTag.Op()
	assert.False(t, ok, "non-string tag is not an operator")
}

func TestSpanString(t *testing.T) {
	assert.Equal(t, "prog.json:3:5", ast.Span{File: "prog.json", StartLine: 3, StartCol: 5}.String())
	assert.Equal(t, "<input>:1:1", ast.Span{StartLine: 1, StartCol: 1}.String())
}
