package evaluator_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/tll/pkg/ast"
	"github.com/thomasrohde/tll/pkg/diagnostics"
	"github.com/thomasrohde/tll/pkg/evaluator"
)

func TestEnvironmentUnallocated(t *testing.T) {
	env := evaluator.NewEnvironment()
	assert.False(t, env.Allocated())
	assert.Equal(t, 0, env.Capacity())

	_, err := env.Assign("x", evaluator.NewNumber(1))
	expectRuntimeError(t, err, diagnostics.EUninitialized)

	_, err = env.Lookup("x")
	expectRuntimeError(t, err, diagnostics.EUnbound)
}

func TestEnvironmentAssignAdvancesCursor(t *testing.T) {
	env := evaluator.NewEnvironment()
	env.Allocate(3)
	assert.Equal(t, 3, env.Capacity())
	assert.Equal(t, []evaluator.Value{evaluator.NewNull(), evaluator.NewNull(), evaluator.NewNull()}, env.Slots())

	idx, err := env.Assign("x", evaluator.NewNumber(10))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = env.Assign("x", evaluator.NewNumber(20))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, env.Cursor())

	v, err := env.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, evaluator.NewNumber(20), v)

	_, err = env.Assign("y", evaluator.NewNumber(30))
	require.NoError(t, err)
	_, err = env.Assign("z", evaluator.NewNumber(40))
	expectRuntimeError(t, err, diagnostics.EOutOfBounds)
	assert.Equal(t, 3, env.Cursor())
	assert.Equal(t, []string{"x", "y"}, env.Names())
}

func TestEnvironmentSlotsIsCopy(t *testing.T) {
	env := evaluator.NewEnvironment()
	env.Allocate(1)
	slots := env.Slots()
	slots[0] = evaluator.NewString("mutated")
	assert.Equal(t, evaluator.NewNull(), env.Slots()[0])
}

func TestEnvironmentReallocate(t *testing.T) {
	env := evaluator.NewEnvironment()
	env.Allocate(2)
	_, err := env.Assign("a", evaluator.NewNumber(1))
	require.NoError(t, err)
	_, err = env.Assign("b", evaluator.NewNumber(2))
	require.NoError(t, err)

	env.Allocate(1)
	assert.Equal(t, 0, env.Cursor())

	v, err := env.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, evaluator.NewNull(), v)

	_, err = env.Lookup("b")
	expectRuntimeError(t, err, diagnostics.EOutOfBounds)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	out := evaluator.NewWriterOutput(&buf)
	require.NoError(t, out.Print([]evaluator.Value{evaluator.NewString("hi"), evaluator.NewNumber(2)}))
	require.NoError(t, out.Print(nil))
	assert.Equal(t, "hi 2\n\n", buf.String())

	assert.Error(t, evaluator.NewWriterOutput(failingWriter{}).Print(nil))
}

func TestPrintWriteFailure(t *testing.T) {
	env := evaluator.NewEnvironment()
	_, err := evaluator.Evaluate(env, ast.Seq("print", ast.Str("x")), evaluator.NewWriterOutput(failingWriter{}))
	expectRuntimeError(t, err, diagnostics.EIO)
}
