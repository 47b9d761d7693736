package evaluator

import (
	"io"
	"strings"
)

// Output receives the values of each print instruction.
type Output interface {
	Print(values []Value) error
}

// WriterOutput renders printed values to an io.Writer, space separated and
// newline terminated.
type WriterOutput struct {
	W io.Writer
}

// NewWriterOutput creates an Output writing to w.
func NewWriterOutput(w io.Writer) *WriterOutput {
	return &WriterOutput{W: w}
}

func (o *WriterOutput) Print(values []Value) error {
	_, err := io.WriteString(o.W, RenderAll(values)+"\n")
	return err
}

// BufferOutput records printed lines in memory.
type BufferOutput struct {
	Lines []string
}

func (o *BufferOutput) Print(values []Value) error {
	o.Lines = append(o.Lines, RenderAll(values))
	return nil
}

// String returns the recorded output as the console would show it.
func (o *BufferOutput) String() string {
	if len(o.Lines) == 0 {
		return ""
	}
	return strings.Join(o.Lines, "\n") + "\n"
}
