package evaluator

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/tll/pkg/diagnostics"
)

// Environment is the mutable storage for one evaluation run.
// Values live in a fixed-capacity slot array; a name is bound to the
// index of the slot holding its current value.
type Environment struct {
	slots     []Value
	cursor    int
	bindings  map[string]int
	allocated bool
}

// NewEnvironment creates an empty environment with no storage allocated.
func NewEnvironment() *Environment {
	return &Environment{
		bindings: make(map[string]int),
	}
}

// Allocate replaces the slot array with capacity null slots and resets the
// cursor. Existing bindings are kept and keep pointing at their old indices.
func (e *Environment) Allocate(capacity int) {
	slots := make([]Value, capacity)
	for i := range slots {
		slots[i] = NewNull()
	}
	e.slots = slots
	e.cursor = 0
	e.allocated = true
}

// Assign writes val into the slot at the cursor, binds name to that slot and
// advances the cursor. A name that is already bound gets a new slot; its old
// slot is left untouched.
func (e *Environment) Assign(name string, val Value) (int, error) {
	if !e.allocated {
		return 0, &RuntimeError{
			Code:    diagnostics.EUninitialized,
			Message: fmt.Sprintf("cannot set '%s': storage not initialized", name),
		}
	}
	if e.cursor >= len(e.slots) {
		return 0, &RuntimeError{
			Code:    diagnostics.EOutOfBounds,
			Message: fmt.Sprintf("cannot set '%s': slot %d exceeds capacity %d", name, e.cursor, len(e.slots)),
		}
	}
	idx := e.cursor
	e.slots[idx] = val
	e.bindings[name] = idx
	e.cursor++
	return idx, nil
}

// Lookup returns the value in the slot bound to name.
func (e *Environment) Lookup(name string) (Value, error) {
	idx, ok := e.bindings[name]
	if !ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EUnbound,
			Message: fmt.Sprintf("unknown variable '%s'", name),
		}
	}
	if !e.allocated {
		return nil, &RuntimeError{
			Code:    diagnostics.EUninitialized,
			Message: fmt.Sprintf("cannot get '%s': storage not initialized", name),
		}
	}
	if idx >= len(e.slots) {
		return nil, &RuntimeError{
			Code:    diagnostics.EOutOfBounds,
			Message: fmt.Sprintf("variable '%s' refers to slot %d beyond capacity %d", name, idx, len(e.slots)),
		}
	}
	return e.slots[idx], nil
}

// Allocated reports whether storage has been allocated.
func (e *Environment) Allocated() bool {
	return e.allocated
}

// Capacity returns the number of slots.
func (e *Environment) Capacity() int {
	return len(e.slots)
}

// Cursor returns the index of the next free slot.
func (e *Environment) Cursor() int {
	return e.cursor
}

// Binding returns the slot index bound to name.
func (e *Environment) Binding(name string) (int, bool) {
	idx, ok := e.bindings[name]
	return idx, ok
}

// Names returns all bound names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Slots returns a copy of the slot array.
func (e *Environment) Slots() []Value {
	out := make([]Value, len(e.slots))
	copy(out, e.slots)
	return out
}
