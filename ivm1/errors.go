package ivm1

import "errors"

var (
	// ErrHeapExhausted is returned when an allocation does not fit in the
	// heap.
	ErrHeapExhausted = errors.New("ivm1: heap exhausted")
	// ErrStackOverflow is returned when the reducer's frame stack exceeds
	// its configured limit.
	ErrStackOverflow = errors.New("ivm1: stack overflow")
	// ErrLabelExhausted is returned when no fresh duplication labels
	// remain.
	ErrLabelExhausted = errors.New("ivm1: duplication labels exhausted")
	// ErrNoDef is returned when a reference names an unknown definition.
	ErrNoDef = errors.New("ivm1: no such definition")
	// ErrInteractionLimit is returned when the configured interaction
	// budget is spent before a normal form is reached.
	ErrInteractionLimit = errors.New("ivm1: interaction limit exceeded")
	// ErrUnknownPrimitive is returned when a primitive node carries an
	// operation id outside the table, or an arity that does not match it.
	ErrUnknownPrimitive = errors.New("ivm1: unknown primitive")
	// ErrUnknownTag is returned when the reducer encounters a tag it has
	// no rule for.
	ErrUnknownTag = errors.New("ivm1: unknown tag")
	// ErrMalformedHeap is returned when two terms meet at a redex that no
	// interaction covers, e.g. applying a number.
	ErrMalformedHeap = errors.New("ivm1: malformed heap")
	// ErrShapeMismatch is returned when batch operands disagree in length.
	ErrShapeMismatch = errors.New("ivm1: shape mismatch")
)
