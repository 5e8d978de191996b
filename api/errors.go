package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperand is returned when a register index is out of range, a displacement
	// is unrepresentable or an immediate overflows a field with no defined truncation.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrUnsupportedOperation is returned when an (operation, shape, target) combination
	// has neither a native encoding nor a defined fallback.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrInconsistentConfiguration is returned when a compatibility tier depends on a
	// feature the target lacks, or when configuration options contradict each other.
	ErrInconsistentConfiguration = errors.New("inconsistent configuration")
)

// EncodeError is returned by an encoder when an operation cannot be emitted. Nothing is
// written to the output for the operation.
type EncodeError struct {
	Op       Op
	Shape    Shape
	Operands []Operand
	Err      error
}

// Error implements error.
func (e *EncodeError) Error() string {
	if e.Op == OpNone {
		return fmt.Sprintf("encode: %v", e.Err)
	}
	return fmt.Sprintf("encode %s %s %v: %v", e.Op, e.Shape, e.Operands, e.Err)
}

// Unwrap returns the underlying error, one of the sentinel errors of this package wrapped
// with details.
func (e *EncodeError) Unwrap() error { return e.Err }
