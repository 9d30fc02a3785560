package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrShape reports a tensor whose shape cannot be reinterpreted or combined
	// as requested (reshape element count, concatenation, matmul inner dims).
	ErrShape = errors.New("shape error")

	// ErrShapeMismatch reports two tensors whose shapes must agree but do not,
	// e.g. predictions and targets during loss evaluation.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ShapeError provides detailed information about a shape failure.
//
// It unwraps to ErrShape or ErrShapeMismatch, so callers can use errors.Is.
type ShapeError struct {
	Op      string // Operation that failed (e.g., "reshape", "concat")
	Got     Shape  // Offending shape
	Want    Shape  // Expected shape, if any
	Details string // Additional details
	Err     error  // ErrShape or ErrShapeMismatch
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	kind := ErrShape
	if e.Err != nil {
		kind = e.Err
	}
	msg := fmt.Sprintf("%s: %v", e.Op, kind)
	if e.Got != nil {
		msg += fmt.Sprintf(": got %v", e.Got)
	}
	if e.Want != nil {
		msg += fmt.Sprintf(", want %v", e.Want)
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *ShapeError) Unwrap() error {
	if e.Err == nil {
		return ErrShape
	}
	return e.Err
}

// NewShapeError returns a *ShapeError wrapping ErrShape.
func NewShapeError(op string, got, want Shape, format string, args ...any) *ShapeError {
	return &ShapeError{Op: op, Got: got, Want: want, Details: fmt.Sprintf(format, args...), Err: ErrShape}
}

// NewShapeMismatch returns a *ShapeError wrapping ErrShapeMismatch.
func NewShapeMismatch(op string, got, want Shape, format string, args ...any) *ShapeError {
	return &ShapeError{Op: op, Got: got, Want: want, Details: fmt.Sprintf(format, args...), Err: ErrShapeMismatch}
}
