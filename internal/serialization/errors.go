package serialization

import "errors"

// Common errors.
var (
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrInvalidHeader     = errors.New("invalid safetensors header")
	ErrOutOfBounds       = errors.New("tensor extends beyond data section")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
	ErrParameterMismatch = errors.New("checkpoint does not match model parameters")
	ErrTooManyTensors    = errors.New("too many tensors in file")
	ErrInvalidShape      = errors.New("invalid tensor shape")
)

// Limits on untrusted headers. Nothing is allocated from a header before
// it is checked against them.
const (
	maxHeaderSize  = 100 << 20
	maxTensorCount = 100_000
)
