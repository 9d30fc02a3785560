// Package distribution provides batched probability distributions over tensors.
//
// Distributions are immutable views over parameter tensors. Densities are
// evaluated in float64 with gonum and returned as float32 tensors on the
// parameters' backend.
package distribution

import (
	"errors"

	"github.com/born-ml/anp/internal/tensor"
)

var (
	// ErrNotImplemented is returned by KL for unsupported distribution pairs.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidParameter is returned for parameters outside a distribution's domain.
	ErrInvalidParameter = errors.New("invalid distribution parameter")

	// ErrOutOfSupport is returned when a value lies outside the support.
	ErrOutOfSupport = errors.New("value out of support")
)

// Distribution is a batch of independent distributions.
type Distribution[B tensor.Backend] interface {
	// BatchShape returns the shape of the batch of distributions.
	BatchShape() tensor.Shape

	// Entropy returns the entropy of every distribution in the batch.
	Entropy() (*tensor.Tensor[float32, B], error)
}

func fromFloat64[B tensor.Backend](values []float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	out := tensor.Zeros[float32](shape, backend)
	data := out.Data()
	for i, v := range values {
		data[i] = float32(v)
	}
	return out
}
