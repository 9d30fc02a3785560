// Package nn implements neural network modules for the Neural Process core.
//
// This package provides the building blocks the encoders are made of:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named trainable tensors
//   - Linear: Fully connected layer over the last axis
//   - ReLU, Sigmoid: Activations
//   - Sequential: Container for stacking layers
//   - ReshapeLast: Unflattens the last axis into a target shape
//   - MultiHeadAttention: Scaled dot-product attention with several heads
//   - Embedding: Token lookup table
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
// Shape problems are reported as errors wrapping tensor.ErrShape; invalid
// hyperparameters as errors wrapping ErrConfiguration.
package nn

import (
	"github.com/born-ml/anp/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(5, 32, rng, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(32, 8, rng, backend),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}
