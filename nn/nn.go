// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// ErrConfiguration is wrapped by errors caused by invalid layer settings.
var ErrConfiguration = nn.ErrConfiguration

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CountParameters returns the total number of scalar weights in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	return nn.CountParameters(params)
}

// Layers

// Linear represents a fully connected layer applied over the last axis.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(16, 32, rand.New(rand.NewSource(1)), backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Embedding maps token ids to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table with N(0, 1) weights.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, rng *rand.Rand, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, rng, backend)
}

// Sequential chains modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential running modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// ReshapeLast reshapes the last axis of its input.
type ReshapeLast[B tensor.Backend] = nn.ReshapeLast[B]

// NewReshapeLast creates a module reshaping the last axis into shape.
func NewReshapeLast[B tensor.Backend](shape ...int) *ReshapeLast[B] {
	return nn.NewReshapeLast[B](shape...)
}

// Activations

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Attention

// MultiHeadAttention implements multi-head attention without masking.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates a multi-head attention module. embedDim must
// be a positive multiple of numHeads.
func NewMultiHeadAttention[B tensor.Backend](embedDim, numHeads int, rng *rand.Rand, backend B) (*MultiHeadAttention[B], error) {
	return nn.NewMultiHeadAttention(embedDim, numHeads, rng, backend)
}

// ScaledDotProductAttention computes softmax(Q·Kᵀ·scale)·V on
// [batch, heads, seq, head_dim] tensors. A zero scale means 1/sqrt(head_dim).
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B], error) {
	return nn.ScaledDotProductAttention(query, key, value, scale)
}
