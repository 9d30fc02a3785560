package nn

import (
	"math/rand"

	"github.com/born-ml/anp/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b over the last axis, where
//   - x has shape [..., in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y has shape [..., out_features]
//
// Leading axes are flattened for the matmul and restored afterwards, so each
// row is transformed independently of every other row.
//
// Example:
//
//	layer := nn.NewLinear(3, 32, rng, backend)
//	output, err := layer.Forward(input) // [4, 5, 3] -> [4, 5, 32]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
}

// NewLinear creates a new Linear layer with Xavier weights and zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weightTensor := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend)
	biasTensor := tensor.Zeros[float32](tensor.Shape{outFeatures}, backend)

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weightTensor),
		bias:        NewParameter("bias", biasTensor),
	}
}

// Forward computes y = x @ W.T + b.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	inputShape := input.Shape()
	if len(inputShape) < 1 || inputShape[len(inputShape)-1] != l.inFeatures {
		return nil, tensor.NewShapeError("linear", inputShape, nil,
			"expected last dimension %d", l.inFeatures)
	}

	rows := inputShape.NumElements() / l.inFeatures
	input2D, err := input.Reshape(rows, l.inFeatures)
	if err != nil {
		return nil, err
	}

	wT, err := l.weight.Tensor().Transpose() // [in_features, out_features]
	if err != nil {
		return nil, err
	}

	output, err := input2D.MatMul(wT)
	if err != nil {
		return nil, err
	}

	// Bias [out_features] broadcasts over rows.
	output, err = output.Add(l.bias.Tensor())
	if err != nil {
		return nil, err
	}

	outShape := append(inputShape[:len(inputShape)-1].Clone(), l.outFeatures)
	return output.Reshape(outShape...)
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
