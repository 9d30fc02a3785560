package nn

import (
	"github.com/born-ml/anp/internal/tensor"
)

// ReshapeLast unflattens the last axis of its input into a target shape.
//
// An input [d0, ..., dk, S] becomes [d0, ..., dk, t0, ..., tm] when
// product(t) == S. Leading dimensions and row-major element order are kept.
// It is used to turn a flat MLP output into a structured representation.
//
// Example:
//
//	shaper := nn.NewReshapeLast[B](16, 2)
//	out, err := shaper.Forward(x) // [4, 5, 32] -> [4, 5, 16, 2]
type ReshapeLast[B tensor.Backend] struct {
	shape tensor.Shape
}

// NewReshapeLast creates a ReshapeLast module for the given target shape.
func NewReshapeLast[B tensor.Backend](shape ...int) *ReshapeLast[B] {
	return &ReshapeLast[B]{shape: tensor.Shape(shape).Clone()}
}

// Shape returns the target shape of the last axis.
func (r *ReshapeLast[B]) Shape() tensor.Shape {
	return r.shape.Clone()
}

// Forward reshapes the last axis of input into the target shape.
// Returns a *tensor.ShapeError if the element counts differ.
func (r *ReshapeLast[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	inShape := input.Shape()
	if len(inShape) == 0 {
		return nil, tensor.NewShapeError("reshape last", inShape, r.shape, "input must have at least one axis")
	}
	last := inShape[len(inShape)-1]
	if r.shape.NumElements() != last {
		return nil, tensor.NewShapeError("reshape last", inShape, r.shape,
			"last dimension %d != product of target %d", last, r.shape.NumElements())
	}

	outShape := append(inShape[:len(inShape)-1].Clone(), r.shape...)
	return input.Reshape(outShape...)
}

// Parameters returns nil (ReshapeLast has no trainable parameters).
func (r *ReshapeLast[B]) Parameters() []*Parameter[B] {
	return nil
}
