package tensor

import "slices"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the number of elements a tensor of shape s holds.
// The empty shape is a scalar with one element.
func (s Shape) NumElements() int {
	return Product(s...)
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return NewShapeError("validate", s, nil, "dimension %d is %d, must be > 0", i, dim)
		}
	}
	return nil
}

// Equal reports whether s and other have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of the shape. The clone of a nil shape is empty,
// not nil.
func (s Shape) Clone() Shape {
	return append(Shape{}, s...)
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// NormalizeDim resolves a possibly negative dimension index (-1 = last).
func (s Shape) NormalizeDim(dim int) (int, error) {
	d := dim
	if d < 0 {
		d += len(s)
	}
	if d < 0 || d >= len(s) {
		return 0, NewShapeError("dim", s, nil, "dimension %d out of range for rank %d", dim, len(s))
	}
	return d, nil
}

// Product returns the product of dims; an empty list has product 1.
func Product(dims ...int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Shapes are compared from the right; dimensions are compatible when equal or
// when one of them is 1. Missing dimensions are treated as 1.
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed,
// and a *ShapeError if the shapes are incompatible.
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, ErrShape
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, NewShapeError("broadcast", a, b,
				"dimension %d: %d vs %d", maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}
