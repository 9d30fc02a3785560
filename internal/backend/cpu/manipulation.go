package cpu

import (
	"fmt"

	"github.com/born-ml/anp/internal/tensor"
)

// Reshape returns a copy of t with a new shape.
// The new shape must have the same number of elements.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) (*tensor.RawTensor, error) {
	view, err := t.Clone().View(newShape)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Transpose permutes dimensions. With no axes, the order is reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) (*tensor.RawTensor, error) {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		return nil, tensor.NewShapeError("transpose", shape, nil, "got %d axes for rank %d", len(axes), ndim)
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			return nil, tensor.NewShapeError("transpose", shape, nil, "invalid permutation %v", axes)
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), cpu.device)
	if err != nil {
		return nil, err
	}

	srcStrides := t.Strides()
	dstStrides := newShape.ComputeStrides()
	copyIndexed(result, t, func(dst int) int {
		src := 0
		for i := 0; i < ndim; i++ {
			coord := dst / dstStrides[i]
			dst %= dstStrides[i]
			src += coord * srcStrides[axes[i]]
		}
		return src
	})
	return result, nil
}

// Cat concatenates tensors along dim.
// All tensors must share dtype, rank and every dimension except dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) (*tensor.RawTensor, error) {
	if len(tensors) == 0 {
		return nil, tensor.NewShapeError("concat", nil, nil, "at least one tensor required")
	}

	first := tensors[0].Shape()
	d, err := first.NormalizeDim(dim)
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}

	outShape := first.Clone()
	outShape[d] = 0
	for _, t := range tensors {
		s := t.Shape()
		if t.DType() != tensors[0].DType() {
			panic(fmt.Sprintf("concat: dtype mismatch %s vs %s", t.DType(), tensors[0].DType()))
		}
		if len(s) != len(first) {
			return nil, tensor.NewShapeError("concat", s, first, "rank mismatch")
		}
		for i := range s {
			if i != d && s[i] != first[i] {
				return nil, tensor.NewShapeError("concat", s, first, "dimension %d mismatch: %d vs %d", i, s[i], first[i])
			}
		}
		outShape[d] += s[d]
	}

	result, err := tensor.NewRaw(outShape, tensors[0].DType(), cpu.device)
	if err != nil {
		return nil, err
	}

	// outer = product of dims before d, inner = product after d.
	outer := tensor.Product(first[:d]...)
	inner := tensor.Product(first[d+1:]...)
	outRow := outShape[d] * inner

	offset := 0
	for _, t := range tensors {
		rowLen := t.Shape()[d] * inner
		base := offset
		copyIndexedRange(result, t, outer*rowLen, func(src int) int {
			return (src/rowLen)*outRow + base + src%rowLen
		})
		offset += rowLen
	}
	return result, nil
}

// Narrow returns length elements of x starting at start along dim.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) (*tensor.RawTensor, error) {
	shape := x.Shape()
	d, err := shape.NormalizeDim(dim)
	if err != nil {
		return nil, fmt.Errorf("narrow: %w", err)
	}
	if start < 0 || length <= 0 || start+length > shape[d] {
		return nil, tensor.NewShapeError("narrow", shape, nil,
			"range [%d, %d) out of bounds for dimension %d of size %d", start, start+length, d, shape[d])
	}

	outShape := shape.Clone()
	outShape[d] = length
	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		return nil, err
	}

	inner := tensor.Product(shape[d+1:]...)
	outRow := length * inner
	inRow := shape[d] * inner
	copyIndexed(result, x, func(dst int) int {
		return (dst/outRow)*inRow + start*inner + dst%outRow
	})
	return result, nil
}

// Embedding looks up rows of weight [V, D] for each int64 index.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) (*tensor.RawTensor, error) {
	requireFloat32("embedding", weight)
	wShape := weight.Shape()
	if len(wShape) != 2 {
		return nil, tensor.NewShapeError("embedding", wShape, nil, "weight must be 2D [vocab, dim]")
	}
	vocab, dim := wShape[0], wShape[1]

	outShape := append(indices.Shape().Clone(), dim)
	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		return nil, err
	}

	out, w := result.AsFloat32(), weight.AsFloat32()
	for i, idx := range indices.AsInt64() {
		if idx < 0 || int(idx) >= vocab {
			return nil, fmt.Errorf("embedding: index %d out of range [0, %d)", idx, vocab)
		}
		copy(out[i*dim:(i+1)*dim], w[int(idx)*dim:(int(idx)+1)*dim])
	}
	return result, nil
}

// copyIndexed fills every element of dst from src[srcIndex(i)].
func copyIndexed(dst, src *tensor.RawTensor, srcIndex func(dst int) int) {
	switch dst.DType() {
	case tensor.Float32:
		d, s := dst.AsFloat32(), src.AsFloat32()
		for i := range d {
			d[i] = s[srcIndex(i)]
		}
	case tensor.Int64:
		d, s := dst.AsInt64(), src.AsInt64()
		for i := range d {
			d[i] = s[srcIndex(i)]
		}
	}
}

// copyIndexedRange writes the first n elements of src into dst[dstIndex(i)].
func copyIndexedRange(dst, src *tensor.RawTensor, n int, dstIndex func(src int) int) {
	switch dst.DType() {
	case tensor.Float32:
		d, s := dst.AsFloat32(), src.AsFloat32()
		for i := 0; i < n; i++ {
			d[dstIndex(i)] = s[i]
		}
	case tensor.Int64:
		d, s := dst.AsInt64(), src.AsInt64()
		for i := 0; i < n; i++ {
			d[dstIndex(i)] = s[i]
		}
	}
}
