package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/anp/internal/tensor"
)

// SumDim sums x along dim. With keepDim the reduced dimension stays as size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) (*tensor.RawTensor, error) {
	return cpu.reduceDim("sum", x, dim, keepDim, func(acc float64, _ int) float64 { return acc })
}

// MeanDim averages x along dim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) (*tensor.RawTensor, error) {
	return cpu.reduceDim("mean", x, dim, keepDim, func(acc float64, n int) float64 { return acc / float64(n) })
}

// Softmax normalizes x along dim using the max-subtraction trick.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) (*tensor.RawTensor, error) {
	requireFloat32("softmax", x)
	shape := x.Shape()
	d, err := shape.NormalizeDim(dim)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}

	result, err := tensor.NewRaw(shape, tensor.Float32, cpu.device)
	if err != nil {
		return nil, err
	}

	size := shape[d]
	inner := tensor.Product(shape[d+1:]...)
	outer := tensor.Product(shape[:d]...)
	in, out := x.AsFloat32(), result.AsFloat32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i
			maxVal := float32(math.Inf(-1))
			for j := 0; j < size; j++ {
				maxVal = max(maxVal, in[base+j*inner])
			}
			var sum float64
			for j := 0; j < size; j++ {
				e := math.Exp(float64(in[base+j*inner] - maxVal))
				out[base+j*inner] = float32(e)
				sum += e
			}
			for j := 0; j < size; j++ {
				out[base+j*inner] = float32(float64(out[base+j*inner]) / sum)
			}
		}
	}
	return result, nil
}

// reduceDim accumulates along dim in float64 and applies finish to each sum.
func (cpu *CPUBackend) reduceDim(op string, x *tensor.RawTensor, dim int, keepDim bool,
	finish func(acc float64, n int) float64,
) (*tensor.RawTensor, error) {
	requireFloat32(op, x)
	shape := x.Shape()
	d, err := shape.NormalizeDim(dim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for i, s := range shape {
		switch {
		case i != d:
			outShape = append(outShape, s)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		return nil, err
	}

	size := shape[d]
	inner := tensor.Product(shape[d+1:]...)
	outer := tensor.Product(shape[:d]...)
	in, out := x.AsFloat32(), result.AsFloat32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var acc float64
			for j := 0; j < size; j++ {
				acc += float64(in[o*size*inner+j*inner+i])
			}
			out[o*inner+i] = float32(finish(acc, size))
		}
	}
	return result, nil
}
