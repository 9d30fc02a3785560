package cpu

import (
	"github.com/born-ml/anp/internal/tensor"
)

// broadcastStrides computes strides for reading inShape as if it had outShape.
// Dimensions of size 1 and left-padded dimensions get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		if inIdx < 0 || inShape[inIdx] == 1 {
			continue
		}
		strides[i] = origStrides[inIdx]
	}

	return strides
}

// flatIndex maps a flat output index to the flat source index given by inStrides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}
