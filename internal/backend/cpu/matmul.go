package cpu

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/anp/internal/parallel"
	"github.com/born-ml/anp/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	requireFloat32("matmul", a)
	requireFloat32("matmul", b)

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		return nil, tensor.NewShapeError("matmul", aShape, bShape, "both operands must be 2D")
	}
	m, k, n := aShape[0], aShape[1], bShape[1]
	if bShape[0] != k {
		return nil, tensor.NewShapeError("matmul", aShape, bShape, "inner dimension mismatch: %d vs %d", k, bShape[0])
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, cpu.device)
	if err != nil {
		return nil, err
	}
	gemm(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	return result, nil
}

// BatchMatMul performs batched matrix multiplication.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// All leading dimensions must match. Batches run through parallel.For.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	requireFloat32("batch matmul", a)
	requireFloat32("batch matmul", b)

	aShape, bShape := a.Shape(), b.Shape()
	ndim := len(aShape)
	if ndim < 3 || len(bShape) != ndim {
		return nil, tensor.NewShapeError("batch matmul", aShape, bShape, "operands must both be 3D or 4D")
	}
	for i := 0; i < ndim-2; i++ {
		if aShape[i] != bShape[i] {
			return nil, tensor.NewShapeError("batch matmul", aShape, bShape,
				"batch dimension %d mismatch: %d vs %d", i, aShape[i], bShape[i])
		}
	}

	m, k, n := aShape[ndim-2], aShape[ndim-1], bShape[ndim-1]
	if bShape[ndim-2] != k {
		return nil, tensor.NewShapeError("batch matmul", aShape, bShape,
			"inner dimension mismatch: %d vs %d", k, bShape[ndim-2])
	}

	batchSize := tensor.Product(aShape[:ndim-2]...)
	outShape := append(aShape[:ndim-2].Clone(), m, n)

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		return nil, err
	}

	c, aData, bData := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()
	parallel.For(batchSize, func(i int) {
		gemm(c[i*m*n:(i+1)*m*n], aData[i*m*k:(i+1)*m*k], bData[i*k*n:(i+1)*k*n], m, k, n)
	}, cpu.parallel)

	return result, nil
}

// gemm computes c = a @ b for row-major a [m, k], b [k, n], c [m, n].
func gemm(c, a, b []float32, m, k, n int) {
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: c},
	)
}
