// Package cpu implements the CPU backend with gonum BLAS integration.
package cpu

import (
	"fmt"

	"github.com/born-ml/anp/internal/parallel"
	"github.com/born-ml/anp/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// WithParallel returns a backend using cfg for batched kernels.
func (cpu *CPUBackend) WithParallel(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{device: cpu.device, parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

func (cpu *CPUBackend) binary(op string, a, b *tensor.RawTensor, f func(x, y float32) float32) (*tensor.RawTensor, error) {
	requireFloat32(op, a)
	requireFloat32(op, b)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := result.AsFloat32()
	aData := a.AsFloat32()
	bData := b.AsFloat32()

	if !needsBroadcast {
		// Fast path: identical shapes
		for i := range out {
			out[i] = f(aData[i], bData[i])
		}
		return result, nil
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	for i := range out {
		out[i] = f(aData[flatIndex(i, outStrides, aStrides)], bData[flatIndex(i, outStrides, bStrides)])
	}
	return result, nil
}

// requireFloat32 panics on dtype misuse, which is a programming error.
func requireFloat32(op string, t *tensor.RawTensor) {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, t.DType()))
	}
}
