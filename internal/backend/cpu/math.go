package cpu

import (
	"math"

	"github.com/born-ml/anp/internal/tensor"
)

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unary("mul scalar", x, func(v float32) float32 { return v * scalar })
}

// AddScalar adds scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unary("add scalar", x, func(v float32) float32 { return v + scalar })
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Log computes ln(x) element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, func(v float32) float32 { return float32(math.Log(float64(v))) })
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float32) float32 { return max(v, 0) })
}

// Sigmoid computes 1/(1+e^-x) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, func(v float32) float32 {
		return float32(1 / (1 + math.Exp(-float64(v))))
	})
}

func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(float32) float32) *tensor.RawTensor {
	requireFloat32(op, x)
	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, cpu.device)
	if err != nil {
		panic(err) // x already has a valid shape
	}
	out, in := result.AsFloat32(), x.AsFloat32()
	for i, v := range in {
		out[i] = f(v)
	}
	return result
}
