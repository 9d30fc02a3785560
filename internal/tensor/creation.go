package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, inferDataType[T](), b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return New[T, B](raw, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Randn creates a float32 tensor with values drawn from N(0, 1).
//
// The generator is supplied by the caller so that model construction and
// tests are reproducible. A nil rng uses the package-level source.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		if rng != nil {
			data[i] = float32(rng.NormFloat64())
		} else {
			data[i] = float32(rand.NormFloat64()) //nolint:gosec // G404: ML uses math/rand intentionally
		}
	}
	return t
}

// Arange creates a 1D int64 tensor with values [start, end).
func Arange[B Backend](start, end int64, b B) *Tensor[int64, B] {
	t := Zeros[int64, B](Shape{int(end - start)}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + int64(i)
	}
	return t
}
