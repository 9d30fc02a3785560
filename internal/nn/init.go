package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/anp/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// rng makes initialization reproducible; nil uses the package-level source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		var u float64
		if rng != nil {
			u = rng.Float64()
		} else {
			u = rand.Float64() //nolint:gosec // Using math/rand for weight initialization (not security-critical)
		}
		data[i] = float32((u*2.0 - 1.0) * bound)
	}

	return t
}
