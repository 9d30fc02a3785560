package distribution

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/anp/internal/tensor"
)

// Normal is a batch of independent univariate Gaussians N(loc, scale²).
//
// Example:
//
//	q, err := distribution.NewNormal(loc, scale)
//	z, err := q.RSample(rng)
type Normal[B tensor.Backend] struct {
	loc   *tensor.Tensor[float32, B]
	scale *tensor.Tensor[float32, B]
}

// NewNormal creates a Normal from loc and scale tensors of equal shape.
// Every scale must be strictly positive.
func NewNormal[B tensor.Backend](loc, scale *tensor.Tensor[float32, B]) (*Normal[B], error) {
	if !loc.Shape().Equal(scale.Shape()) {
		return nil, tensor.NewShapeMismatch("normal", scale.Shape(), loc.Shape(), "loc and scale must have the same shape")
	}
	for i, s := range scale.Data() {
		if !(s > 0) || math.IsInf(float64(s), 0) {
			return nil, fmt.Errorf("%w: normal scale[%d] = %v, must be positive and finite", ErrInvalidParameter, i, s)
		}
	}
	return &Normal[B]{loc: loc, scale: scale}, nil
}

// BatchShape returns the shape of loc.
func (n *Normal[B]) BatchShape() tensor.Shape {
	return n.loc.Shape()
}

// Mean returns loc.
func (n *Normal[B]) Mean() *tensor.Tensor[float32, B] {
	return n.loc
}

// Stddev returns scale.
func (n *Normal[B]) Stddev() *tensor.Tensor[float32, B] {
	return n.scale
}

// LogProb returns the elementwise log-density of value.
func (n *Normal[B]) LogProb(value *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if !value.Shape().Equal(n.loc.Shape()) {
		return nil, tensor.NewShapeMismatch("normal log prob", value.Shape(), n.loc.Shape(), "value must match batch shape")
	}
	loc, scale, x := n.loc.Data(), n.scale.Data(), value.Data()
	out := make([]float64, len(x))
	for i := range x {
		out[i] = n.at(loc, scale, i).LogProb(float64(x[i]))
	}
	return fromFloat64(out, n.loc.Shape(), n.loc.Backend()), nil
}

// Entropy returns 0.5·log(2πe·scale²) for every element.
func (n *Normal[B]) Entropy() (*tensor.Tensor[float32, B], error) {
	loc, scale := n.loc.Data(), n.scale.Data()
	out := make([]float64, len(loc))
	for i := range loc {
		out[i] = n.at(loc, scale, i).Entropy()
	}
	return fromFloat64(out, n.loc.Shape(), n.loc.Backend()), nil
}

// RSample draws loc + scale·ε with ε ~ N(0, 1) from rng.
func (n *Normal[B]) RSample(rng *rand.Rand) (*tensor.Tensor[float32, B], error) {
	eps := tensor.Randn(n.loc.Shape(), rng, n.loc.Backend())
	noise, err := eps.Mul(n.scale)
	if err != nil {
		return nil, err
	}
	return noise.Add(n.loc)
}

func (n *Normal[B]) at(loc, scale []float32, i int) distuv.Normal {
	return distuv.Normal{Mu: float64(loc[i]), Sigma: float64(scale[i])}
}
