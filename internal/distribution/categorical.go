package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/anp/internal/tensor"
)

// Categorical is a batch of categorical distributions parameterized by
// unnormalized logits over the last axis.
//
// Logits of shape [batch, n, vocab] describe a [batch, n] batch of
// distributions over vocab classes.
type Categorical[B tensor.Backend] struct {
	logits *tensor.Tensor[float32, B]
}

// NewCategorical creates a Categorical from logits [..., num_classes].
func NewCategorical[B tensor.Backend](logits *tensor.Tensor[float32, B]) (*Categorical[B], error) {
	shape := logits.Shape()
	if len(shape) == 0 || shape[len(shape)-1] == 0 {
		return nil, tensor.NewShapeError("categorical", shape, nil, "logits need a non-empty class axis")
	}
	return &Categorical[B]{logits: logits}, nil
}

// Logits returns the unnormalized logits.
func (c *Categorical[B]) Logits() *tensor.Tensor[float32, B] {
	return c.logits
}

// NumClasses returns the size of the class axis.
func (c *Categorical[B]) NumClasses() int {
	shape := c.logits.Shape()
	return shape[len(shape)-1]
}

// BatchShape returns the logits shape without the class axis.
func (c *Categorical[B]) BatchShape() tensor.Shape {
	shape := c.logits.Shape()
	return shape[:len(shape)-1].Clone()
}

// LogProb returns log p(value) for every distribution in the batch.
//
// value must have exactly BatchShape(); a different shape is reported as
// tensor.ErrShapeMismatch. Class ids outside [0, NumClasses) return
// ErrOutOfSupport.
func (c *Categorical[B]) LogProb(value *tensor.Tensor[int64, B]) (*tensor.Tensor[float32, B], error) {
	batchShape := c.BatchShape()
	if !value.Shape().Equal(batchShape) {
		return nil, tensor.NewShapeMismatch("categorical log prob", value.Shape(), batchShape,
			"%d targets for %d distributions", value.NumElements(), batchShape.NumElements())
	}

	k := c.NumClasses()
	ids := value.Data()
	out := make([]float64, len(ids))
	for i, id := range ids {
		if id < 0 || int(id) >= k {
			return nil, fmt.Errorf("%w: class %d at position %d, num classes %d", ErrOutOfSupport, id, i, k)
		}
		row := c.logRow(i)
		out[i] = row[id] - floats.LogSumExp(row)
	}
	return fromFloat64(out, batchShape, c.logits.Backend()), nil
}

// Entropy returns -Σ p·log p for every distribution in the batch.
func (c *Categorical[B]) Entropy() (*tensor.Tensor[float32, B], error) {
	batchShape := c.BatchShape()
	out := make([]float64, batchShape.NumElements())
	for i := range out {
		logp := c.logNormalized(i)
		h := 0.0
		for _, lp := range logp {
			h -= math.Exp(lp) * lp
		}
		out[i] = h
	}
	return fromFloat64(out, batchShape, c.logits.Backend()), nil
}

// logRow returns row i of the logits in float64.
func (c *Categorical[B]) logRow(i int) []float64 {
	k := c.NumClasses()
	src := c.logits.Data()[i*k : (i+1)*k]
	row := make([]float64, k)
	for j, v := range src {
		row[j] = float64(v)
	}
	return row
}

// logNormalized returns the log-probabilities of row i.
func (c *Categorical[B]) logNormalized(i int) []float64 {
	row := c.logRow(i)
	floats.AddConst(-floats.LogSumExp(row), row)
	return row
}
