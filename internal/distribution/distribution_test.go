package distribution

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/anp/internal/backend/cpu"
	"github.com/born-ml/anp/internal/tensor"
)

type testTensor = tensor.Tensor[float32, *cpu.CPUBackend]

func fromSlice(t *testing.T, data []float32, shape ...int) *testTensor {
	t.Helper()
	out, err := tensor.FromSlice(data, tensor.Shape(shape), cpu.New())
	require.NoError(t, err)
	return out
}

func ids(t *testing.T, data []int64, shape ...int) *tensor.Tensor[int64, *cpu.CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, tensor.Shape(shape), cpu.New())
	require.NoError(t, err)
	return out
}

func newNormal(t *testing.T, loc, scale []float32, shape ...int) *Normal[*cpu.CPUBackend] {
	t.Helper()
	n, err := NewNormal(fromSlice(t, loc, shape...), fromSlice(t, scale, shape...))
	require.NoError(t, err)
	return n
}

func TestNormal_InvalidParameters(t *testing.T) {
	_, err := NewNormal(fromSlice(t, []float32{0, 0}, 2), fromSlice(t, []float32{1, 0}, 2))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewNormal(fromSlice(t, []float32{0, 0}, 2), fromSlice(t, []float32{1}, 1))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestNormal_LogProbAndEntropy(t *testing.T) {
	n := newNormal(t, []float32{0, 1}, []float32{1, 2}, 2)
	assert.Equal(t, tensor.Shape{2}, n.BatchShape())

	lp, err := n.LogProb(fromSlice(t, []float32{0, 3}, 2))
	require.NoError(t, err)
	assert.InDelta(t, -0.5*math.Log(2*math.Pi), lp.Data()[0], 1e-6)
	assert.InDelta(t, -0.5*math.Log(2*math.Pi)-math.Log(2)-0.5, lp.Data()[1], 1e-6)

	h, err := n.Entropy()
	require.NoError(t, err)
	assert.InDelta(t, 0.5*math.Log(2*math.Pi*math.E), h.Data()[0], 1e-6)
	assert.InDelta(t, 0.5*math.Log(2*math.Pi*math.E)+math.Log(2), h.Data()[1], 1e-6)

	_, err = n.LogProb(fromSlice(t, []float32{0}, 1))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestNormal_RSampleReproducible(t *testing.T) {
	n := newNormal(t, []float32{0, 10, -10}, []float32{1, 0.5, 2}, 3)

	a, err := n.RSample(rand.New(rand.NewSource(7))) //nolint:gosec // deterministic test
	require.NoError(t, err)
	b, err := n.RSample(rand.New(rand.NewSource(7))) //nolint:gosec // deterministic test
	require.NoError(t, err)

	assert.Equal(t, a.Data(), b.Data())
	assert.Equal(t, tensor.Shape{3}, a.Shape())
	assert.InDelta(t, 10, a.Data()[1], 5)
}

func TestCategorical_LogProb(t *testing.T) {
	logits := fromSlice(t, []float32{
		0, 0, 0, 0,
		1, 2, 3, 4,
	}, 1, 2, 4)
	c, err := NewCategorical(logits)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2}, c.BatchShape())
	assert.Equal(t, 4, c.NumClasses())

	lp, err := c.LogProb(ids(t, []int64{2, 3}, 1, 2))
	require.NoError(t, err)

	norm := math.Log(math.Exp(1) + math.Exp(2) + math.Exp(3) + math.Exp(4))
	assert.InDelta(t, -math.Log(4), lp.Data()[0], 1e-6)
	assert.InDelta(t, 4-norm, lp.Data()[1], 1e-6)
}

func TestCategorical_LogProbShapeMismatch(t *testing.T) {
	c, err := NewCategorical(tensor.Zeros[float32](tensor.Shape{4, 5, 10}, cpu.New()))
	require.NoError(t, err)

	_, err = c.LogProb(ids(t, make([]int64, 4*4), 4, 4))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestCategorical_LogProbOutOfSupport(t *testing.T) {
	c, err := NewCategorical(tensor.Zeros[float32](tensor.Shape{1, 3}, cpu.New()))
	require.NoError(t, err)

	_, err = c.LogProb(ids(t, []int64{3}, 1))
	assert.ErrorIs(t, err, ErrOutOfSupport)
}

func TestCategorical_Entropy(t *testing.T) {
	c, err := NewCategorical(tensor.Zeros[float32](tensor.Shape{2, 8}, cpu.New()))
	require.NoError(t, err)

	h, err := c.Entropy()
	require.NoError(t, err)
	for _, v := range h.Data() {
		assert.InDelta(t, math.Log(8), v, 1e-6)
	}
}

func TestKL_NormalSelfIsZero(t *testing.T) {
	q := newNormal(t, []float32{0.3, -1.2, 5}, []float32{0.7, 1.1, 0.1}, 3)

	kl, err := KL[*cpu.CPUBackend](q, q)
	require.NoError(t, err)
	for _, v := range kl.Data() {
		assert.Equal(t, float32(0), v)
	}
}

func TestKL_NormalClosedForm(t *testing.T) {
	p := newNormal(t, []float32{1}, []float32{1}, 1)
	q := newNormal(t, []float32{0}, []float32{2}, 1)

	pq, err := KL[*cpu.CPUBackend](p, q)
	require.NoError(t, err)
	qp, err := KL[*cpu.CPUBackend](q, p)
	require.NoError(t, err)

	// log(σq/σp) + (σp² + (μp−μq)²)/(2σq²) − 1/2
	assert.InDelta(t, math.Log(2)+2.0/8.0-0.5, pq.Data()[0], 1e-6)
	assert.InDelta(t, -math.Log(2)+5.0/2.0-0.5, qp.Data()[0], 1e-6)
	assert.NotEqual(t, pq.Data()[0], qp.Data()[0])
}

func TestKL_Categorical(t *testing.T) {
	p, err := NewCategorical(fromSlice(t, []float32{0, 0}, 1, 2))
	require.NoError(t, err)
	q, err := NewCategorical(fromSlice(t, []float32{0, float32(math.Log(3))}, 1, 2))
	require.NoError(t, err)

	kl, err := KL[*cpu.CPUBackend](p, q)
	require.NoError(t, err)
	// p = (1/2, 1/2), q = (1/4, 3/4)
	want := 0.5*math.Log(0.5/0.25) + 0.5*math.Log(0.5/0.75)
	assert.InDelta(t, want, kl.Data()[0], 1e-6)

	self, err := KL[*cpu.CPUBackend](p, p)
	require.NoError(t, err)
	assert.InDelta(t, 0, self.Data()[0], 1e-12)
}

func TestKL_UnsupportedPair(t *testing.T) {
	n := newNormal(t, []float32{0}, []float32{1}, 1)
	c, err := NewCategorical(fromSlice(t, []float32{0, 0}, 1, 2))
	require.NoError(t, err)

	_, err = KL[*cpu.CPUBackend](n, c)
	assert.ErrorIs(t, err, ErrNotImplemented)
}
