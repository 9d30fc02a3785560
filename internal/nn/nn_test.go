package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/anp/internal/backend/cpu"
	"github.com/born-ml/anp/internal/tensor"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test weights
}

func fromSlice(t *testing.T, backend *cpu.CPUBackend, data []float32, shape ...int) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, tensor.Shape(shape), backend)
	require.NoError(t, err)
	return out
}

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(2, 3, newRNG(), backend)

	// W = [[1, 0], [0, 1], [1, 1]], b = [0.5, -0.5, 0]
	copy(layer.Weight().Tensor().Data(), []float32{1, 0, 0, 1, 1, 1})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5, 0})

	x := fromSlice(t, backend, []float32{1, 2, 3, 4}, 2, 2)
	y, err := layer.Forward(x)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 3}, y.Shape())
	assert.InDeltaSlice(t, []float32{1.5, 1.5, 3, 3.5, 3.5, 7}, y.Data(), 1e-6)
}

func TestLinear_ForwardKeepsLeadingAxes(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(3, 8, newRNG(), backend)

	x := tensor.Randn(tensor.Shape{4, 5, 3}, newRNG(), backend)
	y, err := layer.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5, 8}, y.Shape())

	// Row (1, 2) must equal the layer applied to that row alone.
	row, err := x.Narrow(0, 1, 1)
	require.NoError(t, err)
	row, err = row.Narrow(1, 2, 1)
	require.NoError(t, err)
	single, err := layer.Forward(row)
	require.NoError(t, err)
	for j := 0; j < 8; j++ {
		assert.InDelta(t, y.At(1, 2, j), single.At(0, 0, j), 1e-5)
	}
}

func TestLinear_WrongInputWidth(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(3, 8, newRNG(), backend)

	_, err := layer.Forward(tensor.Zeros[float32](tensor.Shape{4, 2}, backend))
	assert.ErrorIs(t, err, tensor.ErrShape)

	var shapeErr *tensor.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "linear", shapeErr.Op)
}

func TestLinear_Parameters(t *testing.T) {
	layer := NewLinear(3, 8, newRNG(), cpu.New())
	params := layer.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "weight", params[0].Name())
	assert.Equal(t, "bias", params[1].Name())
	assert.Equal(t, 3*8+8, CountParameters(params))
}

func TestXavier_Reproducible(t *testing.T) {
	backend := cpu.New()
	a := Xavier(4, 4, tensor.Shape{4, 4}, newRNG(), backend)
	b := Xavier(4, 4, tensor.Shape{4, 4}, newRNG(), backend)
	assert.Equal(t, a.Data(), b.Data())

	for _, v := range a.Data() {
		assert.LessOrEqual(t, v, float32(1.0))
		assert.GreaterOrEqual(t, v, float32(-1.0))
	}
}

func TestActivations(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{-1, 0, 2}, 3)

	relu, err := NewReLU[*cpu.CPUBackend]().Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 2}, relu.Data())

	sig, err := NewSigmoid[*cpu.CPUBackend]().Forward(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sig.Data()[1], 1e-6)
	assert.InDelta(t, 0.880797, sig.Data()[2], 1e-5)
}

func TestSequential_Forward(t *testing.T) {
	backend := cpu.New()
	mlp := NewSequential[*cpu.CPUBackend](
		NewLinear(3, 16, newRNG(), backend),
		NewReLU[*cpu.CPUBackend](),
		NewLinear(16, 4, newRNG(), backend),
	)
	assert.Equal(t, 3, mlp.Len())
	assert.Len(t, mlp.Parameters(), 4)

	m, ok := mlp.Module(1)
	require.True(t, ok)
	assert.IsType(t, &ReLU[*cpu.CPUBackend]{}, m)
	_, ok = mlp.Module(3)
	assert.False(t, ok)

	y, err := mlp.Forward(tensor.Randn(tensor.Shape{2, 5, 3}, newRNG(), backend))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 5, 4}, y.Shape())
}

func TestSequential_PropagatesError(t *testing.T) {
	backend := cpu.New()
	mlp := NewSequential[*cpu.CPUBackend](
		NewLinear(3, 16, newRNG(), backend),
		NewLinear(8, 4, newRNG(), backend),
	)

	_, err := mlp.Forward(tensor.Zeros[float32](tensor.Shape{2, 3}, backend))
	require.Error(t, err)
	assert.ErrorIs(t, err, tensor.ErrShape)
	assert.Contains(t, err.Error(), "module 1")
}

func TestReshapeLast(t *testing.T) {
	backend := cpu.New()
	data := make([]float32, 4*5*32)
	for i := range data {
		data[i] = float32(i)
	}
	x := fromSlice(t, backend, data, 4, 5, 32)

	shaper := NewReshapeLast[*cpu.CPUBackend](16, 2)
	assert.Equal(t, tensor.Shape{16, 2}, shaper.Shape())

	y, err := shaper.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5, 16, 2}, y.Shape())
	assert.Equal(t, data, y.Data())
	assert.Equal(t, x.At(3, 4, 31), y.At(3, 4, 15, 1))

	// Flattening the trailing axes restores the input.
	back, err := y.Reshape(4, 5, 32)
	require.NoError(t, err)
	assert.Equal(t, x.Data(), back.Data())
}

func TestReshapeLast_ScalarTarget(t *testing.T) {
	backend := cpu.New()
	y, err := NewReshapeLast[*cpu.CPUBackend](8).Forward(tensor.Zeros[float32](tensor.Shape{4, 5, 8}, backend))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5, 8}, y.Shape())
}

func TestReshapeLast_ProductMismatch(t *testing.T) {
	backend := cpu.New()
	_, err := NewReshapeLast[*cpu.CPUBackend](16, 2).Forward(tensor.Zeros[float32](tensor.Shape{4, 5, 30}, backend))
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestScaledDotProductAttention_UniformKeys(t *testing.T) {
	backend := cpu.New()

	// Identical keys give uniform weights, so the output is the mean value.
	q := tensor.Randn(tensor.Shape{1, 1, 2, 4}, newRNG(), backend)
	k := tensor.Ones[float32](tensor.Shape{1, 1, 3, 4}, backend)
	v := fromSlice(t, backend, []float32{
		1, 1, 1, 1,
		2, 2, 2, 2,
		3, 3, 3, 3,
	}, 1, 1, 3, 4)

	out, weights, err := ScaledDotProductAttention(q, k, v, 0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 2, 4}, out.Shape())
	assert.Equal(t, tensor.Shape{1, 1, 2, 3}, weights.Shape())
	for _, w := range weights.Data() {
		assert.InDelta(t, 1.0/3.0, w, 1e-6)
	}
	for _, o := range out.Data() {
		assert.InDelta(t, 2.0, o, 1e-5)
	}
}

func TestScaledDotProductAttention_BadShapes(t *testing.T) {
	backend := cpu.New()
	q := tensor.Zeros[float32](tensor.Shape{1, 1, 2, 4}, backend)
	k := tensor.Zeros[float32](tensor.Shape{1, 1, 3, 5}, backend)

	_, _, err := ScaledDotProductAttention(q, k, k, 0)
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestMultiHeadAttention_SelfAttention(t *testing.T) {
	backend := cpu.New()
	mha, err := NewMultiHeadAttention(32, 2, newRNG(), backend)
	require.NoError(t, err)
	assert.Equal(t, 16, mha.HeadDim)
	assert.Len(t, mha.Parameters(), 8)

	x := tensor.Randn(tensor.Shape{4, 5, 32}, newRNG(), backend)
	out, weights, err := mha.ForwardWithWeights(x, x, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5, 32}, out.Shape())
	assert.Equal(t, tensor.Shape{4, 2, 5, 5}, weights.Shape())
}

func TestMultiHeadAttention_CrossAttention(t *testing.T) {
	backend := cpu.New()
	mha, err := NewMultiHeadAttention(8, 4, newRNG(), backend)
	require.NoError(t, err)

	q := tensor.Randn(tensor.Shape{2, 3, 8}, newRNG(), backend)
	kv := tensor.Randn(tensor.Shape{2, 7, 8}, newRNG(), backend)
	out, err := mha.Forward(q, kv, kv)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 8}, out.Shape())
}

func TestMultiHeadAttention_InvalidHeads(t *testing.T) {
	_, err := NewMultiHeadAttention(30, 4, newRNG(), cpu.New())
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewMultiHeadAttention(8, 0, newRNG(), cpu.New())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestMultiHeadAttention_WrongEmbedDim(t *testing.T) {
	backend := cpu.New()
	mha, err := NewMultiHeadAttention(8, 2, newRNG(), backend)
	require.NoError(t, err)

	x := tensor.Zeros[float32](tensor.Shape{2, 3, 6}, backend)
	_, err = mha.Forward(x, x, x)
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestEmbedding_Forward(t *testing.T) {
	backend := cpu.New()
	embed := NewEmbedding(10, 4, newRNG(), backend)

	indices, err := tensor.FromSlice([]int64{0, 3, 9, 3}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out, err := embed.Forward(indices)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 4}, out.Shape())

	weight := embed.Weight.Tensor()
	for j := 0; j < 4; j++ {
		assert.Equal(t, weight.At(3, j), out.At(0, 1, j))
		assert.Equal(t, out.At(0, 1, j), out.At(1, 1, j))
		assert.Equal(t, weight.At(9, j), out.At(1, 0, j))
	}
}

func TestEmbedding_OutOfRange(t *testing.T) {
	backend := cpu.New()
	embed := NewEmbedding(10, 4, newRNG(), backend)

	indices, err := tensor.FromSlice([]int64{10}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	_, err = embed.Forward(indices)
	assert.Error(t, err)
}
