// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/anp/backend/cpu"
	"github.com/born-ml/anp/nn"
	"github.com/born-ml/anp/tensor"
)

func TestPublicSequential(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))

	model := nn.NewSequential[*cpu.Backend](
		nn.NewLinear(3, 8, rng, backend),
		nn.NewReLU[*cpu.Backend](),
		nn.NewLinear(8, 6, rng, backend),
		nn.NewSigmoid[*cpu.Backend](),
		nn.NewReshapeLast[*cpu.Backend](3, 2),
	)
	assert.Equal(t, 3*8+8+8*6+6, nn.CountParameters(model.Parameters()))

	out, err := model.Forward(tensor.Randn(tensor.Shape{2, 5, 3}, rng, backend))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 5, 3, 2}, out.Shape())
	for _, v := range out.Data() {
		assert.True(t, v >= 0 && v <= 1, "sigmoid output %v out of range", v)
	}

	_, err = model.Forward(tensor.Randn(tensor.Shape{2, 4}, rng, backend))
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestPublicEmbedding(t *testing.T) {
	backend := cpu.New()
	emb := nn.NewEmbedding(5, 3, rand.New(rand.NewSource(1)), backend)
	assert.Equal(t, 15, nn.CountParameters(emb.Parameters()))

	ids, err := tensor.FromSlice([]int64{0, 4, 4, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	out, err := emb.Forward(ids)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 3}, out.Shape())

	data := out.Data()
	assert.Equal(t, data[3:6], data[6:9], "same id must embed identically")
}

func TestPublicMultiHeadAttention(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(5))

	mha, err := nn.NewMultiHeadAttention(8, 2, rng, backend)
	require.NoError(t, err)
	assert.Equal(t, 4*(8*8+8), nn.CountParameters(mha.Parameters()))

	x := tensor.Randn(tensor.Shape{1, 4, 8}, rng, backend)
	out, err := mha.Forward(x, x, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 4, 8}, out.Shape())

	for _, tt := range []struct {
		name             string
		embedDim, nHeads int
	}{
		{name: "indivisible", embedDim: 6, nHeads: 4},
		{name: "zero heads", embedDim: 8, nHeads: 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nn.NewMultiHeadAttention(tt.embedDim, tt.nHeads, rng, backend)
			assert.ErrorIs(t, err, nn.ErrConfiguration)
		})
	}
}

func TestPublicScaledDotProductAttention(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(9))
	q := tensor.Randn(tensor.Shape{1, 2, 3, 4}, rng, backend)
	k := tensor.Randn(tensor.Shape{1, 2, 5, 4}, rng, backend)
	v := tensor.Randn(tensor.Shape{1, 2, 5, 6}, rng, backend)

	out, weights, err := nn.ScaledDotProductAttention(q, k, v, 0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 3, 6}, out.Shape())
	require.Equal(t, tensor.Shape{1, 2, 3, 5}, weights.Shape())

	w := weights.Data()
	for row := 0; row < len(w); row += 5 {
		var sum float64
		for _, p := range w[row : row+5] {
			sum += float64(p)
		}
		assert.InDelta(t, 1, sum, 1e-5)
		assert.False(t, math.IsNaN(sum))
	}

	_, _, err = nn.ScaledDotProductAttention(tensor.Randn(tensor.Shape{2, 3, 4}, rng, backend), k, v, 0)
	assert.ErrorIs(t, err, tensor.ErrShape)
}
