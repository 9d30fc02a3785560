// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package np_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/anp/backend/cpu"
	"github.com/born-ml/anp/np"
	"github.com/born-ml/anp/tensor"
)

type sink map[string]float64

func (s sink) LogScalar(name string, value float64, _ int, _ int) { s[name] = value }

func TestPublicAPI(t *testing.T) {
	backend := cpu.New()
	model, err := np.NewReferenceModel(np.ReferenceConfig{
		Encoder:   np.EncoderConfig{Kind: np.KindAttention, XDim: 1, YDim: 4, HDim: 8, RSDim: np.RSDim{4, 2}},
		VocabSize: 6,
		LatentDim: 2,
	}, rand.New(rand.NewSource(7)), backend)
	require.NoError(t, err)

	tokens, err := tensor.FromSlice([]int64{0, 1, 2, 3, 4, 5, 5, 4, 3, 2, 1, 0}, tensor.Shape{2, 6}, backend)
	require.NoError(t, err)
	sample := &np.Sample[*cpu.Backend]{
		NetInput:   np.NetInput[*cpu.Backend]{SrcTokens: tokens},
		Target:     tokens,
		NTokens:    12,
		NSentences: 2,
	}

	loss, sampleSize, record, err := np.NewCriterion[*cpu.Backend]().Forward(model, sample)
	require.NoError(t, err)
	assert.Equal(t, 2, sampleSize)
	assert.False(t, math.IsNaN(loss))
	assert.InDelta(t, loss, record.Get(np.KeyLoss), 1e-9)

	got := sink{}
	np.ReduceMetrics([]np.Record{record}, got)
	assert.InDelta(t, loss/2/math.Ln2, got[np.KeyLoss], 1e-9)
}

func TestPublicUnsupportedEncoder(t *testing.T) {
	_, err := np.NewEncoder(np.EncoderConfig{Kind: np.KindAttentive, XDim: 1, YDim: 1, HDim: 1, RSDim: np.RSDim{1}},
		nil, cpu.New())
	require.ErrorIs(t, err, np.ErrUnsupportedEncoder)
}
