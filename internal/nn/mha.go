package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/anp/internal/tensor"
)

// MultiHeadAttention implements the multi-head attention mechanism.
//
// Architecture:
//
//	MHA(Q, K, V) = Concat(head_1, ..., head_h) * W_O
//	head_i = SDPA(Q*W_Q_i, K*W_K_i, V*W_V_i)
//
// Example:
//
//	mha, err := nn.NewMultiHeadAttention(32, 2, rng, backend) // 32 dim, 2 heads
//	output, err := mha.Forward(x, x, x)                       // Self-attention
type MultiHeadAttention[B tensor.Backend] struct {
	WQ       *Linear[B] // Query projection [embed_dim, embed_dim]
	WK       *Linear[B] // Key projection [embed_dim, embed_dim]
	WV       *Linear[B] // Value projection [embed_dim, embed_dim]
	WO       *Linear[B] // Output projection [embed_dim, embed_dim]
	NumHeads int
	HeadDim  int
	EmbedDim int
}

// NewMultiHeadAttention creates a new multi-head attention module.
//
// Returns an error wrapping ErrConfiguration when embedDim is not a positive
// multiple of numHeads.
func NewMultiHeadAttention[B tensor.Backend](
	embedDim, numHeads int,
	rng *rand.Rand,
	backend B,
) (*MultiHeadAttention[B], error) {
	if numHeads <= 0 || embedDim <= 0 {
		return nil, fmt.Errorf("%w: multi-head attention needs positive embed_dim and num_heads, got %d and %d",
			ErrConfiguration, embedDim, numHeads)
	}
	if embedDim%numHeads != 0 {
		return nil, fmt.Errorf("%w: embed_dim (%d) must be divisible by num_heads (%d)",
			ErrConfiguration, embedDim, numHeads)
	}

	return &MultiHeadAttention[B]{
		WQ:       NewLinear(embedDim, embedDim, rng, backend),
		WK:       NewLinear(embedDim, embedDim, rng, backend),
		WV:       NewLinear(embedDim, embedDim, rng, backend),
		WO:       NewLinear(embedDim, embedDim, rng, backend),
		NumHeads: numHeads,
		HeadDim:  embedDim / numHeads,
		EmbedDim: embedDim,
	}, nil
}

// Forward computes multi-head attention.
//
// Args:
//   - query: Query tensor [batch, seq_q, embed_dim]
//   - key: Key tensor [batch, seq_k, embed_dim]
//   - value: Value tensor [batch, seq_k, embed_dim]
//
// Returns:
//   - output: [batch, seq_q, embed_dim]
func (m *MultiHeadAttention[B]) Forward(query, key, value *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	out, _, err := m.ForwardWithWeights(query, key, value)
	return out, err
}

// ForwardWithWeights computes multi-head attention and also returns the
// attention weights [batch, num_heads, seq_q, seq_k].
func (m *MultiHeadAttention[B]) ForwardWithWeights(
	query, key, value *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B], error) {
	if err := m.validate(query, key, value); err != nil {
		return nil, nil, err
	}
	batch := query.Shape()[0]
	seqQ := query.Shape()[1]
	seqK := key.Shape()[1]

	q, err := m.splitHeads(query, m.WQ, batch, seqQ)
	if err != nil {
		return nil, nil, err
	}
	k, err := m.splitHeads(key, m.WK, batch, seqK)
	if err != nil {
		return nil, nil, err
	}
	v, err := m.splitHeads(value, m.WV, batch, seqK)
	if err != nil {
		return nil, nil, err
	}

	attnOut, weights, err := ScaledDotProductAttention(q, k, v, 0)
	if err != nil {
		return nil, nil, err
	}

	// [batch, heads, seq_q, head_dim] -> [batch, seq_q, embed_dim]
	attnOut, err = attnOut.Transpose(0, 2, 1, 3)
	if err != nil {
		return nil, nil, err
	}
	attnOut, err = attnOut.Reshape(batch, seqQ, m.EmbedDim)
	if err != nil {
		return nil, nil, err
	}

	output, err := m.WO.Forward(attnOut)
	if err != nil {
		return nil, nil, err
	}
	return output, weights, nil
}

// Parameters returns the projection weights in Q, K, V, O order.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.WO.Parameters()...)
	return params
}

// splitHeads projects [batch, seq, embed_dim] and rearranges the result to
// [batch, num_heads, seq, head_dim].
func (m *MultiHeadAttention[B]) splitHeads(
	input *tensor.Tensor[float32, B],
	linear *Linear[B],
	batch, seq int,
) (*tensor.Tensor[float32, B], error) {
	projected, err := linear.Forward(input)
	if err != nil {
		return nil, err
	}
	projected, err = projected.Reshape(batch, seq, m.NumHeads, m.HeadDim)
	if err != nil {
		return nil, err
	}
	return projected.Transpose(0, 2, 1, 3)
}

func (m *MultiHeadAttention[B]) validate(query, key, value *tensor.Tensor[float32, B]) error {
	want := tensor.Shape{-1, -1, m.EmbedDim}
	for _, in := range []struct {
		name string
		t    *tensor.Tensor[float32, B]
	}{{"query", query}, {"key", key}, {"value", value}} {
		s := in.t.Shape()
		if len(s) != 3 || s[2] != m.EmbedDim {
			return tensor.NewShapeError("multi-head attention", s, want, "%s must be [batch, seq, %d]", in.name, m.EmbedDim)
		}
	}
	if query.Shape()[0] != key.Shape()[0] || key.Shape()[0] != value.Shape()[0] {
		return tensor.NewShapeMismatch("multi-head attention", key.Shape(), query.Shape(), "batch sizes differ")
	}
	if key.Shape()[1] != value.Shape()[1] {
		return tensor.NewShapeMismatch("multi-head attention", value.Shape(), key.Shape(), "key and value must have same seq length")
	}
	return nil
}
