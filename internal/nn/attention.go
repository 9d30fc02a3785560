package nn

import (
	"math"

	"github.com/born-ml/anp/internal/tensor"
)

// ScaledDotProductAttention computes attention with the scaled dot-product mechanism:
//
//	Attention(Q, K, V) = softmax(QK^T / sqrt(d_k)) * V
//
// Parameters:
//   - query: Query tensor [batch, heads, seq_q, head_dim]
//   - key: Key tensor [batch, heads, seq_k, head_dim]
//   - value: Value tensor [batch, heads, seq_k, head_dim]
//   - scale: Scaling factor (0 for auto-compute as 1/sqrt(head_dim))
//
// Returns:
//   - output: Attended values [batch, heads, seq_q, head_dim]
//   - weights: Attention weights [batch, heads, seq_q, seq_k]
//
// No mask is applied: every query attends to every key.
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B], error) {
	if err := validateAttentionInputs(query, key, value); err != nil {
		return nil, nil, err
	}

	if scale == 0 {
		scale = float32(1.0 / math.Sqrt(float64(query.Shape()[3])))
	}

	// K^T: [batch, heads, head_dim, seq_k]
	kT, err := key.Transpose(0, 1, 3, 2)
	if err != nil {
		return nil, nil, err
	}
	scores, err := query.BatchMatMul(kT)
	if err != nil {
		return nil, nil, err
	}

	weights, err := scores.MulScalar(scale).Softmax(-1)
	if err != nil {
		return nil, nil, err
	}

	output, err := weights.BatchMatMul(value)
	if err != nil {
		return nil, nil, err
	}
	return output, weights, nil
}

// validateAttentionInputs validates the input tensors for attention.
func validateAttentionInputs[B tensor.Backend](query, key, value *tensor.Tensor[float32, B]) error {
	q, k, v := query.Shape(), key.Shape(), value.Shape()
	if len(q) != 4 || len(k) != 4 || len(v) != 4 {
		return tensor.NewShapeError("attention", q, nil, "query, key and value must be 4D [batch, heads, seq, head_dim]")
	}
	if q[3] != k[3] {
		return tensor.NewShapeError("attention", k, q, "query and key must have same head_dim")
	}
	if k[2] != v[2] {
		return tensor.NewShapeError("attention", v, k, "key and value must have same seq length")
	}
	return nil
}
