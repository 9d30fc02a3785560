package np

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

// AttentionEncoder embeds every (x_i, y_i) pair with a point-wise MLP and
// then applies multi-head self-attention across the points of each batch
// element, so every output depends on every input point.
//
// rs_dim must be {parameter_dim, num_heads}. The attention embedding is
// parameter_dim·num_heads wide with num_heads heads.
type AttentionEncoder[B tensor.Backend] struct {
	cfg    EncoderConfig
	mlp    *nn.Sequential[B]
	attn   *nn.MultiHeadAttention[B]
	shaper *nn.ReshapeLast[B]
}

// NewAttentionEncoder creates an AttentionEncoder.
// It fails with nn.ErrConfiguration when rs_dim is not a pair or when
// parameter_dim is not divisible by num_heads.
func NewAttentionEncoder[B tensor.Backend](cfg EncoderConfig, rng *rand.Rand, backend B) (*AttentionEncoder[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind != KindAttention {
		return nil, fmt.Errorf("%w: attention encoder built with kind %s", nn.ErrConfiguration, cfg.Kind)
	}
	if err := cfg.ValidateKind(); err != nil {
		return nil, err
	}

	embedDim, numHeads := cfg.RSDim.Size(), cfg.RSDim[1]
	attn, err := nn.NewMultiHeadAttention(embedDim, numHeads, rng, backend)
	if err != nil {
		return nil, err
	}
	return &AttentionEncoder[B]{
		cfg:    cfg,
		mlp:    newPointMLP(cfg.XDim+cfg.YDim, cfg.HDim, embedDim, rng, backend),
		attn:   attn,
		shaper: nn.NewReshapeLast[B](cfg.RSDim...),
	}, nil
}

// Encode maps x [batch, n, x_dim] and y [batch, n, y_dim] to
// [batch, n, parameter_dim, num_heads].
func (e *AttentionEncoder[B]) Encode(x, y *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	input, err := concatPairs(e.cfg, x, y)
	if err != nil {
		return nil, err
	}
	embeddings, err := e.mlp.Forward(input)
	if err != nil {
		return nil, err
	}
	attended, err := e.attn.Forward(embeddings, embeddings, embeddings)
	if err != nil {
		return nil, err
	}
	return e.shaper.Forward(attended)
}

// Parameters returns the MLP weights followed by the attention weights.
func (e *AttentionEncoder[B]) Parameters() []*nn.Parameter[B] {
	return append(e.mlp.Parameters(), e.attn.Parameters()...)
}

// RSDim returns the output shape per point.
func (e *AttentionEncoder[B]) RSDim() RSDim {
	return append(RSDim(nil), e.cfg.RSDim...)
}
