package np

import (
	"math/rand"

	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

// MLPEncoder encodes every (x_i, y_i) pair independently with a three-layer
// MLP and reshapes the result to rs_dim.
//
// Points never interact, so permuting the points of the input permutes the
// output the same way.
type MLPEncoder[B tensor.Backend] struct {
	cfg    EncoderConfig
	mlp    *nn.Sequential[B]
	shaper *nn.ReshapeLast[B]
}

// NewMLPEncoder creates an MLPEncoder.
func NewMLPEncoder[B tensor.Backend](cfg EncoderConfig, rng *rand.Rand, backend B) (*MLPEncoder[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MLPEncoder[B]{
		cfg:    cfg,
		mlp:    newPointMLP(cfg.XDim+cfg.YDim, cfg.HDim, cfg.RSDim.Size(), rng, backend),
		shaper: nn.NewReshapeLast[B](cfg.RSDim...),
	}, nil
}

// Encode maps x [batch, n, x_dim] and y [batch, n, y_dim] to [batch, n, rs_dim...].
func (e *MLPEncoder[B]) Encode(x, y *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	input, err := concatPairs(e.cfg, x, y)
	if err != nil {
		return nil, err
	}
	hidden, err := e.mlp.Forward(input)
	if err != nil {
		return nil, err
	}
	return e.shaper.Forward(hidden)
}

// Parameters returns the MLP weights.
func (e *MLPEncoder[B]) Parameters() []*nn.Parameter[B] {
	return e.mlp.Parameters()
}

// RSDim returns the output shape per point.
func (e *MLPEncoder[B]) RSDim() RSDim {
	return append(RSDim(nil), e.cfg.RSDim...)
}
