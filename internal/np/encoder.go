// Package np implements the Neural Process objective for sequence data:
// encoders that map (x, y) observation pairs to representations or
// distribution parameters, and the loss criterion combining the
// reconstruction log-likelihood with KL(q_target ‖ q_context).
package np

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

// ErrUnsupportedEncoder is returned for encoder kinds that are declared but
// not implemented. It wraps nn.ErrConfiguration.
var ErrUnsupportedEncoder = fmt.Errorf("%w: unsupported encoder", nn.ErrConfiguration)

// Kind selects an encoder strategy.
type Kind int

// Encoder kinds.
const (
	KindMLP Kind = iota
	KindAttention
	KindAttentive
)

// String returns the configuration name of k.
func (k Kind) String() string {
	switch k {
	case KindMLP:
		return "mlp"
	case KindAttention:
		return "attention"
	case KindAttentive:
		return "attentive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a configuration name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mlp":
		return KindMLP, nil
	case "attention":
		return KindAttention, nil
	case "attentive":
		return KindAttentive, nil
	default:
		return 0, fmt.Errorf("%w: unknown encoder kind %q", nn.ErrConfiguration, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// RSDim is the trailing output shape of an encoder: either {r} for a
// representation or {parameter_dim, num_heads} for a parameter set.
type RSDim []int

// Size returns the number of features per point, product(rs).
func (rs RSDim) Size() int {
	return tensor.Product(rs...)
}

// Validate checks that rs has one or two positive entries.
func (rs RSDim) Validate() error {
	if len(rs) != 1 && len(rs) != 2 {
		return fmt.Errorf("%w: rs_dim must have 1 or 2 entries, got %v", nn.ErrConfiguration, []int(rs))
	}
	for _, d := range rs {
		if d <= 0 {
			return fmt.Errorf("%w: rs_dim entries must be positive, got %v", nn.ErrConfiguration, []int(rs))
		}
	}
	return nil
}

// EncoderConfig describes an encoder.
type EncoderConfig struct {
	Kind  Kind
	XDim  int
	YDim  int
	HDim  int
	RSDim RSDim
}

// Validate checks the dimensions shared by all encoder kinds.
func (c EncoderConfig) Validate() error {
	if c.XDim <= 0 || c.YDim <= 0 || c.HDim <= 0 {
		return fmt.Errorf("%w: x_dim, y_dim and h_dim must be positive, got %d, %d, %d",
			nn.ErrConfiguration, c.XDim, c.YDim, c.HDim)
	}
	return c.RSDim.Validate()
}

// ValidateKind checks the constraints cfg.Kind puts on rs_dim. The
// attentive kind and unknown kinds fail with ErrUnsupportedEncoder.
func (c EncoderConfig) ValidateKind() error {
	switch c.Kind {
	case KindMLP:
		return nil
	case KindAttention:
		if len(c.RSDim) != 2 {
			return fmt.Errorf("%w: attention encoder needs rs_dim (parameter_dim, num_heads), got %v",
				nn.ErrConfiguration, []int(c.RSDim))
		}
		if c.RSDim[1] <= 0 || c.RSDim[0]%c.RSDim[1] != 0 {
			return fmt.Errorf("%w: parameter_dim %d is not divisible by num_heads %d",
				nn.ErrConfiguration, c.RSDim[0], c.RSDim[1])
		}
		return nil
	case KindAttentive:
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoder, c.Kind)
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrUnsupportedEncoder, c.Kind)
	}
}

// Encoder maps observation pairs to per-point outputs.
//
// x has shape [batch, n, x_dim] and y has shape [batch, n, y_dim]. The
// output has shape [batch, n, rs_dim...].
type Encoder[B tensor.Backend] interface {
	Encode(x, y *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)
	Parameters() []*nn.Parameter[B]
	RSDim() RSDim
}

// NewEncoder builds the encoder selected by cfg.Kind.
func NewEncoder[B tensor.Backend](cfg EncoderConfig, rng *rand.Rand, backend B) (Encoder[B], error) {
	switch cfg.Kind {
	case KindMLP:
		enc, err := NewMLPEncoder(cfg, rng, backend)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case KindAttention:
		enc, err := NewAttentionEncoder(cfg, rng, backend)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case KindAttentive:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoder, cfg.Kind)
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrUnsupportedEncoder, cfg.Kind)
	}
}

// newPointMLP builds Linear(in, h) → ReLU → Linear(h, h) → ReLU → Linear(h, out).
func newPointMLP[B tensor.Backend](in, h, out int, rng *rand.Rand, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		nn.NewLinear(in, h, rng, backend),
		nn.NewReLU[B](),
		nn.NewLinear(h, h, rng, backend),
		nn.NewReLU[B](),
		nn.NewLinear(h, out, rng, backend),
	)
}

// concatPairs validates x and y against cfg and joins them on the feature axis.
func concatPairs[B tensor.Backend](cfg EncoderConfig, x, y *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	xs, ys := x.Shape(), y.Shape()
	switch {
	case len(xs) != 3:
		return nil, tensor.NewShapeError("concat", xs, tensor.Shape{-1, -1, cfg.XDim}, "x must be [batch, n, x_dim]")
	case len(ys) != 3:
		return nil, tensor.NewShapeError("concat", ys, tensor.Shape{-1, -1, cfg.YDim}, "y must be [batch, n, y_dim]")
	case xs[0] != ys[0] || xs[1] != ys[1]:
		return nil, tensor.NewShapeError("concat", ys, tensor.Shape{xs[0], xs[1], cfg.YDim}, "x and y disagree on batch or point count")
	case xs[2] != cfg.XDim:
		return nil, tensor.NewShapeError("concat", xs, tensor.Shape{xs[0], xs[1], cfg.XDim}, "x_dim is %d", cfg.XDim)
	case ys[2] != cfg.YDim:
		return nil, tensor.NewShapeError("concat", ys, tensor.Shape{ys[0], ys[1], cfg.YDim}, "y_dim is %d", cfg.YDim)
	}
	return tensor.Cat([]*tensor.Tensor[float32, B]{x, y}, 2)
}
