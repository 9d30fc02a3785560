package np

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/anp/internal/distribution"
	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

// ReferenceConfig describes a ReferenceModel.
type ReferenceConfig struct {
	Encoder   EncoderConfig
	VocabSize int
	LatentDim int
	// ContextPoints is the number of leading tokens used as the context set.
	// Zero means half of the sequence, at least one token.
	ContextPoints int
	// TargetLatent controls whether QTarget is produced. When false the
	// criterion falls back to QContext and the KL term vanishes.
	TargetLatent bool
}

// Validate checks cfg.
func (c ReferenceConfig) Validate() error {
	if err := c.Encoder.Validate(); err != nil {
		return err
	}
	if err := c.Encoder.ValidateKind(); err != nil {
		return err
	}
	if c.Encoder.XDim != 1 {
		return fmt.Errorf("%w: reference model uses a scalar position as x, got x_dim %d",
			nn.ErrConfiguration, c.Encoder.XDim)
	}
	if c.VocabSize <= 0 || c.LatentDim <= 0 || c.ContextPoints < 0 {
		return fmt.Errorf("%w: vocab_size %d, latent_dim %d, context_points %d",
			nn.ErrConfiguration, c.VocabSize, c.LatentDim, c.ContextPoints)
	}
	return nil
}

// ReferenceModel is a small latent Neural Process over token sequences.
//
// Each token position i gives a pair (x_i, y_i) with x_i = i/(n-1) and y_i
// the token embedding. The configured encoder maps the context pairs and the
// full set of pairs to per-point outputs, which are mean-pooled into Normal
// latents. A decoder maps [x_i, z] to vocabulary logits.
//
// A ReferenceModel draws latent samples from its own rng and must not be
// shared between goroutines.
type ReferenceModel[B tensor.Backend] struct {
	cfg     ReferenceConfig
	embed   *nn.Embedding[B]
	encoder Encoder[B]
	latent  *nn.Linear[B]
	decoder *nn.Sequential[B]
	rng     *rand.Rand
	backend B
}

// NewReferenceModel creates a ReferenceModel. Weights are drawn from rng;
// latent samples too. A nil rng gives a model that decodes from the latent
// mean instead of sampling.
func NewReferenceModel[B tensor.Backend](cfg ReferenceConfig, rng *rand.Rand, backend B) (*ReferenceModel[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	encoder, err := NewEncoder(cfg.Encoder, rng, backend)
	if err != nil {
		return nil, err
	}
	h := cfg.Encoder.HDim
	return &ReferenceModel[B]{
		cfg:     cfg,
		embed:   nn.NewEmbedding(cfg.VocabSize, cfg.Encoder.YDim, rng, backend),
		encoder: encoder,
		latent:  nn.NewLinear(cfg.Encoder.RSDim.Size(), 2*cfg.LatentDim, rng, backend),
		decoder: nn.NewSequential[B](
			nn.NewLinear(cfg.Encoder.XDim+cfg.LatentDim, h, rng, backend),
			nn.NewReLU[B](),
			nn.NewLinear(h, cfg.VocabSize, rng, backend),
		),
		rng:     rng,
		backend: backend,
	}, nil
}

// Forward implements Model for srcTokens [batch, n].
func (m *ReferenceModel[B]) Forward(srcTokens *tensor.Tensor[int64, B]) (*Output[B], error) {
	shape := srcTokens.Shape()
	if len(shape) != 2 || shape[0] == 0 || shape[1] == 0 {
		return nil, tensor.NewShapeError("reference model", shape, nil, "src_tokens must be a non-empty [batch, n]")
	}
	batch, n := shape[0], shape[1]
	numContext := m.contextPoints(n)
	if numContext > n {
		return nil, tensor.NewShapeError("reference model", shape, nil, "%d context points for %d tokens", numContext, n)
	}

	x := m.positions(batch, n)
	y, err := m.embed.Forward(srcTokens)
	if err != nil {
		return nil, err
	}

	xc, err := x.Narrow(1, 0, numContext)
	if err != nil {
		return nil, err
	}
	yc, err := y.Narrow(1, 0, numContext)
	if err != nil {
		return nil, err
	}
	rContext, qContext, err := m.infer(xc, yc)
	if err != nil {
		return nil, fmt.Errorf("context latent: %w", err)
	}

	out := &Output[B]{R: rContext, QContext: qContext}
	q := qContext
	if m.cfg.TargetLatent {
		_, qTarget, err := m.infer(x, y)
		if err != nil {
			return nil, fmt.Errorf("target latent: %w", err)
		}
		out.QTarget = qTarget
		q = qTarget
	}

	out.PYPred, err = m.decode(x, q)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Parameters returns all model weights.
func (m *ReferenceModel[B]) Parameters() []*nn.Parameter[B] {
	params := m.embed.Parameters()
	params = append(params, m.encoder.Parameters()...)
	params = append(params, m.latent.Parameters()...)
	return append(params, m.decoder.Parameters()...)
}

// Encoder returns the model's encoder.
func (m *ReferenceModel[B]) Encoder() Encoder[B] {
	return m.encoder
}

func (m *ReferenceModel[B]) contextPoints(n int) int {
	if m.cfg.ContextPoints > 0 {
		return m.cfg.ContextPoints
	}
	return max(1, n/2)
}

// positions returns x [batch, n, 1] with x_i = i/(n-1).
func (m *ReferenceModel[B]) positions(batch, n int) *tensor.Tensor[float32, B] {
	x := tensor.Zeros[float32](tensor.Shape{batch, n, 1}, m.backend)
	data := x.Data()
	denom := float32(max(1, n-1))
	for b := 0; b < batch; b++ {
		for i := 0; i < n; i++ {
			data[b*n+i] = float32(i) / denom
		}
	}
	return x
}

// infer encodes the pairs, mean-pools over points and returns the pooled
// representation with the latent Normal N(μ, 0.1 + 0.9·σ(s)).
func (m *ReferenceModel[B]) infer(x, y *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *distribution.Normal[B], error) {
	encoded, err := m.encoder.Encode(x, y)
	if err != nil {
		return nil, nil, err
	}
	shape := encoded.Shape()
	flat, err := encoded.Reshape(shape[0], shape[1], m.cfg.Encoder.RSDim.Size())
	if err != nil {
		return nil, nil, err
	}
	r, err := flat.MeanDim(1, false)
	if err != nil {
		return nil, nil, err
	}

	params, err := m.latent.Forward(r)
	if err != nil {
		return nil, nil, err
	}
	loc, err := params.Narrow(1, 0, m.cfg.LatentDim)
	if err != nil {
		return nil, nil, err
	}
	rawScale, err := params.Narrow(1, m.cfg.LatentDim, m.cfg.LatentDim)
	if err != nil {
		return nil, nil, err
	}
	scale := rawScale.Sigmoid().MulScalar(0.9).AddScalar(0.1)

	q, err := distribution.NewNormal(loc, scale)
	if err != nil {
		return nil, nil, err
	}
	return r, q, nil
}

// decode maps [x_i, z] to logits [batch, n, vocab].
func (m *ReferenceModel[B]) decode(x *tensor.Tensor[float32, B], q *distribution.Normal[B]) (*tensor.Tensor[float32, B], error) {
	z := q.Mean()
	if m.rng != nil {
		var err error
		if z, err = q.RSample(m.rng); err != nil {
			return nil, err
		}
	}

	shape := x.Shape()
	batch, n := shape[0], shape[1]
	z, err := z.Reshape(batch, 1, m.cfg.LatentDim)
	if err != nil {
		return nil, err
	}
	zs, err := tensor.Zeros[float32](tensor.Shape{batch, n, m.cfg.LatentDim}, m.backend).Add(z)
	if err != nil {
		return nil, err
	}

	input, err := tensor.Cat([]*tensor.Tensor[float32, B]{x, zs}, 2)
	if err != nil {
		return nil, err
	}
	return m.decoder.Forward(input)
}
