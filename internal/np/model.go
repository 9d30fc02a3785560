package np

import (
	"errors"

	"github.com/born-ml/anp/internal/distribution"
	"github.com/born-ml/anp/internal/tensor"
)

// ErrIncompleteOutput is returned when a model's forward pass yields no
// output, no predictive logits or no context latent.
var ErrIncompleteOutput = errors.New("incomplete model output")

// Output is the result of a Neural Process forward pass.
type Output[B tensor.Backend] struct {
	// PYPred holds predictive logits [batch, num_target, vocab].
	PYPred *tensor.Tensor[float32, B]
	// R is the aggregated representation, if the model exposes one.
	R *tensor.Tensor[float32, B]
	// QContext is the latent distribution inferred from the context points.
	QContext distribution.Distribution[B]
	// QTarget is the latent distribution inferred from the target points.
	// It may be nil, in which case QContext stands in for it.
	QTarget distribution.Distribution[B]
}

// Model is the Neural Process model contract consumed by Criterion.
type Model[B tensor.Backend] interface {
	Forward(srcTokens *tensor.Tensor[int64, B]) (*Output[B], error)
}

// NetInput holds the network inputs of a Sample.
type NetInput[B tensor.Backend] struct {
	SrcTokens *tensor.Tensor[int64, B]
}

// Sample is one training batch.
type Sample[B tensor.Backend] struct {
	NetInput   NetInput[B]
	Target     *tensor.Tensor[int64, B] // [batch, num_target] or [batch, num_target, 1]
	NTokens    int
	NSentences int
}
