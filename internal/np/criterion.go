package np

import (
	"fmt"

	"github.com/born-ml/anp/internal/distribution"
	"github.com/born-ml/anp/internal/metrics"
	"github.com/born-ml/anp/internal/tensor"
)

// Criterion computes the Neural Process loss
//
//	loss = −E_batch[Σ_targets log p(y_target)] + E_batch[Σ_latent KL(q_target ‖ q_context)]
//
// and the per-batch logging record. It holds no state.
type Criterion[B tensor.Backend] struct{}

// NewCriterion creates a Criterion.
func NewCriterion[B tensor.Backend]() *Criterion[B] {
	return &Criterion[B]{}
}

// Forward runs model on sample and returns the loss, the sample size used as
// the gradient denominator, and the logging record.
//
// The sample size is the sample's sentence count. The record holds loss,
// ll (the negated log-likelihood), kl, ntokens, nsentences and sample_size.
func (c *Criterion[B]) Forward(model Model[B], sample *Sample[B]) (float64, int, metrics.Record, error) {
	sampleSize := sample.NSentences

	out, err := model.Forward(sample.NetInput.SrcTokens)
	if err != nil {
		return 0, 0, metrics.Record{}, fmt.Errorf("model forward: %w", err)
	}
	switch {
	case out == nil:
		return 0, 0, metrics.Record{}, fmt.Errorf("model forward: %w: nil output", ErrIncompleteOutput)
	case out.PYPred == nil:
		return 0, 0, metrics.Record{}, fmt.Errorf("model forward: %w: nil p_y_pred", ErrIncompleteOutput)
	case out.QContext == nil:
		return 0, 0, metrics.Record{}, fmt.Errorf("model forward: %w: nil q_context", ErrIncompleteOutput)
	}

	pYPred, err := distribution.NewCategorical(out.PYPred)
	if err != nil {
		return 0, 0, metrics.Record{}, err
	}

	ll, kl, err := c.ComputeLoss(pYPred, sample.Target, out.QTarget, out.QContext)
	if err != nil {
		return 0, 0, metrics.Record{}, err
	}

	loss := -ll + kl
	record := metrics.NewRecord(map[string]float64{
		metrics.KeyLoss:       loss,
		metrics.KeyLL:         -ll,
		metrics.KeyKL:         kl,
		metrics.KeyNTokens:    float64(sample.NTokens),
		metrics.KeyNSentences: float64(sample.NSentences),
		metrics.KeySampleSize: float64(sampleSize),
	})
	return loss, sampleSize, record, nil
}

// ComputeLoss returns the batch-mean log-likelihood of yTarget under pYPred,
// summed over targets, and the batch-mean KL(qTarget ‖ qContext), summed
// over latent axes.
//
// A nil qTarget is replaced by qContext, which makes the KL term zero.
// yTarget must match pYPred's batch shape, optionally with a trailing axis
// of size 1; other shapes fail with tensor.ErrShapeMismatch.
func (c *Criterion[B]) ComputeLoss(
	pYPred *distribution.Categorical[B],
	yTarget *tensor.Tensor[int64, B],
	qTarget, qContext distribution.Distribution[B],
) (ll, kl float64, err error) {
	qTarget = resolveTarget(qTarget, qContext)

	targets, err := squeezeTargets(yTarget, pYPred.BatchShape())
	if err != nil {
		return 0, 0, err
	}
	logProb, err := pYPred.LogProb(targets)
	if err != nil {
		return 0, 0, fmt.Errorf("log likelihood: %w", err)
	}
	ll, err = batchMeanOfSums("log likelihood", logProb)
	if err != nil {
		return 0, 0, err
	}

	divergence, err := distribution.KL(qTarget, qContext)
	if err != nil {
		return 0, 0, fmt.Errorf("kl: %w", err)
	}
	kl, err = batchMeanOfSums("kl", divergence)
	if err != nil {
		return 0, 0, err
	}
	return ll, kl, nil
}

func resolveTarget[B tensor.Backend](qTarget, qContext distribution.Distribution[B]) distribution.Distribution[B] {
	if qTarget == nil {
		return qContext
	}
	return qTarget
}

// squeezeTargets drops a trailing y_dim axis of size 1 so that targets line
// up with the predictive batch shape.
func squeezeTargets[B tensor.Backend](y *tensor.Tensor[int64, B], batchShape tensor.Shape) (*tensor.Tensor[int64, B], error) {
	shape := y.Shape()
	if len(shape) == len(batchShape)+1 && shape[len(shape)-1] == 1 {
		return y.Reshape(shape[:len(shape)-1]...)
	}
	return y, nil
}

// batchMeanOfSums sums t over every axis but the first and averages the
// per-batch sums.
func batchMeanOfSums[B tensor.Backend](op string, t *tensor.Tensor[float32, B]) (float64, error) {
	shape := t.Shape()
	if len(shape) == 0 || shape[0] == 0 {
		return 0, tensor.NewShapeError(op, shape, nil, "need a non-empty batch axis")
	}
	batch := shape[0]
	data := t.Data()
	per := len(data) / batch

	total := 0.0
	for b := 0; b < batch; b++ {
		sum := 0.0
		for _, v := range data[b*per : (b+1)*per] {
			sum += float64(v)
		}
		total += sum
	}
	return total / float64(batch), nil
}
