// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package np

import (
	"math/rand"

	"github.com/born-ml/anp/internal/distribution"
	"github.com/born-ml/anp/internal/metrics"
	"github.com/born-ml/anp/internal/np"
	"github.com/born-ml/anp/internal/tensor"
)

// Encoders

// Kind selects an encoder strategy.
type Kind = np.Kind

// Encoder kinds.
const (
	KindMLP       Kind = np.KindMLP
	KindAttention Kind = np.KindAttention
	KindAttentive Kind = np.KindAttentive
)

// ParseKind parses an encoder name: mlp, attention or attentive.
func ParseKind(s string) (Kind, error) {
	return np.ParseKind(s)
}

// RSDim is the trailing output shape of an encoder.
type RSDim = np.RSDim

// EncoderConfig configures NewEncoder.
type EncoderConfig = np.EncoderConfig

// Encoder maps (x, y) point sets to per-point representations.
type Encoder[B tensor.Backend] = np.Encoder[B]

// MLPEncoder is the pointwise MLP encoder.
type MLPEncoder[B tensor.Backend] = np.MLPEncoder[B]

// AttentionEncoder is the MLP plus self-attention encoder.
type AttentionEncoder[B tensor.Backend] = np.AttentionEncoder[B]

// ErrUnsupportedEncoder is returned for encoder kinds without an implementation.
var ErrUnsupportedEncoder = np.ErrUnsupportedEncoder

// NewEncoder builds the encoder selected by cfg.Kind.
func NewEncoder[B tensor.Backend](cfg EncoderConfig, rng *rand.Rand, backend B) (Encoder[B], error) {
	return np.NewEncoder(cfg, rng, backend)
}

// Models

// Model is the contract Criterion scores.
type Model[B tensor.Backend] = np.Model[B]

// Output is the result of a model forward pass.
type Output[B tensor.Backend] = np.Output[B]

// NetInput holds the network inputs of a Sample.
type NetInput[B tensor.Backend] = np.NetInput[B]

// Sample is one batch of token sequences.
type Sample[B tensor.Backend] = np.Sample[B]

// ReferenceConfig configures NewReferenceModel.
type ReferenceConfig = np.ReferenceConfig

// ReferenceModel is a small latent Neural Process over token sequences.
type ReferenceModel[B tensor.Backend] = np.ReferenceModel[B]

// NewReferenceModel creates a ReferenceModel. rng seeds the weights and
// draws latent samples; with a nil rng the model decodes from the latent mean.
func NewReferenceModel[B tensor.Backend](cfg ReferenceConfig, rng *rand.Rand, backend B) (*ReferenceModel[B], error) {
	return np.NewReferenceModel(cfg, rng, backend)
}

// Objective

// Criterion computes the Neural Process loss.
type Criterion[B tensor.Backend] = np.Criterion[B]

// NewCriterion creates a Criterion.
func NewCriterion[B tensor.Backend]() *Criterion[B] {
	return np.NewCriterion[B]()
}

// Distributions

// Distribution is the common interface of latent and predictive distributions.
type Distribution[B tensor.Backend] = distribution.Distribution[B]

// Normal is a diagonal Gaussian.
type Normal[B tensor.Backend] = distribution.Normal[B]

// Categorical is a distribution over classes parameterized by logits.
type Categorical[B tensor.Backend] = distribution.Categorical[B]

// NewNormal creates a Normal. scale must be positive.
func NewNormal[B tensor.Backend](loc, scale *tensor.Tensor[float32, B]) (*Normal[B], error) {
	return distribution.NewNormal(loc, scale)
}

// NewCategorical creates a Categorical over the last axis of logits.
func NewCategorical[B tensor.Backend](logits *tensor.Tensor[float32, B]) (*Categorical[B], error) {
	return distribution.NewCategorical(logits)
}

// KL returns the elementwise KL(p || q).
func KL[B tensor.Backend](p, q Distribution[B]) (*tensor.Tensor[float32, B], error) {
	return distribution.KL(p, q)
}

// Metrics

// Record is an immutable logging record.
type Record = metrics.Record

// Sink receives reduced scalar metrics.
type Sink = metrics.Sink

// Logging record keys.
const (
	KeyLoss       = metrics.KeyLoss
	KeyLL         = metrics.KeyLL
	KeyKL         = metrics.KeyKL
	KeyNTokens    = metrics.KeyNTokens
	KeyNSentences = metrics.KeyNSentences
	KeySampleSize = metrics.KeySampleSize
)

// NewRecord creates a Record holding a copy of values.
func NewRecord(values map[string]float64) Record {
	return metrics.NewRecord(values)
}

// ReduceMetrics sums records from data-parallel replicas and logs loss, ll
// and kl in bits per sample to sink.
func ReduceMetrics(records []Record, sink Sink) {
	metrics.ReduceMetrics(records, sink)
}
