// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package np provides the Neural Process objective for sequence data.
//
// # Overview
//
// A Neural Process model turns a batch of token sequences into predictive
// logits and two latent distributions: one inferred from the context points
// and one from the target points. Criterion scores such a model with the
// negative ELBO
//
//	loss = -ll + KL(q_target || q_context)
//
// summed over the batch, where ll is the batch mean of summed target
// log-likelihoods and KL is summed over latent axes.
//
// # Encoders
//
// NewEncoder builds the set encoder selected by EncoderConfig.Kind:
//
//	backend := cpu.New()
//	enc, err := np.NewEncoder(np.EncoderConfig{
//	    Kind: np.KindAttention, XDim: 1, YDim: 8, HDim: 32, RSDim: np.RSDim{16, 4},
//	}, rand.New(rand.NewSource(1)), backend)
//	r, err := enc.Encode(x, y) // [batch, num_points, 16, 4]
//
// # Metrics
//
// Criterion.Forward returns a logging Record per replica. ReduceMetrics sums
// records from data-parallel replicas and reports loss, ll and kl in bits
// per sample.
package np
