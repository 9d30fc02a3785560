// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers the Neural Process encoders
// are built from.
//
// Every layer implements Module: a Forward that returns an error on bad
// input shapes, and Parameters listing its weights. Weights are initialized
// from an explicit *rand.Rand so models are reproducible.
package nn
