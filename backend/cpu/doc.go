// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Matrix multiplication runs on gonum's BLAS; batched products are split
// across goroutines.
package cpu
