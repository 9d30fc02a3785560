// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensors for Neural Process models.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/anp/backend/cpu"
//	    "github.com/born-ml/anp/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
//	    y, err := x.Reshape(3, 2)
//	}
//
// # Data Types
//
// Values are float32. Token ids and class labels are int64.
//
// # Errors
//
// Shape-changing operations return a *ShapeError wrapping ErrShape or
// ErrShapeMismatch instead of panicking.
package tensor
