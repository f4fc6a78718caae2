// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the dense pure-Go compute backend.
package cpu

import (
	internalcpu "github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go implementations of all tensor operations
// with NumPy-style broadcasting and inplace fast paths for uniquely owned
// buffers.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
