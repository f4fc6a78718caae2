// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernels provides the fused pairwise-kernel compute backend.
//
// The kernels backend accelerates the operations that dominate neighbor
// embedding workloads: pairwise squared distances, row-wise log-sum-exp, and
// exact k-nearest-neighbor search. All remaining operations fall through to
// the dense CPU implementations.
package kernels

import (
	internalkernels "github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/tensor"
)

// Backend represents the fused-kernel backend implementation.
type Backend = internalkernels.Backend

// Neighbors holds a k-nearest-neighbor query result.
type Neighbors = internalkernels.Neighbors

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new kernels backend.
func New() *Backend {
	return internalkernels.New()
}

// IsAvailable reports whether the fused kernels can be used.
func IsAvailable() bool {
	return internalkernels.IsAvailable()
}
