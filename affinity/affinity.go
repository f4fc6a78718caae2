// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package affinity provides input-space affinity matrices and pair samplers
// used by the neighbor embedding estimators.
package affinity

import (
	"github.com/godr-ml/godr/internal/affinity"
	internalkernels "github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/tensor"
)

// Entropic computes row-stochastic entropic affinities calibrated to the
// requested perplexity via per-row bisection.
func Entropic(x *tensor.RawTensor, perplexity float64, backend tensor.Backend) *tensor.RawTensor {
	return affinity.Entropic(x, perplexity, backend)
}

// EntropicSymmetric computes symmetrized entropic affinities, (P + Pᵀ) / 2n.
func EntropicSymmetric(x *tensor.RawTensor, perplexity float64, backend tensor.Backend) *tensor.RawTensor {
	return affinity.EntropicSymmetric(x, perplexity, backend)
}

// SinkhornConfig configures the symmetric Sinkhorn affinity solver.
type SinkhornConfig = affinity.SinkhornConfig

// Sinkhorn computes doubly stochastic symmetric entropic affinities by dual
// ascent on the Sinkhorn potentials.
func Sinkhorn(x *tensor.RawTensor, config SinkhornConfig, backend tensor.Backend) *tensor.RawTensor {
	return affinity.Sinkhorn(x, config, backend)
}

// Gibbs computes a normalized Gaussian affinity matrix with fixed bandwidth.
func Gibbs(x *tensor.RawTensor, sigma float64, backend tensor.Backend) *tensor.RawTensor {
	return affinity.Gibbs(x, sigma, backend)
}

// Student computes a normalized Student-t affinity matrix.
func Student(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return affinity.Student(x, backend)
}

// FuzzyKNN computes the symmetrized fuzzy k-nearest-neighbor membership graph.
func FuzzyKNN(x *tensor.RawTensor, nNeighbors int, backend *internalkernels.Backend) *tensor.RawTensor {
	return affinity.FuzzyKNN(x, nNeighbors, backend)
}

// Pair is an (i, j) index pair into the input rows.
type Pair = affinity.Pair

// PACMAPPairs holds the three pair sets driving the PACMAP loss.
type PACMAPPairs = affinity.PACMAPPairs

// PACMAPConfig configures PACMAP pair sampling.
type PACMAPConfig = affinity.PACMAPConfig

// SamplePACMAPPairs samples neighbor, mid-near, and further pairs.
func SamplePACMAPPairs(x *tensor.RawTensor, config PACMAPConfig, backend *internalkernels.Backend) *PACMAPPairs {
	return affinity.SamplePACMAPPairs(x, config, backend)
}
