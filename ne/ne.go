// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ne provides neighbor embedding estimators for dimensionality
// reduction.
//
// All estimators share the same Fit/Transform lifecycle:
//
//	est, err := ne.NewTSNE[float64](ne.Config{Perplexity: 30, NComponents: 2})
//	if err != nil { ... }
//	z, err := est.FitTransform(x)
//
// The generic dtype parameter selects float32 or float64 arithmetic for the
// whole pipeline, affinities included.
package ne

import (
	"github.com/godr-ml/godr/internal/ne"
	"github.com/godr-ml/godr/internal/tensor"
)

// Sentinel errors returned by estimator construction and fitting.
var (
	ErrInvalidConfig      = ne.ErrInvalidConfig
	ErrNotFitted          = ne.ErrNotFitted
	ErrBackendUnavailable = ne.ErrBackendUnavailable
)

// Selector chooses the computation path for affinities and the fit loop.
type Selector = ne.Selector

// Available backend selectors.
const (
	BackendDense   = ne.BackendDense
	BackendKernels = ne.BackendKernels
)

// Init produces the starting embedding.
type Init = ne.Init

// NormalInit draws the starting embedding from N(0, std).
type NormalInit = ne.NormalInit

// SliceInit uses a caller-provided flat slice as the starting embedding.
type SliceInit = ne.SliceInit

// TensorInit uses a caller-provided tensor as the starting embedding.
type TensorInit = ne.TensorInit

// Config holds the shared estimator configuration.
type Config = ne.Config

// Estimator is the common interface implemented by all embedding estimators.
type Estimator = ne.Estimator

// Algorithms lists the registered algorithm names accepted by New.
var Algorithms = ne.Algorithms

// New constructs an estimator by algorithm name.
func New[T tensor.Float](algo string, cfg Config) (Estimator, error) {
	return ne.New[T](algo, cfg)
}

// SNE is the stochastic neighbor embedding estimator with Gaussian kernels.
type SNE[T tensor.Float] = ne.SNE[T]

// NewSNE creates an SNE estimator.
func NewSNE[T tensor.Float](cfg Config) (*SNE[T], error) {
	return ne.NewSNE[T](cfg)
}

// TSNE is the t-distributed SNE estimator.
type TSNE[T tensor.Float] = ne.TSNE[T]

// NewTSNE creates a TSNE estimator.
func NewTSNE[T tensor.Float](cfg Config) (*TSNE[T], error) {
	return ne.NewTSNE[T](cfg)
}

// InfoTSNE is the contrastive variant of TSNE with sampled negatives.
type InfoTSNE[T tensor.Float] = ne.InfoTSNE[T]

// NewInfoTSNE creates an InfoTSNE estimator.
func NewInfoTSNE[T tensor.Float](cfg Config) (*InfoTSNE[T], error) {
	return ne.NewInfoTSNE[T](cfg)
}

// TSNEkhorn is the TSNE variant using doubly stochastic Sinkhorn affinities.
type TSNEkhorn[T tensor.Float] = ne.TSNEkhorn[T]

// NewTSNEkhorn creates a TSNEkhorn estimator.
func NewTSNEkhorn[T tensor.Float](cfg Config) (*TSNEkhorn[T], error) {
	return ne.NewTSNEkhorn[T](cfg)
}

// LargeVis is the LargeVis estimator with sampled repulsive pairs.
type LargeVis[T tensor.Float] = ne.LargeVis[T]

// NewLargeVis creates a LargeVis estimator.
func NewLargeVis[T tensor.Float](cfg Config) (*LargeVis[T], error) {
	return ne.NewLargeVis[T](cfg)
}

// UMAP is the uniform manifold approximation and projection estimator.
type UMAP[T tensor.Float] = ne.UMAP[T]

// NewUMAP creates a UMAP estimator.
func NewUMAP[T tensor.Float](cfg Config) (*UMAP[T], error) {
	return ne.NewUMAP[T](cfg)
}

// PACMAP is the pairwise controlled manifold approximation estimator.
type PACMAP[T tensor.Float] = ne.PACMAP[T]

// NewPACMAP creates a PACMAP estimator.
func NewPACMAP[T tensor.Float](cfg Config) (*PACMAP[T], error) {
	return ne.NewPACMAP[T](cfg)
}

// COSNE is the hyperbolic SNE estimator embedding into the Poincare ball.
type COSNE[T tensor.Float] = ne.COSNE[T]

// NewCOSNE creates a COSNE estimator.
func NewCOSNE[T tensor.Float](cfg Config) (*COSNE[T], error) {
	return ne.NewCOSNE[T](cfg)
}
