// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides embedding quality measures.
package metrics

import (
	"github.com/godr-ml/godr/internal/metrics"
	"github.com/godr-ml/godr/internal/tensor"
)

// SilhouetteScore computes the mean silhouette coefficient of the embedding
// under the given labels. Panics if labels do not match the rows of z or if
// fewer than two clusters are present.
func SilhouetteScore(z *tensor.RawTensor, labels []int) float64 {
	return metrics.SilhouetteScore(z, labels)
}

// PairwiseDistances returns the dense Euclidean distance matrix of the rows
// of z.
func PairwiseDistances(z *tensor.RawTensor) [][]float64 {
	return metrics.PairwiseDistances(z)
}
