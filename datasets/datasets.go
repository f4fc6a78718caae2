// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package datasets provides small built-in datasets for examples and tests.
package datasets

import (
	"github.com/godr-ml/godr/internal/datasets"
	"github.com/godr-ml/godr/internal/tensor"
)

// Toy generates n points from three well-separated Gaussian clusters in 5D.
// The returned labels assign each point to its cluster.
func Toy[T tensor.Float](n int, seed int64) (*tensor.RawTensor, []int) {
	return datasets.Toy[T](n, seed)
}

// Iris returns the 150x4 Fisher iris measurements with species labels.
func Iris[T tensor.Float]() (*tensor.RawTensor, []int) {
	return datasets.Iris[T]()
}
