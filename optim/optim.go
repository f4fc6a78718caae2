// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers for embedding training.
package optim

import (
	"github.com/godr-ml/godr/internal/optim"
	"github.com/godr-ml/godr/internal/tensor"
)

// Optimizer defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration shared by optimizers.
type Config = optim.Config

// Parameter wraps a tensor optimized via gradient descent.
type Parameter[T tensor.Float, B tensor.Backend] = optim.Parameter[T, B]

// NewParameter registers a tensor as an optimizable parameter.
func NewParameter[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return optim.NewParameter(t)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[T tensor.Float, B tensor.Backend] = optim.SGD[T, B]

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	param := optim.NewParameter(embedding)
//	optimizer := optim.NewSGD(
//	    []*optim.Parameter[float64, tensor.Backend]{param},
//	    optim.SGDConfig{LR: 0.01, Momentum: 0.9},
//	)
func NewSGD[T tensor.Float, B tensor.Backend](params []*Parameter[T, B], config SGDConfig) *SGD[T, B] {
	return optim.NewSGD(params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer with bias correction.
type Adam[T tensor.Float, B tensor.Backend] = optim.Adam[T, B]

// AdamConfig contains configuration for the Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
func NewAdam[T tensor.Float, B tensor.Backend](params []*Parameter[T, B], config AdamConfig) *Adam[T, B] {
	return optim.NewAdam(params, config)
}
