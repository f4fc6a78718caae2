// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation using a
// gradient tape. It wraps any backend to add autodiff capabilities.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New[tensor.Backend](base)
//
//	backend.Tape().StartRecording()
//	loss := backend.Sum(backend.Mul(x, x))
//	grads := backend.Tape().Backward(seed, backend)
package autodiff

import (
	"github.com/godr-ml/godr/internal/autodiff"
	"github.com/godr-ml/godr/internal/tensor"
)

// Backend is the autodiff-enabled backend decorating an inner backend B.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}
