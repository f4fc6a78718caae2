// Copyright 2026 GoDR Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU compute backend built on WebGPU.
//
// The backend is only functional on platforms with wgpu_native support;
// elsewhere New fails and IsAvailable reports false.
package webgpu

import (
	internalwebgpu "github.com/godr-ml/godr/internal/backend/webgpu"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU device can be initialized.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
