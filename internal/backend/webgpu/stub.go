//go:build !windows

// Package webgpu implements the WebGPU backend for GPU-accelerated tensor
// operations. On platforms without wgpu_native support the package compiles
// to a stub: New always fails and IsAvailable reports false.
package webgpu

import "errors"

// Backend is unavailable on this platform.
type Backend struct{}

// New reports that WebGPU is not supported on this platform.
func New() (*Backend, error) {
	return nil, errors.New("webgpu: not supported on this platform")
}

// IsAvailable reports whether a WebGPU device can be initialized.
func IsAvailable() bool {
	return false
}

// Release is a no-op on this platform.
func (b *Backend) Release() {}
