// Package kernels implements an accelerated backend for pairwise computations.
//
// It layers fused, chunked kernels for the operations that dominate neighbor
// embedding workloads (pairwise distances, row-wise log-sum-exp, k-nearest
// neighbor search) on top of the plain CPU backend, which handles the long
// tail of element-wise and shape operations.
package kernels

import (
	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/tensor"
)

// Backend accelerates pairwise kernels and delegates everything else to the
// CPU backend it embeds.
type Backend struct {
	*cpu.Backend
}

// New creates a new kernels backend.
func New() *Backend {
	return &Backend{
		Backend: cpu.New(),
	}
}

// IsAvailable reports whether the accelerated kernels can run on this host.
// The fused kernels are pure Go, so they are always available; the predicate
// exists so callers can select backends uniformly.
func IsAvailable() bool {
	return true
}

// Name returns the backend name.
func (k *Backend) Name() string {
	return "Kernels"
}

// Device returns the compute device.
func (k *Backend) Device() tensor.Device {
	return tensor.CPU
}
