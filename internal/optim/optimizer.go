// Package optim implements the gradient-based optimizers used to drive
// embedding objectives.
//
// Optimizers consume the gradient map produced by the autodiff tape and
// update parameters in place:
//
//	grads := backend.Tape().Backward(seed, backend)
//	optimizer.Step(grads)
//	backend.Tape().Clear()
package optim

import (
	"github.com/godr-ml/godr/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters. The map comes from
	// GradientTape.Backward; parameters without an entry are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate, for schedules that anneal during
	// optimization.
	SetLR(lr float64)
}

// Config is the base configuration shared by all optimizers.
type Config struct {
	LR float64
}

// rawData views a RawTensor's buffer as a []T slice.
func rawData[T tensor.Float](r *tensor.RawTensor) []T {
	switch any(T(0)).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	default:
		panic("optim: unsupported dtype")
	}
}

// getGradient retrieves the gradient for a parameter, or nil if the parameter
// did not participate in the recorded graph.
func getGradient[T tensor.Float, B tensor.Backend](
	param *Parameter[T, B],
	grads map[*tensor.RawTensor]*tensor.RawTensor,
) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Raw()]
}
