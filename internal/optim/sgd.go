package optim

import (
	"github.com/godr-ml/godr/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule (with momentum mu):
//
//	velocity = mu * velocity + gradient
//	param = param - lr * velocity
type SGD[T tensor.Float, B tensor.Backend] struct {
	params   []*Parameter[T, B]
	lr       float64
	momentum float64
	velocity map[*Parameter[T, B]][]float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum coefficient (default: 0, plain gradient descent)
}

// NewSGD creates a new SGD optimizer with defaults filled in.
func NewSGD[T tensor.Float, B tensor.Backend](params []*Parameter[T, B], config SGDConfig) *SGD[T, B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[T, B]{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		velocity: make(map[*Parameter[T, B]][]float64),
	}
}

// Step performs a single SGD update. Parameters with no gradient are skipped.
func (s *SGD[T, B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		paramData := param.Data()
		gradData := rawData[T](grad)

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= T(s.lr * float64(gradData[i]))
			}
			continue
		}

		vel, ok := s.velocity[param]
		if !ok {
			vel = make([]float64, len(paramData))
			s.velocity[param] = vel
		}

		for i := range paramData {
			vel[i] = s.momentum*vel[i] + float64(gradData[i])
			paramData[i] -= T(s.lr * vel[i])
		}
	}
}

// GetLR returns the current learning rate.
func (s *SGD[T, B]) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[T, B]) SetLR(lr float64) {
	s.lr = lr
}
