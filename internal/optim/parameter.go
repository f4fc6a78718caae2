package optim

import (
	"github.com/godr-ml/godr/internal/tensor"
)

// Parameter wraps a tensor that is updated during optimization.
//
// The wrapped RawTensor is the identity used to look up gradients in the map
// returned by the tape, so a parameter must keep the same RawTensor across
// iterations: optimizers write updates into its buffer in place.
type Parameter[T tensor.Float, B tensor.Backend] struct {
	tensor *tensor.Tensor[T, B]
}

// NewParameter creates a parameter from an existing tensor.
func NewParameter[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return &Parameter[T, B]{tensor: t}
}

// Tensor returns the underlying tensor.
func (p *Parameter[T, B]) Tensor() *tensor.Tensor[T, B] {
	return p.tensor
}

// Raw returns the underlying raw tensor, the gradient map key.
func (p *Parameter[T, B]) Raw() *tensor.RawTensor {
	return p.tensor.Raw()
}

// Shape returns the parameter's shape.
func (p *Parameter[T, B]) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Data returns the parameter's values as a typed slice, viewing the live
// buffer.
func (p *Parameter[T, B]) Data() []T {
	return rawData[T](p.tensor.Raw())
}
