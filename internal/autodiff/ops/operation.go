// Package ops defines the differentiable operations recorded by the gradient
// tape.
//
// Each operation captures its inputs and output during the forward pass and
// computes input gradients from the output gradient during the backward pass.
// The operation set covers what embedding losses are built from: element-wise
// arithmetic, scalar arithmetic, exp/log/sqrt/pow, matrix products, pairwise
// squared distances, reductions, and shape moves.
package ops

import "github.com/godr-ml/godr/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// The returned slice matches Inputs() positionally; a nil entry means no
	// gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
