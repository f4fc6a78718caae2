package ops

import (
	"fmt"

	"github.com/godr-ml/godr/internal/tensor"
)

// reduceBroadcast reduces a gradient back to the shape of a broadcast input by
// summing along the broadcast dimensions.
//
// When shapes already match the gradient is cloned: callers may hold the same
// gradient tensor for several inputs, and later accumulation must not alias.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Broadcasting aligns shapes from the right: sum away leading dimensions
	// the target does not have.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Sum along dimensions where the target is 1.
	for i, dim := range targetShape {
		if dim == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// expandTo broadcasts a gradient up to the given shape.
// Adding a zero tensor of the target shape materializes the broadcast.
func expandTo(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad.Clone()
	}

	zeros, err := tensor.NewRaw(targetShape, grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("autodiff: failed to create expansion tensor: %v", err))
	}
	return backend.Add(zeros, grad)
}

// keepDimShape restores a reduced dimension with size 1 so a gradient can be
// broadcast against the pre-reduction input.
func keepDimShape(inShape tensor.Shape, dim int) tensor.Shape {
	out := inShape.Clone()
	out[dim] = 1
	return out
}

// normalizeDim resolves a possibly negative dimension index.
func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		return ndim + dim
	}
	return dim
}
