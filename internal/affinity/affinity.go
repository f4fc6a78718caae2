// Package affinity computes the input-space probability matrices that
// neighbor embedding methods match against.
//
// All affinities operate on raw tensors so they can run on any backend's
// distance kernels; internal calibration math runs in float64 and results are
// written back in the input dtype.
package affinity

import (
	"fmt"

	"github.com/godr-ml/godr/internal/tensor"
)

// toFloat64 copies a tensor's values into a float64 slice.
func toFloat64(r *tensor.RawTensor) []float64 {
	switch r.DType() {
	case tensor.Float32:
		src := r.AsFloat32()
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v)
		}
		return out
	case tensor.Float64:
		return append([]float64(nil), r.AsFloat64()...)
	default:
		panic(fmt.Sprintf("affinity: unsupported dtype %s", r.DType()))
	}
}

// fromFloat64 creates a tensor of the given dtype from float64 values.
func fromFloat64(values []float64, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("affinity: failed to create tensor: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range values {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(result.AsFloat64(), values)
	default:
		panic(fmt.Sprintf("affinity: unsupported dtype %s", dtype))
	}

	return result
}

// pairwiseSqDists computes the [n, n] squared distance matrix of X through
// the given backend and returns it as float64.
func pairwiseSqDists(x *tensor.RawTensor, backend tensor.Backend) ([]float64, int) {
	n := x.Shape()[0]
	d := backend.SqDistances(x, x)
	return toFloat64(d), n
}
