package kernels

import (
	"fmt"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// SqDistances computes pairwise squared Euclidean distances using the
// expanded form |a_i|^2 + |b_j|^2 - 2 a_i.b_j with precomputed row norms.
// Cancellation can produce small negative values, so results are clamped
// at zero.
func (k *Backend) SqDistances(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("sqdistances: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[1] {
		panic(fmt.Sprintf("sqdistances: feature dimensions differ: %v vs %v", aShape, bShape))
	}

	n, m, d := aShape[0], bShape[0], aShape[1]

	result, err := tensor.NewRaw(tensor.Shape{n, m}, a.DType(), tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("sqdistances: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		fusedSqDist(a.AsFloat32(), b.AsFloat32(), result.AsFloat32(), n, m, d, k.par())
	case tensor.Float64:
		fusedSqDist(a.AsFloat64(), b.AsFloat64(), result.AsFloat64(), n, m, d, k.par())
	default:
		panic(fmt.Sprintf("sqdistances: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}

	return result
}

// par returns the parallel config for the current execution mode.
func (k *Backend) par() parallel.Config {
	if tensor.Deterministic() {
		return parallel.Sequential()
	}
	return parallel.DefaultConfig()
}

func fusedSqDist[T tensor.Float](a, b, out []T, n, m, d int, cfg parallel.Config) {
	aNorms := rowNorms(a, n, d)
	bNorms := rowNorms(b, m, d)

	parallel.ForChunks(n, func(start, end int) {
		for i := start; i < end; i++ {
			rowA := a[i*d : (i+1)*d]
			rowOut := out[i*m : (i+1)*m]
			for j := 0; j < m; j++ {
				rowB := b[j*d : (j+1)*d]
				var dot T
				for p := range rowA {
					dot += rowA[p] * rowB[p]
				}
				dist := aNorms[i] + bNorms[j] - 2*dot
				if dist < 0 {
					dist = 0
				}
				rowOut[j] = dist
			}
		}
	}, cfg)
}

// rowNorms returns the squared L2 norm of each row of a row-major [n, d] matrix.
func rowNorms[T tensor.Float](x []T, n, d int) []T {
	norms := make([]T, n)
	for i := 0; i < n; i++ {
		row := x[i*d : (i+1)*d]
		var s T
		for _, v := range row {
			s += v * v
		}
		norms[i] = s
	}
	return norms
}
