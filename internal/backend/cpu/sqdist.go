package cpu

import (
	"fmt"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// SqDistances computes pairwise squared Euclidean distances between the rows
// of a [N, D] and b [M, D], producing [N, M].
//
// The direct formulation sum((a_i - b_j)^2) is used instead of the expanded
// norms-plus-dot-product form: it never goes negative from cancellation, so
// downstream log and sqrt stay finite.
func (cpu *Backend) SqDistances(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("sqdistances: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[1] {
		panic(fmt.Sprintf("sqdistances: feature dimensions differ: %v vs %v", aShape, bShape))
	}

	n, m, d := aShape[0], bShape[0], aShape[1]
	result := cpu.newResult("sqdistances", tensor.Shape{n, m}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		sqDistRows(a.AsFloat32(), b.AsFloat32(), result.AsFloat32(), n, m, d, cpu.par())
	case tensor.Float64:
		sqDistRows(a.AsFloat64(), b.AsFloat64(), result.AsFloat64(), n, m, d, cpu.par())
	default:
		panic(fmt.Sprintf("sqdistances: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}

	return result
}

func sqDistRows[T tensor.Float](a, b, out []T, n, m, d int, cfg parallel.Config) {
	parallel.For(n, func(i int) {
		rowA := a[i*d : (i+1)*d]
		rowOut := out[i*m : (i+1)*m]
		for j := 0; j < m; j++ {
			rowB := b[j*d : (j+1)*d]
			var dist T
			for k := range rowA {
				diff := rowA[k] - rowB[k]
				dist += diff * diff
			}
			rowOut[j] = dist
		}
	}, cfg)
}
