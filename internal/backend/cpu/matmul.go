package cpu

import (
	"fmt"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the output are computed in parallel; the inner accumulation order
// is fixed, so results do not depend on the worker count.
func (cpu *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: incompatible shapes %v and %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := cpu.newResult("matmul", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		matmulRows(a.AsFloat32(), b.AsFloat32(), result.AsFloat32(), m, k, n, cpu.par())
	case tensor.Float64:
		matmulRows(a.AsFloat64(), b.AsFloat64(), result.AsFloat64(), m, k, n, cpu.par())
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}

	return result
}

// matmulRows computes one output row per iteration using an ikj loop order
// for cache-friendly access to b.
func matmulRows[T tensor.Float](a, b, out []T, m, k, n int, cfg parallel.Config) {
	parallel.For(m, func(i int) {
		rowOut := out[i*n : (i+1)*n]
		for j := range rowOut {
			rowOut[j] = 0
		}
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			rowB := b[p*n : (p+1)*n]
			for j := range rowOut {
				rowOut[j] += av * rowB[j]
			}
		}
	}, cfg)
}
