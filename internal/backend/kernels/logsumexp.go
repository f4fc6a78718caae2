package kernels

import (
	"fmt"
	"math"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// LogSumExp computes log(sum(exp(x))) along the last dimension of a 2D tensor
// with a single fused max-and-sum pass per row. Other shapes and dimensions
// fall back to the CPU backend.
func (k *Backend) LogSumExp(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 || (dim != 1 && dim != -1) {
		return k.Backend.LogSumExp(x, dim, keepDim)
	}

	n, m := shape[0], shape[1]
	outShape := tensor.Shape{n}
	if keepDim {
		outShape = tensor.Shape{n, 1}
	}

	result, err := tensor.NewRaw(outShape, x.DType(), tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("logsumexp: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		fusedRowLSE(x.AsFloat32(), result.AsFloat32(), n, m, k.par())
	case tensor.Float64:
		fusedRowLSE(x.AsFloat64(), result.AsFloat64(), n, m, k.par())
	default:
		panic(fmt.Sprintf("logsumexp: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// fusedRowLSE streams each row once to find the max, then once to accumulate
// shifted exponentials. Rows that are entirely -Inf produce -Inf.
func fusedRowLSE[T tensor.Float](src, dst []T, n, m int, cfg parallel.Config) {
	parallel.ForChunks(n, func(start, end int) {
		for i := start; i < end; i++ {
			row := src[i*m : (i+1)*m]

			maxVal := math.Inf(-1)
			for _, v := range row {
				maxVal = max(maxVal, float64(v))
			}
			if math.IsInf(maxVal, -1) {
				dst[i] = T(maxVal)
				continue
			}

			var sum float64
			for _, v := range row {
				sum += math.Exp(float64(v) - maxVal)
			}
			dst[i] = T(math.Log(sum) + maxVal)
		}
	}, cfg)
}
