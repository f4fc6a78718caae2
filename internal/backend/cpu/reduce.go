package cpu

import (
	"fmt"
	"math"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// Sum reduces all elements to a single value with shape [1].
// Accumulation is sequential so results are reproducible across runs.
func (cpu *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult("sum", tensor.Shape{1}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		var acc float64
		for _, v := range x.AsFloat32() {
			acc += float64(v)
		}
		result.AsFloat32()[0] = float32(acc)
	case tensor.Float64:
		var acc float64
		for _, v := range x.AsFloat64() {
			acc += v
		}
		result.AsFloat64()[0] = acc
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// SumDim sums tensor elements along the specified dimension.
// Supports negative indexing (-1 = last dimension). With keepDim the reduced
// dimension is kept with size 1, otherwise it is removed.
func (cpu *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = normalizeDim("sumdim", dim, len(x.Shape()))
	result := cpu.newResult("sumdim", reducedShape(x.Shape(), dim, keepDim), x.DType())

	switch x.DType() {
	case tensor.Float32:
		reduceDim(x.AsFloat32(), result.AsFloat32(), x.Shape(), dim, cpu.par(),
			func(acc, v float32) float32 { return acc + v }, 0)
	case tensor.Float64:
		reduceDim(x.AsFloat64(), result.AsFloat64(), x.Shape(), dim, cpu.par(),
			func(acc, v float64) float64 { return acc + v }, 0)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// MeanDim computes the mean along the specified dimension.
func (cpu *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	divisor := float64(shape[normalizeDim("meandim", dim, len(shape))])

	sumResult := cpu.SumDim(x, dim, keepDim)
	return cpu.DivScalar(sumResult, divisor)
}

// MaxDim computes the maximum along the specified dimension.
func (cpu *Backend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = normalizeDim("maxdim", dim, len(x.Shape()))
	result := cpu.newResult("maxdim", reducedShape(x.Shape(), dim, keepDim), x.DType())

	switch x.DType() {
	case tensor.Float32:
		reduceDim(x.AsFloat32(), result.AsFloat32(), x.Shape(), dim, cpu.par(),
			func(acc, v float32) float32 { return max(acc, v) }, float32(math.Inf(-1)))
	case tensor.Float64:
		reduceDim(x.AsFloat64(), result.AsFloat64(), x.Shape(), dim, cpu.par(),
			func(acc, v float64) float64 { return max(acc, v) }, math.Inf(-1))
	default:
		panic(fmt.Sprintf("maxdim: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// LogSumExp computes log(sum(exp(x))) along a dimension with the max-shift
// trick. Rows that are entirely -Inf produce -Inf, not NaN.
func (cpu *Backend) LogSumExp(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = normalizeDim("logsumexp", dim, len(x.Shape()))
	result := cpu.newResult("logsumexp", reducedShape(x.Shape(), dim, keepDim), x.DType())

	switch x.DType() {
	case tensor.Float32:
		logSumExpDim(x.AsFloat32(), result.AsFloat32(), x.Shape(), dim, cpu.par())
	case tensor.Float64:
		logSumExpDim(x.AsFloat64(), result.AsFloat64(), x.Shape(), dim, cpu.par())
	default:
		panic(fmt.Sprintf("logsumexp: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// normalizeDim resolves negative dimension indices and validates the range.
func normalizeDim(op string, dim, ndim int) int {
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", op, dim, ndim))
	}
	return dim
}

// reducedShape computes the output shape of a reduction along dim.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}

// reduceDim folds acc over the reduced dimension. The input is viewed as
// [outer, dimSize, inner] in row-major order; each output element folds one
// run of dimSize values in a fixed order, so parallelism over output elements
// never changes accumulation order.
func reduceDim[T tensor.Float](
	src, dst []T,
	shape tensor.Shape,
	dim int,
	cfg parallel.Config,
	acc func(acc, v T) T,
	init T,
) {
	outer, dimSize, inner := splitDims(shape, dim)

	parallel.For(outer, func(o int) {
		base := o * dimSize * inner
		for i := 0; i < inner; i++ {
			v := init
			for k := 0; k < dimSize; k++ {
				v = acc(v, src[base+k*inner+i])
			}
			dst[o*inner+i] = v
		}
	}, cfg)
}

func logSumExpDim[T tensor.Float](src, dst []T, shape tensor.Shape, dim int, cfg parallel.Config) {
	outer, dimSize, inner := splitDims(shape, dim)

	parallel.For(outer, func(o int) {
		base := o * dimSize * inner
		for i := 0; i < inner; i++ {
			maxVal := math.Inf(-1)
			for k := 0; k < dimSize; k++ {
				maxVal = max(maxVal, float64(src[base+k*inner+i]))
			}
			if math.IsInf(maxVal, -1) {
				dst[o*inner+i] = T(maxVal)
				continue
			}
			var sum float64
			for k := 0; k < dimSize; k++ {
				sum += math.Exp(float64(src[base+k*inner+i]) - maxVal)
			}
			dst[o*inner+i] = T(math.Log(sum) + maxVal)
		}
	}, cfg)
}

// splitDims factors a shape into [outer, dimSize, inner] around dim.
func splitDims(shape tensor.Shape, dim int) (outer, dimSize, inner int) {
	outer, dimSize, inner = 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, dimSize, inner
}
