package cpu

import (
	"math"

	"github.com/godr-ml/godr/internal/tensor"
)

// AddScalar adds a scalar to each element.
func (cpu *Backend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("add_scalar", x,
		func(v float32) float32 { return v + float32(scalar) },
		func(v float64) float64 { return v + scalar })
}

// SubScalar subtracts a scalar from each element.
func (cpu *Backend) SubScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("sub_scalar", x,
		func(v float32) float32 { return v - float32(scalar) },
		func(v float64) float64 { return v - scalar })
}

// MulScalar multiplies each element by a scalar.
func (cpu *Backend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("mul_scalar", x,
		func(v float32) float32 { return v * float32(scalar) },
		func(v float64) float64 { return v * scalar })
}

// DivScalar divides each element by a scalar.
func (cpu *Backend) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("div_scalar", x,
		func(v float32) float32 { return v / float32(scalar) },
		func(v float64) float64 { return v / scalar })
}

// PowScalar raises each element to the given power.
func (cpu *Backend) PowScalar(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	return cpu.unaryOp("pow_scalar", x,
		func(v float32) float32 { return float32(math.Pow(float64(v), exponent)) },
		func(v float64) float64 { return math.Pow(v, exponent) })
}

// unaryOp dispatches an element-wise unary operation with an inplace fast path.
func (cpu *Backend) unaryOp(
	op string,
	x *tensor.RawTensor,
	f32 func(v float32) float32,
	f64 func(v float64) float64,
) *tensor.RawTensor {
	if x.IsUnique() {
		switch x.DType() {
		case tensor.Float32:
			mapInplace(x.AsFloat32(), f32)
		case tensor.Float64:
			mapInplace(x.AsFloat64(), f64)
		default:
			panic(op + ": unsupported dtype")
		}
		return x
	}

	result := cpu.newResult(op, x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		mapVectorized(result.AsFloat32(), x.AsFloat32(), f32)
	case tensor.Float64:
		mapVectorized(result.AsFloat64(), x.AsFloat64(), f64)
	default:
		panic(op + ": unsupported dtype")
	}
	return result
}

func mapInplace[T tensor.Float](x []T, f func(v T) T) {
	for i := range x {
		x[i] = f(x[i])
	}
}

func mapVectorized[T tensor.Float](dst, src []T, f func(v T) T) {
	for i := range dst {
		dst[i] = f(src[i])
	}
}
