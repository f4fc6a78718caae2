// Package cpu implements the CPU backend with broadcasting, inplace fast
// paths, and chunked parallel kernels.
package cpu

import (
	"fmt"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// Backend implements tensor operations on CPU.
type Backend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *Backend) Device() tensor.Device {
	return cpu.device
}

// par returns the parallel config for the current execution mode.
// Deterministic mode forces sequential accumulation.
func (cpu *Backend) par() parallel.Config {
	if tensor.Deterministic() {
		return parallel.Sequential()
	}
	return parallel.DefaultConfig()
}

// newResult allocates an output tensor, panicking with the op name on failure.
func (cpu *Backend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binaryOp dispatches an element-wise binary operation.
// Fast paths: inplace into a when it is the sole buffer reference, vectorized
// when shapes match exactly. Broadcasting falls back to stride-zero indexing.
func (cpu *Backend) binaryOp(
	op string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			switch a.DType() {
			case tensor.Float32:
				ewInplace(a.AsFloat32(), b.AsFloat32(), f32)
			case tensor.Float64:
				ewInplace(a.AsFloat64(), b.AsFloat64(), f64)
			default:
				panic(op + ": unsupported dtype")
			}
			return a
		}

		result := cpu.newResult(op, outShape, a.DType())
		switch a.DType() {
		case tensor.Float32:
			ewVectorized(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f32)
		case tensor.Float64:
			ewVectorized(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f64)
		default:
			panic(op + ": unsupported dtype")
		}
		return result
	}

	result := cpu.newResult(op, outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		ewBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, f32)
	case tensor.Float64:
		ewBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, f64)
	default:
		panic(op + ": unsupported dtype")
	}
	return result
}
