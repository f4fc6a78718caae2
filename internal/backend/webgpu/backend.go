//go:build windows

// Package webgpu implements the WebGPU backend for GPU-accelerated tensor
// operations. Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO
// WebGPU bindings.
//
// Only float32 is executed on the GPU: elementwise, scalar, matmul,
// transpose, and the pairwise squared-distance kernel. Everything else
// (broadcasting, reductions, other dtypes) falls back to the dense CPU
// backend.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/tensor"
)

// Backend implements tensor operations on GPU using WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfo

	// CPU fallback for unsupported ops and dtypes.
	cpu *cpu.Backend
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: &adapterInfo,
		cpu:         cpu.New(),
	}, nil
}

// IsAvailable reports whether a WebGPU device can be initialized.
func IsAvailable() bool {
	b, err := New()
	if err != nil {
		return false
	}
	b.Release()
	return true
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	for _, s := range b.shaders {
		s.Release()
	}
	b.pipelines = nil
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return "WebGPU(" + b.adapterInfo.Device + ")"
	}
	return "WebGPU"
}

// Device returns the device this backend computes on.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// gpuEligible reports whether a same-shape float32 binary op can run on GPU.
func gpuEligible(a, other *tensor.RawTensor) bool {
	return a.DType() == tensor.Float32 && other.DType() == tensor.Float32 &&
		a.Shape().Equal(other.Shape())
}

// Add performs element-wise addition.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.cpu.Add(a, other)
	}
	return b.runBinaryOp(a, other, "add", addShader)
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.cpu.Sub(a, other)
	}
	return b.runBinaryOp(a, other, "sub", subShader)
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.cpu.Mul(a, other)
	}
	return b.runBinaryOp(a, other, "mul", mulShader)
}

// Div performs element-wise division.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.cpu.Div(a, other)
	}
	return b.runBinaryOp(a, other, "div", divShader)
}

// AddScalar adds a scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.AddScalar(x, scalar)
	}
	return b.runUnaryOp(x, "scalar_add", scalarAddShader, scalarParams(x.NumElements(), scalar))
}

// SubScalar subtracts a scalar from every element.
func (b *Backend) SubScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.SubScalar(x, scalar)
	}
	return b.runUnaryOp(x, "scalar_add", scalarAddShader, scalarParams(x.NumElements(), -scalar))
}

// MulScalar multiplies every element by a scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.MulScalar(x, scalar)
	}
	return b.runUnaryOp(x, "scalar_mul", scalarMulShader, scalarParams(x.NumElements(), scalar))
}

// DivScalar divides every element by a scalar.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.DivScalar(x, scalar)
	}
	return b.runUnaryOp(x, "scalar_mul", scalarMulShader, scalarParams(x.NumElements(), 1/scalar))
}

// PowScalar raises every element to a scalar power.
func (b *Backend) PowScalar(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.PowScalar(x, exponent)
	}
	return b.runUnaryOp(x, "scalar_pow", scalarPowShader, scalarParams(x.NumElements(), exponent))
}

// Exp computes the element-wise exponential.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.Exp(x)
	}
	return b.runUnaryOp(x, "exp", expShader, sizeParams(x.NumElements()))
}

// Log computes the element-wise natural logarithm.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.Log(x)
	}
	return b.runUnaryOp(x, "log", logShader, sizeParams(x.NumElements()))
}

// Sqrt computes the element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.Sqrt(x)
	}
	return b.runUnaryOp(x, "sqrt", sqrtShader, sizeParams(x.NumElements()))
}

// MatMul performs 2D matrix multiplication.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || other.DType() != tensor.Float32 ||
		len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return b.cpu.MatMul(a, other)
	}
	if a.Shape()[1] != other.Shape()[0] {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", a.Shape(), other.Shape()))
	}
	return b.runMatMul(a, other)
}

// SqDistances computes pairwise squared Euclidean distances between the rows
// of a and b.
func (b *Backend) SqDistances(a, other *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || other.DType() != tensor.Float32 {
		return b.cpu.SqDistances(a, other)
	}
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 || a.Shape()[1] != other.Shape()[1] {
		panic(fmt.Sprintf("sqdistances: incompatible shapes %v and %v", a.Shape(), other.Shape()))
	}
	return b.runSqDistances(a, other)
}

// Reshape returns a tensor with the same data and a new shape.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.cpu.Reshape(t, newShape)
}

// Transpose permutes tensor axes. 2D float32 runs on GPU.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if t.DType() == tensor.Float32 && len(t.Shape()) == 2 &&
		(len(axes) == 0 || (len(axes) == 2 && axes[0] == 1 && axes[1] == 0)) {
		return b.runTranspose(t)
	}
	return b.cpu.Transpose(t, axes...)
}

// Sum computes the total sum.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.cpu.Sum(x)
}

// SumDim sums along a dimension.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.cpu.SumDim(x, dim, keepDim)
}

// MeanDim averages along a dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.cpu.MeanDim(x, dim, keepDim)
}

// MaxDim takes the maximum along a dimension.
func (b *Backend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.cpu.MaxDim(x, dim, keepDim)
}

// LogSumExp computes log(sum(exp(x))) along a dimension, max-shifted.
func (b *Backend) LogSumExp(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.cpu.LogSumExp(x, dim, keepDim)
}

var _ tensor.Backend = (*Backend)(nil)
