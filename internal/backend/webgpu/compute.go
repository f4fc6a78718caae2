//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/godr-ml/godr/internal/tensor"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU storage buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer through a staging buffer.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) []byte {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		panic("webgpu: failed to map staging buffer: " + err.Error())
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()

	return result
}

// sizeParams packs the element count into a 16-byte aligned uniform payload.
func sizeParams(numElements int) []byte {
	params := make([]byte, 16)
	//nolint:gosec // G115: element counts are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	return params
}

// scalarParams packs element count plus an f32 scalar.
func scalarParams(numElements int, scalar float64) []byte {
	params := make([]byte, 16)
	//nolint:gosec // G115: element counts are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(float32(scalar)))
	return params
}

// dims3Params packs three u32 dimensions.
func dims3Params(d0, d1, d2 int) []byte {
	params := make([]byte, 16)
	//nolint:gosec // G115: shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(d0))
	//nolint:gosec // G115: shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(d1))
	//nolint:gosec // G115: shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(d2))
	return params
}

// gpuInput pairs a storage buffer with its bound byte size.
type gpuInput struct {
	buffer *wgpu.Buffer
	size   uint64
}

func storageInput(b *Backend, data []byte) gpuInput {
	return gpuInput{
		buffer: b.createBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc),
		size:   uint64(len(data)),
	}
}

// dispatch runs one compute pass over the given buffers and reads the result
// back into a fresh tensor of the given shape.
func (b *Backend) dispatch(
	name, code string,
	inputs []gpuInput,
	params []byte,
	resultShape tensor.Shape,
	workgroupsX, workgroupsY uint32,
) *tensor.RawTensor {
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	//nolint:gosec // G115: byte sizes are non-negative
	resultSize := uint64(resultShape.NumElements() * tensor.Float32.Size())
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	for i, in := range inputs {
		//nolint:gosec // G115: binding indices are small and non-negative
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), in.buffer, 0, in.size))
	}
	//nolint:gosec // G115: binding indices are small and non-negative
	entries = append(entries,
		wgpu.BufferBindingEntry(uint32(len(inputs)), bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(uint32(len(inputs)+1), bufferParams, 0, 16))

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(workgroupsX, workgroupsY, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	resultData := b.readBuffer(bufferResult, resultSize)

	result, err := tensor.NewRaw(resultShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic("webgpu: " + err.Error())
	}
	copy(result.Data(), resultData)
	return result
}

// runBinaryOp executes a same-shape binary element-wise operation on GPU.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, shaderName, shaderCode string) *tensor.RawTensor {
	numElements := a.NumElements()

	inA := storageInput(b, a.Data())
	defer inA.buffer.Release()
	inOther := storageInput(b, other.Data())
	defer inOther.buffer.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	return b.dispatch(shaderName, shaderCode,
		[]gpuInput{inA, inOther}, sizeParams(numElements),
		a.Shape().Clone(), workgroups, 1)
}

// runUnaryOp executes a unary element-wise operation on GPU.
func (b *Backend) runUnaryOp(input *tensor.RawTensor, shaderName, shaderCode string, params []byte) *tensor.RawTensor {
	in := storageInput(b, input.Data())
	defer in.buffer.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((input.NumElements() + workgroupSize - 1) / workgroupSize)
	return b.dispatch(shaderName, shaderCode,
		[]gpuInput{in}, params,
		input.Shape().Clone(), workgroups, 1)
}

// runMatMul executes C = A @ B on GPU. A is [M, K], B is [K, N].
func (b *Backend) runMatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	m, k, n := a.Shape()[0], a.Shape()[1], other.Shape()[1]

	inA := storageInput(b, a.Data())
	defer inA.buffer.Release()
	inOther := storageInput(b, other.Data())
	defer inOther.buffer.Release()

	workgroupsX := uint32(math.Ceil(float64(n) / 16.0))
	workgroupsY := uint32(math.Ceil(float64(m) / 16.0))
	return b.dispatch("matmul", matmulShader,
		[]gpuInput{inA, inOther}, dims3Params(m, k, n),
		tensor.Shape{m, n}, workgroupsX, workgroupsY)
}

// runSqDistances computes pairwise squared distances on GPU.
// A is [N, D], B is [M, D], result is [N, M].
func (b *Backend) runSqDistances(a, other *tensor.RawTensor) *tensor.RawTensor {
	n, d, m := a.Shape()[0], a.Shape()[1], other.Shape()[0]

	inA := storageInput(b, a.Data())
	defer inA.buffer.Release()
	inOther := storageInput(b, other.Data())
	defer inOther.buffer.Release()

	workgroupsX := uint32(math.Ceil(float64(m) / 16.0))
	workgroupsY := uint32(math.Ceil(float64(n) / 16.0))
	return b.dispatch("sqdistances", sqDistancesShader,
		[]gpuInput{inA, inOther}, dims3Params(n, m, d),
		tensor.Shape{n, m}, workgroupsX, workgroupsY)
}

// runTranspose executes a 2D transpose on GPU.
func (b *Backend) runTranspose(input *tensor.RawTensor) *tensor.RawTensor {
	rows, cols := input.Shape()[0], input.Shape()[1]

	in := storageInput(b, input.Data())
	defer in.buffer.Release()

	workgroupsX := uint32(math.Ceil(float64(cols) / 16.0))
	workgroupsY := uint32(math.Ceil(float64(rows) / 16.0))
	return b.dispatch("transpose", transposeShader,
		[]gpuInput{in}, dims3Params(rows, cols, 0),
		tensor.Shape{cols, rows}, workgroupsX, workgroupsY)
}
