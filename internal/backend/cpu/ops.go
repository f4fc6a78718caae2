package cpu

import (
	"github.com/godr-ml/godr/internal/tensor"
)

// ewInplace applies f element-wise into a (a[i] = f(a[i], b[i])).
// Requires: len(a) == len(b) and a's buffer is unique.
func ewInplace[T tensor.Float](a, b []T, f func(x, y T) T) {
	for i := range a {
		a[i] = f(a[i], b[i])
	}
}

// ewVectorized applies f element-wise: dst[i] = f(a[i], b[i]).
// Requires: equal lengths.
func ewVectorized[T tensor.Float](dst, a, b []T, f func(x, y T) T) {
	for i := range dst {
		dst[i] = f(a[i], b[i])
	}
}

// ewBroadcast applies f element-wise with stride-zero broadcasting.
func ewBroadcast[T tensor.Float](
	dst, a, b []T,
	aShape, bShape, outShape tensor.Shape,
	f func(x, y T) T,
) {
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		ai := flatIndex(i, outStrides, aStrides)
		bi := flatIndex(i, outStrides, bStrides)
		dst[i] = f(a[ai], b[bi])
	}
}

// broadcastStrides computes strides for reading inShape as if it had outShape.
// Broadcast dimensions (size 1 or missing) get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// flatIndex maps a flat output index to the flat index in a broadcast input.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flatIdx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flatIdx += coord * inStrides[i]
	}
	return flatIdx
}

// transposeData permutes src's dimensions by axes into result.
func transposeData(result, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeSlice(result.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeSlice(result.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	default:
		panic("transpose: unsupported dtype")
	}
}

func transposeSlice[T tensor.Float](dst, src []T, srcShape tensor.Shape, axes []int) {
	ndim := len(srcShape)
	srcStrides := srcShape.ComputeStrides()

	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = srcShape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	coords := make([]int, ndim)
	for i := range dst {
		rem := i
		for d := 0; d < ndim; d++ {
			coords[d] = rem / dstStrides[d]
			rem %= dstStrides[d]
		}
		srcIdx := 0
		for d := 0; d < ndim; d++ {
			srcIdx += coords[d] * srcStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
}
