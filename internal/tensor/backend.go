package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - cpu: dense pure-Go backend with broadcasting and inplace fast paths
//   - kernels: fused pairwise-kernel backend (chunked parallel reductions)
//   - webgpu: GPU backend via WebGPU compute shaders
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with scalar)
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	SubScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	DivScalar(x *RawTensor, scalar float64) *RawTensor
	PowScalar(x *RawTensor, exponent float64) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor  // exponential
	Log(x *RawTensor) *RawTensor  // natural logarithm
	Sqrt(x *RawTensor) *RawTensor // square root

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// SqDistances computes pairwise squared Euclidean distances between the
	// rows of a [N, D] and b [M, D], producing an [N, M] tensor. This is the
	// workhorse of every neighbor-embedding affinity and loss.
	SqDistances(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                             // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor   // sum along dimension
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // mean along dimension
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor   // max along dimension
	LogSumExp(x *RawTensor, dim int, keepDim bool) *RawTensor // log(sum(exp(x))) along dimension, max-shifted

	// Metadata
	Name() string
	Device() Device
}
