package ops

import "github.com/godr-ml/godr/internal/tensor"

// SumOp represents a full reduction: output = sum(x), shape [1].
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward broadcasts the scalar gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandTo(outputGrad, op.inputs[0].Shape(), backend)}
}

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns sum(x).
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp represents a reduction along one dimension.
type SumDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     normalizeDim(dim, len(x.Shape())),
		keepDim: keepDim,
	}
}

// Backward broadcasts the gradient back along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]

	grad := outputGrad
	if !op.keepDim {
		defer outputGrad.ForceNonUnique()()
		grad = backend.Reshape(outputGrad, keepDimShape(x.Shape(), op.dim))
	}

	return []*tensor.RawTensor{expandTo(grad, x.Shape(), backend)}
}

// Inputs returns [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp represents a mean reduction along one dimension.
type MeanDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     normalizeDim(dim, len(x.Shape())),
		keepDim: keepDim,
	}
}

// Backward broadcasts the gradient divided by the reduced dimension size.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	dimSize := float64(x.Shape()[op.dim])

	defer outputGrad.ForceNonUnique()()
	grad := backend.DivScalar(outputGrad, dimSize)
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(x.Shape(), op.dim))
	}

	return []*tensor.RawTensor{expandTo(grad, x.Shape(), backend)}
}

// Inputs returns [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }

// LogSumExpOp represents output = log(sum(exp(x))) along one dimension.
type LogSumExpOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewLogSumExpOp creates a new LogSumExpOp.
func NewLogSumExpOp(x, output *tensor.RawTensor, dim int, keepDim bool) *LogSumExpOp {
	return &LogSumExpOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     normalizeDim(dim, len(x.Shape())),
		keepDim: keepDim,
	}
}

// Backward computes d/dx = softmax(x) * grad: exp(x - lse) broadcast against
// the expanded gradient. The forward output is reused as the shift.
func (op *LogSumExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]

	lse := op.output
	grad := outputGrad
	if !op.keepDim {
		defer outputGrad.ForceNonUnique()()
		defer op.output.ForceNonUnique()()
		shape := keepDimShape(x.Shape(), op.dim)
		lse = backend.Reshape(op.output, shape)
		grad = backend.Reshape(outputGrad, shape)
	}

	defer x.ForceNonUnique()()
	softmax := backend.Exp(backend.Sub(x, lse))
	return []*tensor.RawTensor{backend.Mul(softmax, expandTo(grad, x.Shape(), backend))}
}

// Inputs returns [x].
func (op *LogSumExpOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduced tensor.
func (op *LogSumExpOp) Output() *tensor.RawTensor { return op.output }
