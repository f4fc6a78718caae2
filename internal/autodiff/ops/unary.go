package ops

import "github.com/godr-ml/godr/internal/tensor"

// ExpOp represents output = e^x.
type ExpOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes d(e^x)/dx = e^x, reusing the forward output.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.output.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// Inputs returns [x].
func (op *ExpOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns e^x.
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }

// LogOp represents output = ln(x).
type LogOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes d(ln(x))/dx = 1/x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	defer outputGrad.ForceNonUnique()()
	defer x.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Div(outputGrad, x)}
}

// Inputs returns [x].
func (op *LogOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns ln(x).
func (op *LogOp) Output() *tensor.RawTensor { return op.output }

// SqrtOp represents output = sqrt(x).
type SqrtOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes d(sqrt(x))/dx = 1/(2*sqrt(x)), reusing the forward output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.output.ForceNonUnique()()
	half := backend.MulScalar(backend.Div(outputGrad, op.output), 0.5)
	return []*tensor.RawTensor{half}
}

// Inputs returns [x].
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns sqrt(x).
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }
