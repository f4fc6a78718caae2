package ops

import "github.com/godr-ml/godr/internal/tensor"

// scalarOp is the common shape of single-input scalar-parameter operations.
type scalarOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	scalar float64
}

// Inputs returns [x].
func (op *scalarOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the forward result.
func (op *scalarOp) Output() *tensor.RawTensor { return op.output }

// AddScalarOp represents output = x + s. The gradient passes through.
type AddScalarOp struct{ scalarOp }

// NewAddScalarOp creates a new AddScalarOp.
func NewAddScalarOp(x, output *tensor.RawTensor, scalar float64) *AddScalarOp {
	return &AddScalarOp{scalarOp{inputs: []*tensor.RawTensor{x}, output: output, scalar: scalar}}
}

// Backward passes the gradient through unchanged.
func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// SubScalarOp represents output = x - s. The gradient passes through.
type SubScalarOp struct{ scalarOp }

// NewSubScalarOp creates a new SubScalarOp.
func NewSubScalarOp(x, output *tensor.RawTensor, scalar float64) *SubScalarOp {
	return &SubScalarOp{scalarOp{inputs: []*tensor.RawTensor{x}, output: output, scalar: scalar}}
}

// Backward passes the gradient through unchanged.
func (op *SubScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// MulScalarOp represents output = x * s.
type MulScalarOp struct{ scalarOp }

// NewMulScalarOp creates a new MulScalarOp.
func NewMulScalarOp(x, output *tensor.RawTensor, scalar float64) *MulScalarOp {
	return &MulScalarOp{scalarOp{inputs: []*tensor.RawTensor{x}, output: output, scalar: scalar}}
}

// Backward scales the gradient by s.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// DivScalarOp represents output = x / s.
type DivScalarOp struct{ scalarOp }

// NewDivScalarOp creates a new DivScalarOp.
func NewDivScalarOp(x, output *tensor.RawTensor, scalar float64) *DivScalarOp {
	return &DivScalarOp{scalarOp{inputs: []*tensor.RawTensor{x}, output: output, scalar: scalar}}
}

// Backward scales the gradient by 1/s.
func (op *DivScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
}

// PowScalarOp represents output = x^p.
type PowScalarOp struct{ scalarOp }

// NewPowScalarOp creates a new PowScalarOp.
func NewPowScalarOp(x, output *tensor.RawTensor, exponent float64) *PowScalarOp {
	return &PowScalarOp{scalarOp{inputs: []*tensor.RawTensor{x}, output: output, scalar: exponent}}
}

// Backward computes d(x^p)/dx = p * x^(p-1).
func (op *PowScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]

	defer outputGrad.ForceNonUnique()()
	defer x.ForceNonUnique()()

	deriv := backend.MulScalar(backend.PowScalar(x, op.scalar-1), op.scalar)
	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}
