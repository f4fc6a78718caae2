package ops

import "github.com/godr-ml/godr/internal/tensor"

// SqDistancesOp represents pairwise squared distances between the rows of
// a [N, D] and b [M, D]: output[i,j] = |a_i - b_j|^2.
//
// Backward pass:
//
//	dL/da_i = 2 * (sum_j g_ij * a_i - sum_j g_ij * b_j)
//	        = 2 * (rowsum(g) * a - g @ b)
//	dL/db_j = 2 * (colsum(g) * b - g^T @ a)
//
// Both expressions reduce to existing primitives, so the op stays analytic
// instead of unrolling the N*M*D subtraction graph.
type SqDistancesOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqDistancesOp creates a new SqDistancesOp.
func NewSqDistancesOp(a, b, output *tensor.RawTensor) *SqDistancesOp {
	return &SqDistancesOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes the analytic input gradients.
func (op *SqDistancesOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	defer outputGrad.ForceNonUnique()()
	defer a.ForceNonUnique()()
	defer b.ForceNonUnique()()

	// [N, 1] row sums and [M, 1] column sums of the incoming gradient.
	rowSums := backend.SumDim(outputGrad, 1, true)
	colSums := backend.Transpose(backend.SumDim(outputGrad, 0, true), 1, 0)

	gradA := backend.MulScalar(
		backend.Sub(backend.Mul(a, rowSums), backend.MatMul(outputGrad, b)), 2)
	gradB := backend.MulScalar(
		backend.Sub(backend.Mul(b, colSums), backend.MatMul(backend.Transpose(outputGrad, 1, 0), a)), 2)

	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns [a, b].
func (op *SqDistancesOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the [N, M] distance matrix.
func (op *SqDistancesOp) Output() *tensor.RawTensor { return op.output }
