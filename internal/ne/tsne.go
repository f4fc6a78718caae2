package ne

import (
	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/tensor"
)

// TSNE implements t-distributed stochastic neighbor embedding: a symmetrized
// entropic input affinity matched against a globally normalized Student-t
// output kernel.
//
// With W_ij = (1 + |z_i - z_j|^2)^-1 and Q = W / sum(W), the cross-entropy
// -sum_ij P_ij log Q_ij reduces to
//
//	sum(P o log(1 + D)) + log(sum_offdiag W)
//
// because P sums to one.
type TSNE[T tensor.Float] struct {
	model[T]
}

// NewTSNE creates a TSNE estimator.
func NewTSNE[T tensor.Float](cfg Config) (*TSNE[T], error) {
	m, err := newModel[T]("tsne", cfg)
	if err != nil {
		return nil, err
	}
	return &TSNE[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (t *TSNE[T]) Fit(x *tensor.RawTensor) error {
	if err := t.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if err := t.checkPerplexity(n); err != nil {
		return err
	}

	inner := t.inner()
	p := affinity.EntropicSymmetric(x, t.cfg.Perplexity, inner)
	mask := offDiagMask(n, t.dtype())

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		d := b.SqDistances(z, z)
		onePlusD := b.AddScalar(d, 1)

		attract := b.Sum(b.Mul(p, b.Log(onePlusD)))
		// The mask numerator zeroes the diagonal of W for free.
		repulse := b.Log(b.Sum(b.Div(mask, onePlusD)))
		return b.Add(attract, repulse)
	}

	return t.fit(x, loss, fitHooks{})
}

// FitTransform fits and returns the embedding.
func (t *TSNE[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := t.Fit(x); err != nil {
		return nil, err
	}
	return t.Transform()
}
