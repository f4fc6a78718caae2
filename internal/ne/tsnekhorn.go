package ne

import (
	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/tensor"
)

// TSNEkhorn matches a doubly stochastic entropic input affinity (computed by
// symmetric Sinkhorn iterations) against a Gibbs output kernel.
//
// With Unrolling > 0 the output kernel itself is pushed towards double
// stochasticity inside the loss: each unrolling step subtracts the row
// log-sum-exp and resymmetrizes, and gradients flow through the
// normalization. With Unrolling == 0 the kernel is only globally normalized.
type TSNEkhorn[T tensor.Float] struct {
	model[T]
}

// NewTSNEkhorn creates a TSNEkhorn estimator.
func NewTSNEkhorn[T tensor.Float](cfg Config) (*TSNEkhorn[T], error) {
	m, err := newModel[T]("tsnekhorn", cfg)
	if err != nil {
		return nil, err
	}
	return &TSNEkhorn[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (t *TSNEkhorn[T]) Fit(x *tensor.RawTensor) error {
	if err := t.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if err := t.checkPerplexity(n); err != nil {
		return err
	}

	inner := t.inner()
	p := affinity.Sinkhorn(x, affinity.SinkhornConfig{
		Perplexity: t.cfg.Perplexity,
		MaxIter:    t.cfg.MaxIterAffinityIn,
		LR:         t.cfg.LRAffinityIn,
	}, inner)
	negInf := diagNegMask(n, t.dtype())

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		d := b.SqDistances(z, z)
		logK := b.Add(b.MulScalar(d, -1), negInf)

		for r := 0; r < t.cfg.Unrolling; r++ {
			rowLSE := b.LogSumExp(logK, 1, true)
			logK = b.Sub(logK, rowLSE)
			logK = b.MulScalar(b.Add(logK, b.Transpose(logK, 1, 0)), 0.5)
		}

		// Global normalization in the log domain.
		flat := b.Reshape(logK, tensor.Shape{1, n * n})
		logZ := b.LogSumExp(flat, 1, false)
		logQ := b.Sub(logK, logZ)

		return b.MulScalar(b.Sum(b.Mul(p, logQ)), -1)
	}

	return t.fit(x, loss, fitHooks{})
}

// FitTransform fits and returns the embedding.
func (t *TSNEkhorn[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := t.Fit(x); err != nil {
		return nil, err
	}
	return t.Transform()
}
