package ne

import (
	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/tensor"
)

// SNE implements stochastic neighbor embedding: a perplexity-calibrated
// Gibbs input affinity matched against a row-normalized Gaussian output
// kernel.
//
// The loss is the cross-entropy -sum_ij P_ij log Q_ij with
// Q_ij = exp(-|z_i - z_j|^2) / sum_k exp(-|z_i - z_k|^2), which reduces to
//
//	sum(P o D) + sum_i LSE_j(-D_ij)
//
// over the pairwise squared distance matrix D with the diagonal excluded.
type SNE[T tensor.Float] struct {
	model[T]
}

// NewSNE creates an SNE estimator.
func NewSNE[T tensor.Float](cfg Config) (*SNE[T], error) {
	m, err := newModel[T]("sne", cfg)
	if err != nil {
		return nil, err
	}
	return &SNE[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (s *SNE[T]) Fit(x *tensor.RawTensor) error {
	if err := s.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if err := s.checkPerplexity(n); err != nil {
		return err
	}

	inner := s.inner()
	p := affinity.Entropic(x, s.cfg.Perplexity, inner)
	negInf := diagNegMask(n, s.dtype())

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		d := b.SqDistances(z, z)
		attract := b.Sum(b.Mul(p, d))
		repulse := b.Sum(b.LogSumExp(b.Add(b.MulScalar(d, -1), negInf), 1, false))
		return b.Add(attract, repulse)
	}

	return s.fit(x, loss, fitHooks{})
}

// FitTransform fits and returns the embedding.
func (s *SNE[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform()
}
