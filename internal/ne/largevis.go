package ne

import (
	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/tensor"
)

// largevisEps keeps log(D) finite when two embedded points coincide.
const largevisEps = 1e-5

// LargeVis matches a symmetrized entropic input affinity against the
// Student-t kernel with a binary cross-entropy objective. Writing
// q = 1/(1+D), the loss is
//
//	-sum P o log(q) - gamma * sum_neg log(1 - q)
//	  = sum(P o log(1+D)) + gamma * sum_neg (log(1+D) - log(D))
//
// where neg is the negative set: NNegatives sampled non-self points per row,
// or all of them when NNegatives == 0. GammaRep weighs the repulsion.
type LargeVis[T tensor.Float] struct {
	model[T]
}

// NewLargeVis creates a LargeVis estimator.
func NewLargeVis[T tensor.Float](cfg Config) (*LargeVis[T], error) {
	m, err := newModel[T]("largevis", cfg)
	if err != nil {
		return nil, err
	}
	return &LargeVis[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (l *LargeVis[T]) Fit(x *tensor.RawTensor) error {
	if err := l.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if err := l.checkPerplexity(n); err != nil {
		return err
	}

	inner := l.inner()
	p := affinity.EntropicSymmetric(x, l.cfg.Perplexity, inner)
	negMask := sampleMask(n, l.cfg.NNegatives, l.cfg.RandomState, l.dtype())
	gamma := l.cfg.GammaRep

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		d := b.SqDistances(z, z)
		logOnePlusD := b.Log(b.AddScalar(d, 1))

		attract := b.Sum(b.Mul(p, logOnePlusD))
		perPair := b.Sub(logOnePlusD, b.Log(b.AddScalar(d, largevisEps)))
		repulse := b.MulScalar(b.Sum(b.Mul(negMask, perPair)), gamma)
		return b.Add(attract, repulse)
	}

	return l.fit(x, loss, fitHooks{})
}

// FitTransform fits and returns the embedding.
func (l *LargeVis[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := l.Fit(x); err != nil {
		return nil, err
	}
	return l.Transform()
}
