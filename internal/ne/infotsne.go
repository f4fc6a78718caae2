package ne

import (
	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/tensor"
)

// InfoTSNE implements the contrastive (InfoNCE) variant of t-SNE: the
// Student-t kernel is normalized per row over a negative sample set instead
// of globally, so the repulsion term becomes
//
//	sum_i log( sum_{j in neg(i)} (1 + D_ij)^-1 )
//
// against a row-stochastic entropic input affinity. With NNegatives == 0 all
// non-self points act as negatives.
type InfoTSNE[T tensor.Float] struct {
	model[T]
}

// NewInfoTSNE creates an InfoTSNE estimator.
func NewInfoTSNE[T tensor.Float](cfg Config) (*InfoTSNE[T], error) {
	m, err := newModel[T]("infotsne", cfg)
	if err != nil {
		return nil, err
	}
	return &InfoTSNE[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (t *InfoTSNE[T]) Fit(x *tensor.RawTensor) error {
	if err := t.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if err := t.checkPerplexity(n); err != nil {
		return err
	}

	inner := t.inner()
	p := affinity.Entropic(x, t.cfg.Perplexity, inner)
	negMask := sampleMask(n, t.cfg.NNegatives, t.cfg.RandomState, t.dtype())

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		d := b.SqDistances(z, z)
		onePlusD := b.AddScalar(d, 1)

		attract := b.Sum(b.Mul(p, b.Log(onePlusD)))
		rowMass := b.SumDim(b.Div(negMask, onePlusD), 1, false)
		repulse := b.Sum(b.Log(rowMass))
		return b.Add(attract, repulse)
	}

	return t.fit(x, loss, fitHooks{})
}

// FitTransform fits and returns the embedding.
func (t *InfoTSNE[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := t.Fit(x); err != nil {
		return nil, err
	}
	return t.Transform()
}
