package ne

import (
	"fmt"

	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/tensor"
)

// PACMAP optimizes three sampled pair sets against the shifted Student
// kernel dT = 1 + |z_i - z_j|^2:
//
//	neighbors: dT / (10 + dT)
//	mid-near:  dT / (10000 + dT)
//	further:   1 / (1 + dT)
//
// The term weights follow a three-phase schedule: the mid-near weight anneals
// from 1000 to 3 over the first 10% of iterations to establish global
// structure, stays at 3 until 40%, then drops to zero for local refinement.
type PACMAP[T tensor.Float] struct {
	model[T]
}

// NewPACMAP creates a PACMAP estimator.
func NewPACMAP[T tensor.Float](cfg Config) (*PACMAP[T], error) {
	m, err := newModel[T]("pacmap", cfg)
	if err != nil {
		return nil, err
	}
	return &PACMAP[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (p *PACMAP[T]) Fit(x *tensor.RawTensor) error {
	if err := p.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if n <= 7 {
		return fmt.Errorf("%w: mid-near sampling needs more than 7 samples, got %d", ErrInvalidConfig, n)
	}

	pairs := affinity.SamplePACMAPPairs(x, affinity.PACMAPConfig{
		NNeighbors: p.cfg.NNeighbors,
		MNRatio:    p.cfg.MNRatio,
		FPRatio:    p.cfg.FPRatio,
		Seed:       p.cfg.RandomState,
	}, kernels.New())

	dtype := p.dtype()
	maskNB := pairMask(pairs.Neighbors, n, dtype)
	maskMN := pairMask(pairs.MidNear, n, dtype)
	maskFP := pairMask(pairs.Further, n, dtype)
	maxIter := p.cfg.MaxIter

	loss := func(b tensor.Backend, z *tensor.RawTensor, iter int) *tensor.RawTensor {
		wNB, wMN, wFP := pacmapWeights(iter, maxIter)

		d := b.SqDistances(z, z)
		dT := b.AddScalar(d, 1)

		nb := b.Sum(b.Mul(maskNB, b.Div(dT, b.AddScalar(dT, 10))))
		mn := b.Sum(b.Mul(maskMN, b.Div(dT, b.AddScalar(dT, 10000))))
		fp := b.Sum(b.Mul(maskFP, b.Div(onesLike(maskFP), b.AddScalar(dT, 1))))

		total := b.Add(b.MulScalar(nb, wNB), b.MulScalar(fp, wFP))
		if wMN != 0 {
			total = b.Add(total, b.MulScalar(mn, wMN))
		}
		return total
	}

	return p.fit(x, loss, fitHooks{})
}

// pacmapWeights returns the phase-scheduled term weights for one iteration.
func pacmapWeights(iter, maxIter int) (wNB, wMN, wFP float64) {
	phase1 := maxIter / 10
	phase2 := (maxIter * 4) / 10
	switch {
	case iter < phase1:
		f := float64(iter) / float64(phase1)
		return 2, 1000*(1-f) + 3*f, 1
	case iter < phase2:
		return 3, 3, 1
	default:
		return 1, 0, 1
	}
}

// pairMask scatters sampled pairs into a dense [n, n] indicator.
func pairMask(pairs []affinity.Pair, n int, dtype tensor.DataType) *tensor.RawTensor {
	values := make([]float64, n*n)
	for _, pr := range pairs {
		values[int(pr.I)*n+int(pr.J)] = 1
	}
	return constant(values, tensor.Shape{n, n}, dtype)
}

// onesLike builds an all-ones constant with the shape and dtype of r.
func onesLike(r *tensor.RawTensor) *tensor.RawTensor {
	values := make([]float64, r.Shape().NumElements())
	for i := range values {
		values[i] = 1
	}
	return constant(values, r.Shape(), r.DType())
}

// FitTransform fits and returns the embedding.
func (p *PACMAP[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := p.Fit(x); err != nil {
		return nil, err
	}
	return p.Transform()
}
