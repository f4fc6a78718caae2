package ne

import (
	"fmt"
	"math"

	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/tensor"
)

// umapEps shifts squared distances before exponentiation so the diagonal
// does not hit the pow singularity at zero.
const umapEps = 1e-4

// UMAP matches a fuzzy k-nearest-neighbor input graph against the rational
// output kernel q = 1/(1 + a*D^b) with a cross-entropy objective. The kernel
// constants a and b are fitted so that q approximates the MinDist membership
// curve: flat at 1 up to MinDist, exponential decay beyond it.
type UMAP[T tensor.Float] struct {
	model[T]
}

// NewUMAP creates a UMAP estimator.
func NewUMAP[T tensor.Float](cfg Config) (*UMAP[T], error) {
	m, err := newModel[T]("umap", cfg)
	if err != nil {
		return nil, err
	}
	return &UMAP[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (u *UMAP[T]) Fit(x *tensor.RawTensor) error {
	if err := u.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if u.cfg.NNeighbors < 1 || u.cfg.NNeighbors >= n {
		return fmt.Errorf("%w: n_neighbors %d must be in [1, %d)", ErrInvalidConfig, u.cfg.NNeighbors, n)
	}

	// The fuzzy graph needs the kNN search from the kernels backend even when
	// the fit loop runs dense.
	w := affinity.FuzzyKNN(x, u.cfg.NNeighbors, kernels.New())
	kernA, kernB := fitKernelParams(u.cfg.MinDist)

	inner := u.inner()
	negW := inner.Sub(offDiagMask(n, u.dtype()), w)
	// Scales the dense negative term to a sampling rate of NNeighbors
	// negatives per point.
	repWeight := float64(u.cfg.NNeighbors) / float64(n)

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		d := b.SqDistances(z, z)
		aDp := b.MulScalar(b.PowScalar(b.AddScalar(d, umapEps), kernB), kernA)
		logDen := b.Log(b.AddScalar(aDp, 1))

		attract := b.Sum(b.Mul(w, logDen))
		repulse := b.Sum(b.Mul(negW, b.Sub(logDen, b.Log(aDp))))
		return b.Add(attract, b.MulScalar(repulse, repWeight))
	}

	return u.fit(x, loss, fitHooks{})
}

// fitKernelParams fits a and b in q(d) = 1/(1 + a*d^(2b)) to the membership
// curve psi(d) = 1 for d <= minDist, exp(minDist - d) beyond, by a
// coarse-to-fine grid search on the squared error over d in (0, 3].
func fitKernelParams(minDist float64) (float64, float64) {
	const samples = 300
	dist := make([]float64, samples)
	target := make([]float64, samples)
	for i := range dist {
		d := 3 * float64(i+1) / samples
		dist[i] = d
		if d <= minDist {
			target[i] = 1
		} else {
			target[i] = math.Exp(minDist - d)
		}
	}

	sqErr := func(a, b float64) float64 {
		var sum float64
		for i, d := range dist {
			q := 1 / (1 + a*math.Pow(d, 2*b))
			diff := q - target[i]
			sum += diff * diff
		}
		return sum
	}

	aLo, aHi := 0.5, 3.0
	bLo, bHi := 0.5, 2.5
	bestA, bestB := aLo, bLo
	for round := 0; round < 3; round++ {
		best := math.Inf(1)
		const grid = 40
		for i := 0; i <= grid; i++ {
			a := aLo + (aHi-aLo)*float64(i)/grid
			for j := 0; j <= grid; j++ {
				b := bLo + (bHi-bLo)*float64(j)/grid
				if err := sqErr(a, b); err < best {
					best, bestA, bestB = err, a, b
				}
			}
		}
		aStep := (aHi - aLo) / grid
		bStep := (bHi - bLo) / grid
		aLo, aHi = bestA-aStep, bestA+aStep
		bLo, bHi = bestB-bStep, bestB+bStep
	}
	return bestA, bestB
}

// FitTransform fits and returns the embedding.
func (u *UMAP[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := u.Fit(x); err != nil {
		return nil, err
	}
	return u.Transform()
}
