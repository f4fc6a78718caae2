package ne

import (
	"math"

	"github.com/godr-ml/godr/internal/affinity"
	"github.com/godr-ml/godr/internal/tensor"
)

const (
	// cosneEps keeps the arcosh sqrt argument positive at zero distance.
	cosneEps = 1e-12
	// ballMax caps embedding norms strictly inside the unit ball.
	ballMax = 0.99
)

// COSNE embeds into the Poincare disk: a symmetrized entropic input affinity
// is matched against the hyperbolic Student kernel 1/(1 + Gamma*dP^2), where
// dP is the Poincare distance
//
//	dP(u, v) = arcosh(1 + 2|u-v|^2 / ((1-|u|^2)(1-|v|^2)))
//
// Lambda1 adds a term pulling each point's hyperbolic norm towards the
// Euclidean norm of its input row. Gradients are rescaled by the inverse
// Poincare metric and points are projected back inside the ball after every
// step.
type COSNE[T tensor.Float] struct {
	model[T]
}

// NewCOSNE creates a COSNE estimator.
func NewCOSNE[T tensor.Float](cfg Config) (*COSNE[T], error) {
	m, err := newModel[T]("cosne", cfg)
	if err != nil {
		return nil, err
	}
	return &COSNE[T]{model: m}, nil
}

// Fit learns the embedding of x.
func (c *COSNE[T]) Fit(x *tensor.RawTensor) error {
	if err := c.validateInput(x); err != nil {
		return err
	}
	n := x.Shape()[0]
	if err := c.checkPerplexity(n); err != nil {
		return err
	}

	inner := c.inner()
	p := affinity.EntropicSymmetric(x, c.cfg.Perplexity, inner)
	mask := offDiagMask(n, c.dtype())
	xNorms := inputNorms(x)
	gamma := c.cfg.Gamma
	lambda1 := c.cfg.Lambda1

	loss := func(b tensor.Backend, z *tensor.RawTensor, _ int) *tensor.RawTensor {
		sqNorm := b.SumDim(b.Mul(z, z), 1, true)
		oneMinus := b.MulScalar(b.SubScalar(sqNorm, 1), -1)

		d := b.SqDistances(z, z)
		denom := b.MatMul(oneMinus, b.Transpose(oneMinus, 1, 0))
		u := b.AddScalar(b.MulScalar(b.Div(d, denom), 2), 1)
		root := b.Sqrt(b.AddScalar(b.SubScalar(b.Mul(u, u), 1), cosneEps))
		dP := b.Log(b.Add(u, root))
		kernDen := b.AddScalar(b.MulScalar(b.Mul(dP, dP), gamma), 1)

		attract := b.Sum(b.Mul(p, b.Log(kernDen)))
		repulse := b.Log(b.Sum(b.Div(mask, kernDen)))
		total := b.Add(attract, repulse)

		if lambda1 != 0 {
			u0 := b.AddScalar(b.MulScalar(b.Div(sqNorm, oneMinus), 2), 1)
			root0 := b.Sqrt(b.AddScalar(b.SubScalar(b.Mul(u0, u0), 1), cosneEps))
			hNorm := b.Log(b.Add(u0, root0))
			diff := b.Sub(hNorm, xNorms)
			total = b.Add(total, b.MulScalar(b.Sum(b.Mul(diff, diff)), lambda1))
		}
		return total
	}

	hooks := fitHooks{
		scaleGrad: riemannianScale,
		postStep:  projectToBall,
		initStd:   1e-3,
	}
	return c.fit(x, loss, hooks)
}

// inputNorms returns the Euclidean norm of each row of x as an [n, 1] constant.
func inputNorms(x *tensor.RawTensor) *tensor.RawTensor {
	n, d := x.Shape()[0], x.Shape()[1]
	values := readFloat64(x)
	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		var sq float64
		for j := 0; j < d; j++ {
			v := values[i*d+j]
			sq += v * v
		}
		norms[i] = math.Sqrt(sq)
	}
	return constant(norms, tensor.Shape{n, 1}, x.DType())
}

// riemannianScale converts the Euclidean gradient to the Poincare ball
// gradient by scaling each row with (1 - |z_i|^2)^2 / 4.
func riemannianScale(z, grad *tensor.RawTensor) {
	n, d := z.Shape()[0], z.Shape()[1]
	zv := readFloat64(z)
	gv := readFloat64(grad)
	for i := 0; i < n; i++ {
		var sq float64
		for j := 0; j < d; j++ {
			v := zv[i*d+j]
			sq += v * v
		}
		f := 1 - sq
		f = f * f / 4
		for j := 0; j < d; j++ {
			gv[i*d+j] *= f
		}
	}
	writeFloat64(grad, gv)
}

// projectToBall rescales rows that left the radius ballMax back onto it.
func projectToBall(z *tensor.RawTensor) {
	n, d := z.Shape()[0], z.Shape()[1]
	zv := readFloat64(z)
	changed := false
	for i := 0; i < n; i++ {
		var sq float64
		for j := 0; j < d; j++ {
			v := zv[i*d+j]
			sq += v * v
		}
		if norm := math.Sqrt(sq); norm >= ballMax {
			scale := ballMax / norm
			for j := 0; j < d; j++ {
				zv[i*d+j] *= scale
			}
			changed = true
		}
	}
	if changed {
		writeFloat64(z, zv)
	}
}

// FitTransform fits and returns the embedding.
func (c *COSNE[T]) FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := c.Fit(x); err != nil {
		return nil, err
	}
	return c.Transform()
}
