package affinity

import (
	"math"

	"github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/tensor"
)

// smoothKNNIters bounds the per-row bisection on the bandwidth sigma.
const smoothKNNIters = 64

// FuzzyKNN computes the fuzzy simplicial set affinity over the exact
// k-nearest-neighbor graph.
//
// Per row, distances are shifted by the nearest neighbor distance rho_i and a
// bandwidth sigma_i is calibrated so the total membership equals log2(k).
// Directed memberships are combined by fuzzy union: P = W + W^T - W o W^T.
func FuzzyKNN(x *tensor.RawTensor, nNeighbors int, backend *kernels.Backend) *tensor.RawTensor {
	n := x.Shape()[0]
	nn := backend.KNN(x, nNeighbors)

	w := make([]float64, n*n)
	target := math.Log2(float64(nNeighbors))

	for i := 0; i < n; i++ {
		dists := make([]float64, len(nn.SqDists[i]))
		for j, d := range nn.SqDists[i] {
			dists[j] = math.Sqrt(d)
		}

		rho := dists[0]
		sigma := calibrateSigma(dists, rho, target)

		for j, idx := range nn.Indices[i] {
			shifted := dists[j] - rho
			if shifted < 0 {
				shifted = 0
			}
			w[i*n+int(idx)] = math.Exp(-shifted / sigma)
		}
	}

	// Fuzzy union symmetrization.
	p := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a, b := w[i*n+j], w[j*n+i]
			p[i*n+j] = a + b - a*b
		}
	}

	return fromFloat64(p, tensor.Shape{n, n}, x.DType())
}

// calibrateSigma bisects the bandwidth until the row membership mass matches
// the target.
func calibrateSigma(dists []float64, rho, target float64) float64 {
	lo, hi := 0.0, math.Inf(1)
	sigma := 1.0

	for iter := 0; iter < smoothKNNIters; iter++ {
		var mass float64
		for _, d := range dists {
			shifted := d - rho
			if shifted < 0 {
				shifted = 0
			}
			mass += math.Exp(-shifted / sigma)
		}

		if math.Abs(mass-target) < 1e-5 {
			break
		}

		if mass > target {
			hi = sigma
			sigma = (lo + hi) / 2
		} else {
			lo = sigma
			if math.IsInf(hi, 1) {
				sigma *= 2
			} else {
				sigma = (lo + hi) / 2
			}
		}
	}

	if sigma <= 0 {
		sigma = 1e-12
	}
	return sigma
}
