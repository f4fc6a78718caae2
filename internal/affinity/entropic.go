package affinity

import (
	"fmt"
	"math"

	"github.com/godr-ml/godr/internal/tensor"
)

const (
	// calibrationIters bounds the per-row bisection on the Gibbs precision.
	calibrationIters = 64
	// calibrationTol is the accepted entropy gap to the perplexity target.
	calibrationTol = 1e-5
)

// Entropic computes the entropic (perplexity-calibrated) affinity of X.
//
// Each row i gets a Gibbs kernel exp(-beta_i * d_ij) over squared distances,
// with beta_i found by bisection so the row entropy equals log(perplexity).
// The result is row-stochastic with a zero diagonal.
func Entropic(x *tensor.RawTensor, perplexity float64, backend tensor.Backend) *tensor.RawTensor {
	dists, n := pairwiseSqDists(x, backend)
	validatePerplexity(perplexity, n)

	p := make([]float64, n*n)
	targetEntropy := math.Log(perplexity)

	for i := 0; i < n; i++ {
		row := dists[i*n : (i+1)*n]
		calibrateRow(p[i*n:(i+1)*n], row, i, targetEntropy)
	}

	return fromFloat64(p, tensor.Shape{n, n}, x.DType())
}

// EntropicSymmetric computes the joint distribution used by t-SNE style
// losses: P = (P + P^T) / (2n) from the row-stochastic entropic affinity, so
// the full matrix sums to one.
func EntropicSymmetric(x *tensor.RawTensor, perplexity float64, backend tensor.Backend) *tensor.RawTensor {
	p := Entropic(x, perplexity, backend)
	n := p.Shape()[0]

	values := toFloat64(p)
	sym := make([]float64, n*n)
	scale := 1.0 / (2.0 * float64(n))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sym[i*n+j] = (values[i*n+j] + values[j*n+i]) * scale
		}
	}

	return fromFloat64(sym, tensor.Shape{n, n}, p.DType())
}

func validatePerplexity(perplexity float64, n int) {
	if perplexity < 1 || perplexity >= float64(n) {
		panic(fmt.Sprintf("affinity: perplexity %.2f out of range [1, %d)", perplexity, n))
	}
}

// calibrateRow fills dst with the Gibbs distribution over row distances whose
// entropy matches the target. Position self is excluded and left at zero.
func calibrateRow(dst, dists []float64, self int, targetEntropy float64) {
	beta := 1.0
	betaMin := math.Inf(-1)
	betaMax := math.Inf(1)

	// Shift by the row minimum so exp stays in range for any beta.
	minDist := math.Inf(1)
	for j, d := range dists {
		if j != self && d < minDist {
			minDist = d
		}
	}

	for iter := 0; iter < calibrationIters; iter++ {
		entropy := gibbsRow(dst, dists, self, beta, minDist)
		diff := entropy - targetEntropy
		if math.Abs(diff) < calibrationTol {
			return
		}

		if diff > 0 {
			// Entropy too high: sharpen the kernel.
			betaMin = beta
			if math.IsInf(betaMax, 1) {
				beta *= 2
			} else {
				beta = (beta + betaMax) / 2
			}
		} else {
			betaMax = beta
			if math.IsInf(betaMin, -1) {
				beta /= 2
			} else {
				beta = (beta + betaMin) / 2
			}
		}
	}
}

// gibbsRow writes the normalized Gibbs row into dst and returns its entropy.
func gibbsRow(dst, dists []float64, self int, beta, shift float64) float64 {
	var sum float64
	for j, d := range dists {
		if j == self {
			dst[j] = 0
			continue
		}
		v := math.Exp(-beta * (d - shift))
		dst[j] = v
		sum += v
	}

	var entropy float64
	for j := range dst {
		if j == self || dst[j] == 0 {
			continue
		}
		p := dst[j] / sum
		dst[j] = p
		entropy -= p * math.Log(p)
	}
	return entropy
}
