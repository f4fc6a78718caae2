package affinity

import (
	"math"

	"github.com/godr-ml/godr/internal/tensor"
)

// Gibbs computes a normalized Gaussian affinity with a fixed bandwidth:
// P_ij = exp(-d_ij / sigma) normalized over the whole matrix, zero diagonal.
func Gibbs(x *tensor.RawTensor, sigma float64, backend tensor.Backend) *tensor.RawTensor {
	dists, n := pairwiseSqDists(x, backend)

	p := make([]float64, n*n)
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v := math.Exp(-dists[i*n+j] / sigma)
			p[i*n+j] = v
			sum += v
		}
	}
	for i := range p {
		p[i] /= sum
	}

	return fromFloat64(p, tensor.Shape{n, n}, x.DType())
}

// Student computes a normalized Student-t affinity with one degree of
// freedom: P_ij = (1 + d_ij)^-1 normalized over the whole matrix, zero
// diagonal. This is the output-space kernel of t-SNE expressed as an input
// affinity.
func Student(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	dists, n := pairwiseSqDists(x, backend)

	p := make([]float64, n*n)
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v := 1.0 / (1.0 + dists[i*n+j])
			p[i*n+j] = v
			sum += v
		}
	}
	for i := range p {
		p[i] /= sum
	}

	return fromFloat64(p, tensor.Shape{n, n}, x.DType())
}
