// Package metrics provides clustering quality measures used to validate
// embeddings.
package metrics

import (
	"fmt"
	"math"

	"github.com/godr-ml/godr/internal/tensor"
)

// SilhouetteScore computes the mean silhouette coefficient of the rows of z
// under the given labels, using Euclidean distances. The result lies in
// [-1, 1]; higher means tighter, better separated clusters. Panics when the
// label count does not match the row count or fewer than two clusters are
// present.
func SilhouetteScore(z *tensor.RawTensor, labels []int) float64 {
	n := z.Shape()[0]
	if len(labels) != n {
		panic(fmt.Sprintf("metrics: %d labels for %d rows", len(labels), n))
	}

	counts := map[int]int{}
	for _, l := range labels {
		counts[l]++
	}
	if len(counts) < 2 {
		panic("metrics: silhouette needs at least two clusters")
	}

	dist := PairwiseDistances(z)

	var total float64
	for i := 0; i < n; i++ {
		own := labels[i]
		if counts[own] == 1 {
			// Singleton clusters score zero by convention.
			continue
		}

		sums := map[int]float64{}
		for j := 0; j < n; j++ {
			if j != i {
				sums[labels[j]] += dist[i][j]
			}
		}

		a := sums[own] / float64(counts[own]-1)
		b := math.Inf(1)
		for l, s := range sums {
			if l == own {
				continue
			}
			if mean := s / float64(counts[l]); mean < b {
				b = mean
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

// PairwiseDistances returns the dense Euclidean distance matrix between the
// rows of a 2D tensor.
func PairwiseDistances(z *tensor.RawTensor) [][]float64 {
	shape := z.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("metrics: need a 2D tensor, got shape %v", shape))
	}
	n, d := shape[0], shape[1]
	values := rowMajor(z)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sq float64
			for k := 0; k < d; k++ {
				diff := values[i*d+k] - values[j*d+k]
				sq += diff * diff
			}
			dist[i][j] = math.Sqrt(sq)
			dist[j][i] = dist[i][j]
		}
	}
	return dist
}

func rowMajor(z *tensor.RawTensor) []float64 {
	switch z.DType() {
	case tensor.Float32:
		src := z.AsFloat32()
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v)
		}
		return out
	case tensor.Float64:
		return z.AsFloat64()
	default:
		panic(fmt.Sprintf("metrics: unsupported dtype %s", z.DType()))
	}
}
