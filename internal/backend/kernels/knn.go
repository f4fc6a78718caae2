package kernels

import (
	"fmt"

	"github.com/godr-ml/godr/internal/parallel"
	"github.com/godr-ml/godr/internal/tensor"
)

// Neighbors holds the exact k-nearest-neighbor graph of a point set.
// Indices[i] lists the neighbors of point i ordered by increasing distance,
// self excluded; SqDists[i] holds the matching squared Euclidean distances.
type Neighbors struct {
	K       int
	Indices [][]int32
	SqDists [][]float64
}

// KNN computes the exact k-nearest-neighbor graph of the rows of x [n, d].
// Distances to all points are scanned per row with a bounded insertion list,
// so memory stays O(n*k) instead of O(n^2).
func (kb *Backend) KNN(x *tensor.RawTensor, k int) *Neighbors {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("knn: expected 2D tensor, got %v", shape))
	}

	n, d := shape[0], shape[1]
	if k <= 0 || k >= n {
		panic(fmt.Sprintf("knn: k=%d out of range for %d points", k, n))
	}

	result := &Neighbors{
		K:       k,
		Indices: make([][]int32, n),
		SqDists: make([][]float64, n),
	}

	switch x.DType() {
	case tensor.Float32:
		knnRows(x.AsFloat32(), result, n, d, k, kb.par())
	case tensor.Float64:
		knnRows(x.AsFloat64(), result, n, d, k, kb.par())
	default:
		panic(fmt.Sprintf("knn: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func knnRows[T tensor.Float](x []T, out *Neighbors, n, d, k int, cfg parallel.Config) {
	parallel.ForChunks(n, func(start, end int) {
		idx := make([]int32, k)
		dst := make([]float64, k)

		for i := start; i < end; i++ {
			count := 0
			rowI := x[i*d : (i+1)*d]

			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				rowJ := x[j*d : (j+1)*d]
				var dist float64
				for p := range rowI {
					diff := float64(rowI[p] - rowJ[p])
					dist += diff * diff
				}

				if count == k && dist >= dst[k-1] {
					continue
				}

				// Insert into the sorted window, dropping the current worst.
				pos := count
				if pos == k {
					pos = k - 1
				}
				for pos > 0 && dst[pos-1] > dist {
					dst[pos] = dst[pos-1]
					idx[pos] = idx[pos-1]
					pos--
				}
				dst[pos] = dist
				idx[pos] = int32(j)
				if count < k {
					count++
				}
			}

			out.Indices[i] = append([]int32(nil), idx[:count]...)
			out.SqDists[i] = append([]float64(nil), dst[:count]...)
		}
	}, cfg)
}
