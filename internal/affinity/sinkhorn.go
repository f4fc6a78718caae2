package affinity

import (
	"math"

	"github.com/godr-ml/godr/internal/tensor"
)

// SinkhornConfig controls the doubly stochastic affinity solver.
type SinkhornConfig struct {
	Perplexity float64 // Sets the kernel bandwidth via the mean kNN distance.
	MaxIter    int     // Dual ascent iterations (default: 1000).
	Tol        float64 // Marginal violation tolerance (default: 1e-5).
	LR         float64 // Dual step size (default: 1e-1).
}

// Sinkhorn computes a symmetric doubly stochastic affinity: the entropic
// optimal transport projection of the Gibbs kernel onto matrices whose rows
// each sum to 1/n.
//
// The symmetric dual potential f is optimized in the log domain:
//
//	f <- (1-lr)*f + lr*eps*(log(1/n) - LSE_j((f_j - C_ij)/eps))
//
// which converges to the fixed point of the symmetric Sinkhorn iteration.
func Sinkhorn(x *tensor.RawTensor, config SinkhornConfig, backend tensor.Backend) *tensor.RawTensor {
	if config.MaxIter == 0 {
		config.MaxIter = 1000
	}
	if config.Tol == 0 {
		config.Tol = 1e-5
	}
	if config.LR == 0 {
		config.LR = 1e-1
	}
	if config.Perplexity == 0 {
		config.Perplexity = 30
	}

	cost, n := pairwiseSqDists(x, backend)
	validatePerplexity(config.Perplexity, n)

	eps := bandwidthFromPerplexity(cost, n, config.Perplexity)
	logMarginal := math.Log(1.0 / float64(n))

	f := make([]float64, n)
	update := make([]float64, n)

	for iter := 0; iter < config.MaxIter; iter++ {
		maxViolation := 0.0

		for i := 0; i < n; i++ {
			// LSE over j != i of (f_j - C_ij)/eps.
			rowMax := math.Inf(-1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				v := (f[j] - cost[i*n+j]) / eps
				rowMax = max(rowMax, v)
			}
			var sum float64
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				sum += math.Exp((f[j]-cost[i*n+j])/eps - rowMax)
			}
			lse := math.Log(sum) + rowMax

			target := eps * (logMarginal - lse)
			update[i] = (1-config.LR)*f[i] + config.LR*target
			maxViolation = max(maxViolation, math.Abs(update[i]-f[i]))
		}

		copy(f, update)
		if maxViolation < config.Tol {
			break
		}
	}

	// Transport plan: P_ij = exp((f_i + f_j - C_ij)/eps), zero diagonal.
	p := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			p[i*n+j] = math.Exp((f[i] + f[j] - cost[i*n+j]) / eps)
		}
	}

	return fromFloat64(p, tensor.Shape{n, n}, x.DType())
}

// bandwidthFromPerplexity picks the entropic regularization as the mean
// squared distance to the ceil(perplexity)-th neighbor, a scale on which the
// kernel resolves local structure.
func bandwidthFromPerplexity(cost []float64, n int, perplexity float64) float64 {
	k := int(math.Ceil(perplexity))
	if k >= n {
		k = n - 1
	}

	var total float64
	row := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		row = row[:0]
		for j := 0; j < n; j++ {
			if j != i {
				row = append(row, cost[i*n+j])
			}
		}
		total += kthSmallest(row, k)
	}

	eps := total / float64(n)
	if eps <= 0 {
		eps = 1e-12
	}
	return eps
}

// kthSmallest returns the k-th smallest value (1-based) via partial selection.
func kthSmallest(values []float64, k int) float64 {
	for i := 0; i < k; i++ {
		minIdx := i
		for j := i + 1; j < len(values); j++ {
			if values[j] < values[minIdx] {
				minIdx = j
			}
		}
		values[i], values[minIdx] = values[minIdx], values[i]
	}
	return values[k-1]
}
