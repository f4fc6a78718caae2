package affinity

import (
	"math/rand"
	"sort"

	"github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/tensor"
)

// Pair is an ordered index pair into the point set.
type Pair struct {
	I, J int32
}

// PACMAPPairs holds the three pair populations the PACMAP loss balances:
// local neighbors, mid-near samples for global structure, and further pairs
// for repulsion.
type PACMAPPairs struct {
	Neighbors []Pair
	MidNear   []Pair
	Further   []Pair
}

// PACMAPConfig controls pair sampling.
type PACMAPConfig struct {
	NNeighbors int     // Neighbor pairs per point (default: 10).
	MNRatio    float64 // Mid-near pairs per neighbor pair (default: 0.5).
	FPRatio    float64 // Further pairs per neighbor pair (default: 2.0).
	Seed       int64   // Sampling seed.
}

// SamplePACMAPPairs builds the pair sets from the exact kNN graph of x.
//
// Mid-near pairs follow the original sampling scheme: draw six random
// candidates and keep the second closest. Further pairs are uniform draws
// rejected if they fall inside the neighbor set; a point whose neighbor set
// already spans every other point yields no further pairs.
func SamplePACMAPPairs(x *tensor.RawTensor, config PACMAPConfig, backend *kernels.Backend) *PACMAPPairs {
	if config.NNeighbors == 0 {
		config.NNeighbors = 10
	}
	if config.MNRatio == 0 {
		config.MNRatio = 0.5
	}
	if config.FPRatio == 0 {
		config.FPRatio = 2.0
	}

	n := x.Shape()[0]
	k := config.NNeighbors
	if k >= n {
		k = n - 1
	}

	nn := backend.KNN(x, k)
	rng := rand.New(rand.NewSource(config.Seed)) //nolint:gosec // G404: sampling, not cryptographic

	pairs := &PACMAPPairs{}
	neighborSets := make([]map[int32]bool, n)

	for i := 0; i < n; i++ {
		neighborSets[i] = make(map[int32]bool, k)
		for _, j := range nn.Indices[i] {
			neighborSets[i][j] = true
			pairs.Neighbors = append(pairs.Neighbors, Pair{I: int32(i), J: j})
		}
	}

	dists, _ := pairwiseSqDists(x, backend)

	nMidNear := int(config.MNRatio * float64(k))
	nFurther := int(config.FPRatio * float64(k))

	for i := 0; i < n; i++ {
		for m := 0; m < nMidNear; m++ {
			if j, ok := sampleMidNear(rng, dists, n, i); ok {
				pairs.MidNear = append(pairs.MidNear, Pair{I: int32(i), J: j})
			}
		}

		if len(neighborSets[i]) >= n-1 {
			continue
		}
		for f := 0; f < nFurther; f++ {
			j := rng.Intn(n)
			for j == i || neighborSets[i][int32(j)] {
				j = rng.Intn(n)
			}
			pairs.Further = append(pairs.Further, Pair{I: int32(i), J: int32(j)})
		}
	}

	return pairs
}

// sampleMidNear draws six distinct candidates and returns the second closest
// to point i.
func sampleMidNear(rng *rand.Rand, dists []float64, n, i int) (int32, bool) {
	const candidates = 6
	if n <= candidates+1 {
		return 0, false
	}

	seen := make(map[int]bool, candidates)
	drawn := make([]int, 0, candidates)
	for len(drawn) < candidates {
		j := rng.Intn(n)
		if j == i || seen[j] {
			continue
		}
		seen[j] = true
		drawn = append(drawn, j)
	}

	sort.Slice(drawn, func(a, b int) bool {
		return dists[i*n+drawn[a]] < dists[i*n+drawn[b]]
	})
	return int32(drawn[1]), true
}
