package affinity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/tensor"
)

func gaussianBlobs(t *testing.T, seed int64, n, d int) *tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	raw, err := tensor.NewRaw(tensor.Shape{n, d}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)

	data := raw.AsFloat64()
	for i := 0; i < n; i++ {
		center := float64(i%3) * 10
		for j := 0; j < d; j++ {
			data[i*d+j] = center + rng.NormFloat64()
		}
	}
	return raw
}

func TestEntropicRowStochastic(t *testing.T) {
	x := gaussianBlobs(t, 1, 60, 4)
	backend := cpu.New()
	perplexity := 15.0

	p := Entropic(x, perplexity, backend)
	n := p.Shape()[0]
	values := p.AsFloat64()

	targetEntropy := math.Log(perplexity)
	for i := 0; i < n; i++ {
		assert.Zero(t, values[i*n+i])

		var rowSum, entropy float64
		for j := 0; j < n; j++ {
			v := values[i*n+j]
			require.GreaterOrEqual(t, v, 0.0)
			rowSum += v
			if v > 0 {
				entropy -= v * math.Log(v)
			}
		}
		assert.InDelta(t, 1.0, rowSum, 1e-9)
		assert.InDelta(t, targetEntropy, entropy, 1e-3)
	}
}

func TestEntropicPerplexityRange(t *testing.T) {
	x := gaussianBlobs(t, 2, 10, 2)
	assert.Panics(t, func() { Entropic(x, 0.5, cpu.New()) })
	assert.Panics(t, func() { Entropic(x, 10, cpu.New()) })
}

func TestEntropicSymmetric(t *testing.T) {
	x := gaussianBlobs(t, 3, 40, 3)
	p := EntropicSymmetric(x, 10, cpu.New())
	n := p.Shape()[0]
	values := p.AsFloat64()

	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, values[i*n+j], values[j*n+i])
			total += values[i*n+j]
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestEntropicFloat32(t *testing.T) {
	x64 := gaussianBlobs(t, 4, 30, 3)
	x32, err := tensor.NewRaw(tensor.Shape{30, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	dst := x32.AsFloat32()
	for i, v := range x64.AsFloat64() {
		dst[i] = float32(v)
	}

	p := Entropic(x32, 8, cpu.New())
	assert.Equal(t, tensor.Float32, p.DType())

	n := p.Shape()[0]
	values := p.AsFloat32()
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			rowSum += float64(values[i*n+j])
		}
		assert.InDelta(t, 1.0, rowSum, 1e-5)
	}
}

func TestEntropicMatchesAcrossBackends(t *testing.T) {
	x := gaussianBlobs(t, 5, 35, 4)

	dense := Entropic(x, 10, cpu.New())
	fused := Entropic(x, 10, kernels.New())

	assert.InDeltaSlice(t, dense.AsFloat64(), fused.AsFloat64(), 1e-6)
}

func TestSinkhornMarginals(t *testing.T) {
	x := gaussianBlobs(t, 6, 30, 3)

	p := Sinkhorn(x, SinkhornConfig{Perplexity: 10, MaxIter: 2000, Tol: 1e-8}, cpu.New())
	n := p.Shape()[0]
	values := p.AsFloat64()

	marginal := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		assert.Zero(t, values[i*n+i])

		var rowSum float64
		for j := 0; j < n; j++ {
			assert.InDelta(t, values[j*n+i], values[i*n+j], 1e-9)
			rowSum += values[i*n+j]
		}
		assert.InDelta(t, marginal, rowSum, 1e-3)
	}
}

func TestGibbsAndStudentNormalized(t *testing.T) {
	x := gaussianBlobs(t, 7, 25, 3)
	backend := cpu.New()

	for name, p := range map[string]*tensor.RawTensor{
		"gibbs":   Gibbs(x, 2.0, backend),
		"student": Student(x, backend),
	} {
		n := p.Shape()[0]
		values := p.AsFloat64()

		var total float64
		for i := 0; i < n; i++ {
			assert.Zero(t, values[i*n+i], name)
			for j := 0; j < n; j++ {
				total += values[i*n+j]
			}
		}
		assert.InDelta(t, 1.0, total, 1e-9, name)
	}
}

func TestFuzzyKNN(t *testing.T) {
	x := gaussianBlobs(t, 8, 45, 3)
	p := FuzzyKNN(x, 8, kernels.New())
	n := p.Shape()[0]
	values := p.AsFloat64()

	for i := 0; i < n; i++ {
		assert.Zero(t, values[i*n+i])
		var rowMass float64
		for j := 0; j < n; j++ {
			v := values[i*n+j]
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			assert.InDelta(t, values[j*n+i], v, 1e-12)
			rowMass += v
		}
		// The nearest neighbor always has full membership.
		assert.Greater(t, rowMass, 0.99)
	}
}

func TestSamplePACMAPPairs(t *testing.T) {
	x := gaussianBlobs(t, 9, 50, 3)
	config := PACMAPConfig{NNeighbors: 10, MNRatio: 0.5, FPRatio: 2.0, Seed: 42}

	pairs := SamplePACMAPPairs(x, config, kernels.New())

	assert.Len(t, pairs.Neighbors, 50*10)
	assert.Len(t, pairs.MidNear, 50*5)
	assert.Len(t, pairs.Further, 50*20)

	neighborSets := make(map[int32]map[int32]bool)
	for _, p := range pairs.Neighbors {
		assert.NotEqual(t, p.I, p.J)
		if neighborSets[p.I] == nil {
			neighborSets[p.I] = make(map[int32]bool)
		}
		neighborSets[p.I][p.J] = true
	}

	for _, p := range pairs.Further {
		assert.NotEqual(t, p.I, p.J)
		assert.False(t, neighborSets[p.I][p.J], "further pair inside neighbor set")
	}

	// Sampling is reproducible for a fixed seed.
	again := SamplePACMAPPairs(x, config, kernels.New())
	assert.Equal(t, pairs.MidNear, again.MidNear)
	assert.Equal(t, pairs.Further, again.Further)
}

func TestSamplePACMAPPairsCappedNeighbors(t *testing.T) {
	// With NNeighbors >= n, the kNN size is capped to n-1 and every non-self
	// point becomes a neighbor, leaving no candidates for further pairs.
	x := gaussianBlobs(t, 7, 9, 3)
	config := PACMAPConfig{NNeighbors: 15, MNRatio: 0.5, FPRatio: 2.0, Seed: 1}

	pairs := SamplePACMAPPairs(x, config, kernels.New())

	assert.Len(t, pairs.Neighbors, 9*8)
	assert.Len(t, pairs.MidNear, 9*4)
	assert.Empty(t, pairs.Further)
}
