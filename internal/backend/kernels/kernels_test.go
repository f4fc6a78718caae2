package kernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/tensor"
)

func randomPoints(t *testing.T, rng *rand.Rand, n, d int) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{n, d}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	data := raw.AsFloat64()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return raw
}

func TestIsAvailable(t *testing.T) {
	assert.True(t, IsAvailable())
}

func TestSqDistancesMatchesCPU(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := randomPoints(t, rng, 30, 5)
	b := randomPoints(t, rng, 20, 5)

	reference := cpu.New().SqDistances(a, b)
	fused := New().SqDistances(a, b)

	assert.Equal(t, reference.Shape(), fused.Shape())
	assert.InDeltaSlice(t, reference.AsFloat64(), fused.AsFloat64(), 1e-9)
}

func TestSqDistancesNonNegative(t *testing.T) {
	// Nearly identical points provoke cancellation in the expanded form.
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), []float64{1e8, 1e8, 1e8, 1e8, 1e8, 1e8 + 1e-4})

	d := New().SqDistances(raw, raw)
	for _, v := range d.AsFloat64() {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestLogSumExpMatchesCPU(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := randomPoints(t, rng, 25, 12)

	reference := cpu.New().LogSumExp(x, 1, true)
	fused := New().LogSumExp(x, 1, true)

	assert.Equal(t, reference.Shape(), fused.Shape())
	assert.InDeltaSlice(t, reference.AsFloat64(), fused.AsFloat64(), 1e-9)
}

func TestLogSumExpFallback(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := randomPoints(t, rng, 10, 6)

	// Reduction over dim 0 takes the generic path.
	reference := cpu.New().LogSumExp(x, 0, false)
	fused := New().LogSumExp(x, 0, false)
	assert.InDeltaSlice(t, reference.AsFloat64(), fused.AsFloat64(), 1e-9)
}

func TestKNN(t *testing.T) {
	// Three points on a line: neighbors are unambiguous.
	raw, err := tensor.NewRaw(tensor.Shape{3, 1}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), []float64{0, 1, 10})

	nn := New().KNN(raw, 2)
	require.Len(t, nn.Indices, 3)

	assert.Equal(t, []int32{1, 2}, nn.Indices[0])
	assert.InDeltaSlice(t, []float64{1, 100}, nn.SqDists[0], 1e-12)

	assert.Equal(t, []int32{0, 2}, nn.Indices[1])
	assert.Equal(t, []int32{1, 0}, nn.Indices[2])
}

func TestKNNExhaustive(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	x := randomPoints(t, rng, 40, 3)
	k := 5

	nn := New().KNN(x, k)
	dists := New().SqDistances(x, x).AsFloat64()

	for i := 0; i < 40; i++ {
		require.Len(t, nn.Indices[i], k)

		// Neighbor distances are sorted ascending.
		for j := 1; j < k; j++ {
			assert.LessOrEqual(t, nn.SqDists[i][j-1], nn.SqDists[i][j])
		}

		// No non-neighbor is closer than the worst neighbor.
		worst := nn.SqDists[i][k-1]
		inSet := make(map[int32]bool, k)
		for _, j := range nn.Indices[i] {
			inSet[j] = true
		}
		for j := 0; j < 40; j++ {
			if j == i || inSet[int32(j)] {
				continue
			}
			assert.GreaterOrEqual(t, dists[i*40+j]+1e-12, worst)
		}
	}
}

func TestKNNInvalidK(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := randomPoints(t, rng, 5, 2)

	assert.Panics(t, func() { New().KNN(x, 0) })
	assert.Panics(t, func() { New().KNN(x, 5) })
}

func TestFusedKernelsDeterministic(t *testing.T) {
	tensor.SetDeterministic(true)
	defer tensor.SetDeterministic(false)

	rng := rand.New(rand.NewSource(3))
	x := randomPoints(t, rng, 200, 8)

	first := New().SqDistances(x, x).AsFloat64()
	second := New().SqDistances(x, x).AsFloat64()
	assert.Equal(t, first, second)

	lse1 := New().LogSumExp(x, 1, false).AsFloat64()
	lse2 := New().LogSumExp(x, 1, false).AsFloat64()
	assert.Equal(t, lse1, lse2)
}
