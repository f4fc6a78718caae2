package ne

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/datasets"
	"github.com/godr-ml/godr/internal/metrics"
	"github.com/godr-ml/godr/internal/tensor"
)

// testConfig returns a fit configuration that converges quickly on the toy
// clusters for the given algorithm.
func testConfig(algo string) Config {
	cfg := Config{Perplexity: 30, MaxIter: 200}
	switch algo {
	case "cosne":
		cfg.LR = 0.1
	case "umap", "pacmap":
		cfg.NNeighbors = 10
	}
	return cfg
}

func runQuality[T tensor.Float](t *testing.T, algo string, sel Selector) {
	t.Helper()

	x, labels := datasets.Toy[T](100, 0)
	cfg := testConfig(algo)
	cfg.BackendType = sel

	est, err := New[T](algo, cfg)
	require.NoError(t, err)

	z, err := est.FitTransform(x)
	require.NoError(t, err)
	require.True(t, z.Shape().Equal(tensor.Shape{100, 2}), "embedding shape %v", z.Shape())

	score := metrics.SilhouetteScore(z, labels)
	assert.Greater(t, score, 0.15, "silhouette")
}

func TestFitTransformMatrix(t *testing.T) {
	for _, algo := range Algorithms {
		for _, sel := range []Selector{BackendDense, BackendKernels} {
			algo, sel := algo, sel
			t.Run(algo+"/float64/"+sel.String(), func(t *testing.T) {
				runQuality[float64](t, algo, sel)
			})
			t.Run(algo+"/float32/"+sel.String(), func(t *testing.T) {
				runQuality[float32](t, algo, sel)
			})
		}
	}
}

func TestSNEQuality(t *testing.T) {
	x, labels := datasets.Toy[float64](100, 0)

	est, err := NewSNE[float64](Config{Perplexity: 30, MaxIter: 100, LR: 1, Optimizer: "Adam"})
	require.NoError(t, err)

	z, err := est.FitTransform(x)
	require.NoError(t, err)
	require.True(t, z.Shape().Equal(tensor.Shape{100, 2}))
	assert.Greater(t, metrics.SilhouetteScore(z, labels), 0.2)
}

func TestCOSNEIris(t *testing.T) {
	x, labels := datasets.Iris[float64]()

	est, err := NewCOSNE[float64](Config{
		Perplexity: 30,
		MaxIter:    1000,
		LR:         0.1,
		Gamma:      1,
		Lambda1:    0.01,
	})
	require.NoError(t, err)

	z, err := est.FitTransform(x)
	require.NoError(t, err)
	require.True(t, z.Shape().Equal(tensor.Shape{150, 2}))

	// All points stay inside the Poincare disk.
	data := z.AsFloat64()
	for i := 0; i < 150; i++ {
		normSq := data[i*2]*data[i*2] + data[i*2+1]*data[i*2+1]
		assert.LessOrEqual(t, normSq, 1.0)
	}
	assert.Greater(t, metrics.SilhouetteScore(z, labels), 0.15)
}

func TestInitEquivalence(t *testing.T) {
	x, labels := datasets.Toy[float64](100, 0)

	rng := rand.New(rand.NewSource(5)) //nolint:gosec // G404: test data
	values := make([]float64, 100*2)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	raw, err := tensor.NewRaw(tensor.Shape{100, 2}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), values)

	cfgSlice := testConfig("sne")
	cfgSlice.RandomState = 0
	cfgSlice.Init = SliceInit{Values: values}
	estSlice, err := NewSNE[float64](cfgSlice)
	require.NoError(t, err)
	zSlice, err := estSlice.FitTransform(x)
	require.NoError(t, err)

	cfgTensor := testConfig("sne")
	cfgTensor.RandomState = 0
	cfgTensor.Init = TensorInit{Tensor: raw}
	estTensor, err := NewSNE[float64](cfgTensor)
	require.NoError(t, err)
	zTensor, err := estTensor.FitTransform(x)
	require.NoError(t, err)

	a, b := zSlice.AsFloat64(), zTensor.AsFloat64()
	var meanSq float64
	for i := range a {
		d := a[i] - b[i]
		meanSq += d * d
	}
	meanSq /= float64(len(a))
	assert.Less(t, meanSq, 1e-5)

	assert.Greater(t, metrics.SilhouetteScore(zSlice, labels), 0.2)
	assert.Greater(t, metrics.SilhouetteScore(zTensor, labels), 0.2)
}

func TestDtypeConsistency(t *testing.T) {
	x64, labels := datasets.Toy[float64](100, 0)
	x32, _ := datasets.Toy[float32](100, 0)

	est64, err := NewTSNE[float64](testConfig("tsne"))
	require.NoError(t, err)
	z64, err := est64.FitTransform(x64)
	require.NoError(t, err)

	est32, err := NewTSNE[float32](testConfig("tsne"))
	require.NoError(t, err)
	z32, err := est32.FitTransform(x32)
	require.NoError(t, err)

	s64 := metrics.SilhouetteScore(z64, labels)
	s32 := metrics.SilhouetteScore(z32, labels)
	assert.Greater(t, s64, 0.15)
	assert.Greater(t, s32, 0.15)
	assert.InDelta(t, s64, s32, 0.25)
}

func TestDeterministicUnderSeed(t *testing.T) {
	tensor.SetDeterministic(true)
	defer tensor.SetDeterministic(false)

	x, _ := datasets.Toy[float64](60, 0)

	run := func() []float64 {
		cfg := testConfig("tsne")
		cfg.MaxIter = 50
		cfg.RandomState = 9
		est, err := NewTSNE[float64](cfg)
		require.NoError(t, err)
		z, err := est.FitTransform(x)
		require.NoError(t, err)
		return append([]float64(nil), z.AsFloat64()...)
	}

	assert.Equal(t, run(), run())
}

func TestTSNEkhornUnrolling(t *testing.T) {
	x, labels := datasets.Toy[float64](100, 0)

	cfg := testConfig("tsnekhorn")
	cfg.Unrolling = 3
	est, err := NewTSNEkhorn[float64](cfg)
	require.NoError(t, err)

	z, err := est.FitTransform(x)
	require.NoError(t, err)
	require.True(t, z.Shape().Equal(tensor.Shape{100, 2}))
	assert.Greater(t, metrics.SilhouetteScore(z, labels), 0.15)
}

func TestNegativeSampling(t *testing.T) {
	x, labels := datasets.Toy[float64](100, 0)

	for _, algo := range []string{"infotsne", "largevis"} {
		algo := algo
		t.Run(algo, func(t *testing.T) {
			cfg := testConfig(algo)
			cfg.NNegatives = 20
			est, err := New[float64](algo, cfg)
			require.NoError(t, err)

			z, err := est.FitTransform(x)
			require.NoError(t, err)
			assert.Greater(t, metrics.SilhouetteScore(z, labels), 0.15)
		})
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := New[float64]("fancysne", Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTSNE[float64](Config{Optimizer: "RMSProp"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTSNE[float64](Config{LR: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTSNE[float64](Config{Device: tensor.WebGPU})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestFitValidation(t *testing.T) {
	est, err := NewTSNE[float64](Config{})
	require.NoError(t, err)

	assert.ErrorIs(t, est.Fit(nil), ErrInvalidConfig)

	_, err = est.Transform()
	assert.ErrorIs(t, err, ErrNotFitted)

	flat, err := tensor.NewRaw(tensor.Shape{10}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	assert.ErrorIs(t, est.Fit(flat), tensor.ErrShapeMismatch)

	wrongDtype, _ := datasets.Toy[float32](20, 0)
	assert.ErrorIs(t, est.Fit(wrongDtype), ErrInvalidConfig)

	tiny, _ := datasets.Toy[float64](20, 0)
	highPerp, err := NewTSNE[float64](Config{Perplexity: 50})
	require.NoError(t, err)
	assert.ErrorIs(t, highPerp.Fit(tiny), ErrInvalidConfig)
}

func TestUMAPNeighborBounds(t *testing.T) {
	x, _ := datasets.Toy[float64](10, 0)

	est, err := NewUMAP[float64](Config{NNeighbors: 10})
	require.NoError(t, err)
	assert.ErrorIs(t, est.Fit(x), ErrInvalidConfig)
}

func TestPACMAPMinSamples(t *testing.T) {
	x, _ := datasets.Toy[float64](6, 0)

	est, err := NewPACMAP[float64](Config{NNeighbors: 2, Perplexity: 2})
	require.NoError(t, err)
	assert.ErrorIs(t, est.Fit(x), ErrInvalidConfig)
}

func TestPACMAPNeighborsExceedSamples(t *testing.T) {
	// The default NNeighbors is larger than n here; the capped kNN graph
	// spans all points and the fit must still complete.
	x, _ := datasets.Toy[float64](9, 0)

	est, err := NewPACMAP[float64](Config{MaxIter: 20})
	require.NoError(t, err)

	z, err := est.FitTransform(x)
	require.NoError(t, err)
	require.True(t, z.Shape().Equal(tensor.Shape{9, 2}))
}

func TestSliceInitLengthMismatch(t *testing.T) {
	x, _ := datasets.Toy[float64](20, 0)

	cfg := testConfig("tsne")
	cfg.Perplexity = 10
	cfg.Init = SliceInit{Values: []float64{1, 2, 3}}
	est, err := NewTSNE[float64](cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, est.Fit(x), ErrInvalidConfig)
}

func TestSGDOptimizer(t *testing.T) {
	x, labels := datasets.Toy[float64](100, 0)

	est, err := NewTSNE[float64](Config{
		Perplexity: 30,
		MaxIter:    300,
		LR:         50,
		Optimizer:  "SGD",
		Momentum:   0.9,
	})
	require.NoError(t, err)

	z, err := est.FitTransform(x)
	require.NoError(t, err)
	assert.Greater(t, metrics.SilhouetteScore(z, labels), 0.15)
}
