package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/datasets"
	"github.com/godr-ml/godr/internal/tensor"
)

func fromRows(t *testing.T, rows [][]float64) *tensor.RawTensor {
	t.Helper()
	n, d := len(rows), len(rows[0])
	raw, err := tensor.NewRaw(tensor.Shape{n, d}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	dst := raw.AsFloat64()
	for i, row := range rows {
		copy(dst[i*d:(i+1)*d], row)
	}
	return raw
}

func TestSilhouetteWellSeparated(t *testing.T) {
	z := fromRows(t, [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	})
	score := SilhouetteScore(z, []int{0, 0, 0, 1, 1, 1})
	assert.Greater(t, score, 0.95)
}

func TestSilhouetteRandomLabels(t *testing.T) {
	z := fromRows(t, [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	})
	// Mixing the clusters across labels should destroy the score.
	score := SilhouetteScore(z, []int{0, 1, 0, 1, 0, 1})
	assert.Less(t, score, 0.0)
}

func TestSilhouetteToyInputSpace(t *testing.T) {
	x, labels := datasets.Toy[float64](90, 3)
	assert.Greater(t, SilhouetteScore(x, labels), 0.5)
}

func TestSilhouettePanics(t *testing.T) {
	z := fromRows(t, [][]float64{{0, 0}, {1, 1}})
	assert.Panics(t, func() { SilhouetteScore(z, []int{0}) })
	assert.Panics(t, func() { SilhouetteScore(z, []int{0, 0}) })
}

func TestPairwiseDistances(t *testing.T) {
	z := fromRows(t, [][]float64{{0, 0}, {3, 4}})
	dist := PairwiseDistances(z)
	assert.InDelta(t, 5.0, dist[0][1], 1e-12)
	assert.InDelta(t, 5.0, dist[1][0], 1e-12)
	assert.Zero(t, dist[0][0])
}

func TestPairwiseDistancesFloat32(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 1}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	raw.AsFloat32()[1] = 2
	assert.InDelta(t, 2.0, PairwiseDistances(raw)[0][1], 1e-6)
}
