package datasets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/tensor"
)

func TestToyShapeAndLabels(t *testing.T) {
	x, labels := Toy[float64](99, 42)

	require.True(t, x.Shape().Equal(tensor.Shape{99, 5}))
	assert.Equal(t, tensor.Float64, x.DType())
	require.Len(t, labels, 99)

	counts := map[int]int{}
	for _, l := range labels {
		counts[l]++
	}
	assert.Equal(t, map[int]int{0: 33, 1: 33, 2: 33}, counts)
}

func TestToyClustersSeparated(t *testing.T) {
	x, labels := Toy[float64](90, 1)
	data := x.AsFloat64()

	// Cluster means should sit near their centers, far from each other.
	means := [3][5]float64{}
	for i, l := range labels {
		for j := 0; j < 5; j++ {
			means[l][j] += data[i*5+j] / 30
		}
	}
	for c := 0; c < 3; c++ {
		for o := c + 1; o < 3; o++ {
			var sq float64
			for j := 0; j < 5; j++ {
				d := means[c][j] - means[o][j]
				sq += d * d
			}
			assert.Greater(t, math.Sqrt(sq), 10.0)
		}
	}
}

func TestToyReproducible(t *testing.T) {
	a, _ := Toy[float32](30, 7)
	b, _ := Toy[float32](30, 7)
	assert.Equal(t, a.AsFloat32(), b.AsFloat32())

	c, _ := Toy[float32](30, 8)
	assert.NotEqual(t, a.AsFloat32(), c.AsFloat32())
}

func TestIris(t *testing.T) {
	x, labels := Iris[float64]()

	require.True(t, x.Shape().Equal(tensor.Shape{150, 4}))
	require.Len(t, labels, 150)
	assert.Equal(t, 0, labels[0])
	assert.Equal(t, 1, labels[50])
	assert.Equal(t, 2, labels[149])

	data := x.AsFloat64()
	assert.InDelta(t, 5.1, data[0], 1e-9)
	assert.InDelta(t, 5.9, data[149*4], 1e-9)

	for _, v := range data {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 8.0)
	}
}

func TestIrisFloat32(t *testing.T) {
	x, _ := Iris[float32]()
	assert.Equal(t, tensor.Float32, x.DType())
	assert.InDelta(t, 3.5, float64(x.AsFloat32()[1]), 1e-6)
}
