//go:build windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/tensor"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New()
	if err != nil {
		t.Skipf("webgpu unavailable: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func f32Tensor(t *testing.T, shape tensor.Shape, values []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), values)
	return raw
}

func TestBinaryOpsMatchCPU(t *testing.T) {
	gpu := newTestBackend(t)
	ref := cpu.New()

	a := f32Tensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := f32Tensor(t, tensor.Shape{2, 3}, []float32{0.5, -1, 2, 8, 0.25, -3})

	for name, op := range map[string]func(tensor.Backend) *tensor.RawTensor{
		"add": func(bk tensor.Backend) *tensor.RawTensor { return bk.Add(a, b) },
		"sub": func(bk tensor.Backend) *tensor.RawTensor { return bk.Sub(a, b) },
		"mul": func(bk tensor.Backend) *tensor.RawTensor { return bk.Mul(a, b) },
		"div": func(bk tensor.Backend) *tensor.RawTensor { return bk.Div(a, b) },
	} {
		got := op(gpu)
		want := op(ref)
		assert.Equal(t, want.AsFloat32(), got.AsFloat32(), name)
	}
}

func TestScalarAndUnaryOpsMatchCPU(t *testing.T) {
	gpu := newTestBackend(t)
	ref := cpu.New()

	x := f32Tensor(t, tensor.Shape{5}, []float32{0.5, 1, 2, 4, 9})

	assert.InDeltaSlice(t, ref.AddScalar(x, 3).AsFloat32(), gpu.AddScalar(x, 3).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, ref.MulScalar(x, -2).AsFloat32(), gpu.MulScalar(x, -2).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, ref.PowScalar(x, 0.5).AsFloat32(), gpu.PowScalar(x, 0.5).AsFloat32(), 1e-5)
	assert.InDeltaSlice(t, ref.Exp(x).AsFloat32(), gpu.Exp(x).AsFloat32(), 1e-3)
	assert.InDeltaSlice(t, ref.Log(x).AsFloat32(), gpu.Log(x).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, ref.Sqrt(x).AsFloat32(), gpu.Sqrt(x).AsFloat32(), 1e-6)
}

func TestMatMulMatchesCPU(t *testing.T) {
	gpu := newTestBackend(t)
	ref := cpu.New()

	a := f32Tensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := f32Tensor(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	got := gpu.MatMul(a, b)
	want := ref.MatMul(a, b)
	require.True(t, got.Shape().Equal(want.Shape()))
	assert.InDeltaSlice(t, want.AsFloat32(), got.AsFloat32(), 1e-4)
}

func TestSqDistancesMatchesCPU(t *testing.T) {
	gpu := newTestBackend(t)
	ref := cpu.New()

	a := f32Tensor(t, tensor.Shape{3, 2}, []float32{0, 0, 1, 1, -2, 3})
	b := f32Tensor(t, tensor.Shape{2, 2}, []float32{1, 0, 0, -1})

	got := gpu.SqDistances(a, b)
	want := ref.SqDistances(a, b)
	require.True(t, got.Shape().Equal(tensor.Shape{3, 2}))
	assert.InDeltaSlice(t, want.AsFloat32(), got.AsFloat32(), 1e-5)
}

func TestTransposeMatchesCPU(t *testing.T) {
	gpu := newTestBackend(t)

	x := f32Tensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	got := gpu.Transpose(x)
	require.True(t, got.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, got.AsFloat32())
}

func TestFloat64FallsBackToCPU(t *testing.T) {
	gpu := newTestBackend(t)

	x, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(x.AsFloat64(), []float64{1, 2})

	got := gpu.AddScalar(x, 1)
	assert.Equal(t, []float64{2, 3}, got.AsFloat64())
	assert.Equal(t, tensor.CPU, got.Device())
}
