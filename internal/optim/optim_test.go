package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/autodiff"
	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.Backend]

func newParam[T tensor.Float](t *testing.T, backend testBackend, values []T) *Parameter[T, testBackend] {
	t.Helper()
	tt, err := tensor.FromSlice[T, testBackend](values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return NewParameter(tt)
}

// minimizeQuadratic runs steps of loss = sum((x - target)^2) and returns the
// final parameter values.
func minimizeQuadratic[T tensor.Float](
	t *testing.T,
	opt Optimizer,
	param *Parameter[T, testBackend],
	backend testBackend,
	target float64,
	steps int,
) []T {
	t.Helper()

	for i := 0; i < steps; i++ {
		backend.Tape().Clear()
		backend.Tape().StartRecording()

		shifted := backend.SubScalar(param.Raw(), target)
		loss := backend.Sum(backend.Mul(shifted, shifted))

		seed, err := tensor.NewRaw(tensor.Shape{1}, loss.DType(), tensor.CPU)
		require.NoError(t, err)
		rawData[T](seed)[0] = 1

		grads := backend.Tape().Backward(seed, backend)
		backend.Tape().StopRecording()
		opt.Step(grads)
	}

	return param.Data()
}

func TestSGDConvergesOnQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(t, backend, []float64{5, -3, 0.5})

	opt := NewSGD(
		[]*Parameter[float64, testBackend]{param},
		SGDConfig{LR: 0.1},
	)

	final := minimizeQuadratic(t, opt, param, backend, 2.0, 100)
	for _, v := range final {
		assert.InDelta(t, 2.0, v, 1e-6)
	}
}

func TestSGDMomentumConverges(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(t, backend, []float64{10, -10})

	opt := NewSGD(
		[]*Parameter[float64, testBackend]{param},
		SGDConfig{LR: 0.05, Momentum: 0.9},
	)

	final := minimizeQuadratic(t, opt, param, backend, -1.0, 200)
	for _, v := range final {
		assert.InDelta(t, -1.0, v, 1e-4)
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(t, backend, []float64{5, -3, 0.5})

	opt := NewAdam(
		[]*Parameter[float64, testBackend]{param},
		AdamConfig{LR: 0.1},
	)

	final := minimizeQuadratic(t, opt, param, backend, 2.0, 500)
	for _, v := range final {
		assert.InDelta(t, 2.0, v, 1e-3)
	}
}

func TestAdamFloat32(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(t, backend, []float32{4, -4})

	opt := NewAdam(
		[]*Parameter[float32, testBackend]{param},
		AdamConfig{LR: 0.2},
	)

	final := minimizeQuadratic(t, opt, param, backend, 1.0, 300)
	for _, v := range final {
		assert.InDelta(t, 1.0, float64(v), 1e-2)
	}
}

func TestAdamDefaults(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(t, backend, []float64{1})

	opt := NewAdam([]*Parameter[float64, testBackend]{param}, AdamConfig{})
	assert.Equal(t, 0.001, opt.GetLR())

	opt.SetLR(0.5)
	assert.Equal(t, 0.5, opt.GetLR())
	assert.Equal(t, 0, opt.Timestep())
}

func TestStepSkipsParamsWithoutGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	active := newParam(t, backend, []float64{3})
	inactive := newParam(t, backend, []float64{7})

	opt := NewSGD(
		[]*Parameter[float64, testBackend]{active, inactive},
		SGDConfig{LR: 0.1},
	)

	minimizeQuadratic(t, opt, active, backend, 0.0, 10)
	assert.Equal(t, []float64{7}, inactive.Data())
}
