package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/tensor"
)

func fromFloat64(t *testing.T, shape tensor.Shape, values []float64) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), values)
	return raw
}

func fromFloat32(t *testing.T, shape tensor.Shape, values []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), values)
	return raw
}

func TestBinaryOps(t *testing.T) {
	backend := New()

	a := fromFloat64(t, tensor.Shape{2, 2}, []float64{1, 2, 3, 4})
	b := fromFloat64(t, tensor.Shape{2, 2}, []float64{5, 6, 7, 8})

	sum := backend.Add(a.Clone(), b)
	assert.Equal(t, []float64{6, 8, 10, 12}, sum.AsFloat64())

	diff := backend.Sub(a.Clone(), b)
	assert.Equal(t, []float64{-4, -4, -4, -4}, diff.AsFloat64())

	prod := backend.Mul(a.Clone(), b)
	assert.Equal(t, []float64{5, 12, 21, 32}, prod.AsFloat64())

	quot := backend.Div(b.Clone(), a)
	assert.InDeltaSlice(t, []float64{5, 3, 7.0 / 3.0, 2}, quot.AsFloat64(), 1e-12)
}

func TestBinaryOpsBroadcast(t *testing.T) {
	backend := New()

	// [2, 3] + [1, 3] broadcasts the row.
	a := fromFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	row := fromFloat64(t, tensor.Shape{1, 3}, []float64{10, 20, 30})

	sum := backend.Add(a, row)
	assert.Equal(t, tensor.Shape{2, 3}, sum.Shape())
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, sum.AsFloat64())

	// [2, 3] * [2, 1] broadcasts the column.
	col := fromFloat64(t, tensor.Shape{2, 1}, []float64{2, 3})
	b := fromFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	prod := backend.Mul(b, col)
	assert.Equal(t, []float64{2, 4, 6, 12, 15, 18}, prod.AsFloat64())
}

func TestBinaryOpsIncompatibleShapes(t *testing.T) {
	backend := New()

	a := fromFloat64(t, tensor.Shape{2, 3}, make([]float64, 6))
	b := fromFloat64(t, tensor.Shape{2, 4}, make([]float64, 8))

	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestScalarOps(t *testing.T) {
	backend := New()

	x := fromFloat64(t, tensor.Shape{3}, []float64{1, 2, 3})
	assert.Equal(t, []float64{3, 4, 5}, backend.AddScalar(x.Clone(), 2).AsFloat64())

	x = fromFloat64(t, tensor.Shape{3}, []float64{1, 2, 3})
	assert.Equal(t, []float64{2, 4, 6}, backend.MulScalar(x.Clone(), 2).AsFloat64())

	x = fromFloat64(t, tensor.Shape{3}, []float64{2, 3, 4})
	assert.InDeltaSlice(t, []float64{4, 9, 16}, backend.PowScalar(x.Clone(), 2).AsFloat64(), 1e-12)
}

func TestUnaryMath(t *testing.T) {
	backend := New()

	x := fromFloat64(t, tensor.Shape{3}, []float64{0, 1, 2})
	exp := backend.Exp(x.Clone())
	assert.InDeltaSlice(t, []float64{1, math.E, math.Exp(2)}, exp.AsFloat64(), 1e-12)

	y := fromFloat64(t, tensor.Shape{3}, []float64{1, math.E, 4})
	log := backend.Log(y.Clone())
	assert.InDeltaSlice(t, []float64{0, 1, math.Log(4)}, log.AsFloat64(), 1e-12)

	z := fromFloat64(t, tensor.Shape{3}, []float64{1, 4, 9})
	sqrt := backend.Sqrt(z.Clone())
	assert.InDeltaSlice(t, []float64{1, 2, 3}, sqrt.AsFloat64(), 1e-12)
}

func TestInplaceFastPath(t *testing.T) {
	backend := New()

	a := fromFloat64(t, tensor.Shape{2}, []float64{1, 2})
	b := fromFloat64(t, tensor.Shape{2}, []float64{3, 4})

	// a is the sole reference, so add writes into a's buffer.
	result := backend.Add(a, b)
	assert.Same(t, a, result)

	// A cloned tensor shares its buffer and must not be modified.
	c := fromFloat64(t, tensor.Shape{2}, []float64{1, 2})
	view := c.Clone()
	result = backend.Add(c, b)
	assert.NotSame(t, c, result)
	assert.Equal(t, []float64{1, 2}, view.AsFloat64())
}

func TestReductions(t *testing.T) {
	backend := New()

	x := fromFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})

	total := backend.Sum(x)
	assert.Equal(t, tensor.Shape{1}, total.Shape())
	assert.Equal(t, 21.0, total.AsFloat64()[0])

	rows := backend.SumDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float64{6, 15}, rows.AsFloat64())

	rowsKeep := backend.SumDim(x, -1, true)
	assert.Equal(t, tensor.Shape{2, 1}, rowsKeep.Shape())
	assert.Equal(t, []float64{6, 15}, rowsKeep.AsFloat64())

	cols := backend.SumDim(x, 0, false)
	assert.Equal(t, []float64{5, 7, 9}, cols.AsFloat64())

	mean := backend.MeanDim(x, 1, false)
	assert.InDeltaSlice(t, []float64{2, 5}, mean.AsFloat64(), 1e-12)

	maxVals := backend.MaxDim(x, 1, false)
	assert.Equal(t, []float64{3, 6}, maxVals.AsFloat64())
}

func TestLogSumExp(t *testing.T) {
	backend := New()

	x := fromFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	lse := backend.LogSumExp(x, 1, false)

	for i, want := range []float64{
		math.Log(math.Exp(1) + math.Exp(2) + math.Exp(3)),
		math.Log(math.Exp(4) + math.Exp(5) + math.Exp(6)),
	} {
		assert.InDelta(t, want, lse.AsFloat64()[i], 1e-12)
	}

	// Large values must not overflow through the max-shift.
	big := fromFloat64(t, tensor.Shape{1, 2}, []float64{1000, 1000})
	lse = backend.LogSumExp(big, 1, false)
	assert.InDelta(t, 1000+math.Log(2), lse.AsFloat64()[0], 1e-9)

	// An all -Inf row yields -Inf, not NaN.
	masked := fromFloat64(t, tensor.Shape{1, 2}, []float64{math.Inf(-1), math.Inf(-1)})
	lse = backend.LogSumExp(masked, 1, false)
	assert.True(t, math.IsInf(lse.AsFloat64()[0], -1))
}

func TestMatMul(t *testing.T) {
	backend := New()

	a := fromFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	b := fromFloat64(t, tensor.Shape{3, 2}, []float64{7, 8, 9, 10, 11, 12})

	c := backend.MatMul(a, b)
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.AsFloat64())

	assert.Panics(t, func() {
		backend.MatMul(a, fromFloat64(t, tensor.Shape{2, 2}, make([]float64, 4)))
	})
}

func TestSqDistances(t *testing.T) {
	backend := New()

	a := fromFloat64(t, tensor.Shape{2, 2}, []float64{0, 0, 1, 1})
	b := fromFloat64(t, tensor.Shape{3, 2}, []float64{0, 0, 3, 4, 1, 1})

	d := backend.SqDistances(a, b)
	assert.Equal(t, tensor.Shape{2, 3}, d.Shape())
	assert.InDeltaSlice(t, []float64{0, 25, 2, 2, 13, 0}, d.AsFloat64(), 1e-12)
}

func TestSqDistancesFloat32(t *testing.T) {
	backend := New()

	a := fromFloat32(t, tensor.Shape{2, 3}, []float32{1, 0, 0, 0, 2, 0})
	d := backend.SqDistances(a, a)

	got := d.AsFloat32()
	assert.InDelta(t, 0, float64(got[0]), 1e-6)
	assert.InDelta(t, 5, float64(got[1]), 1e-6)
	assert.InDelta(t, 5, float64(got[2]), 1e-6)
	assert.InDelta(t, 0, float64(got[3]), 1e-6)
}

func TestTransposeReshape(t *testing.T) {
	backend := New()

	x := fromFloat64(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})

	xt := backend.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, xt.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, xt.AsFloat64())

	back := backend.Transpose(xt, 1, 0)
	assert.Equal(t, x.AsFloat64(), back.AsFloat64())

	flat := backend.Reshape(x, tensor.Shape{6})
	assert.Equal(t, tensor.Shape{6}, flat.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, flat.AsFloat64())

	assert.Panics(t, func() { backend.Reshape(x, tensor.Shape{4}) })
}

func TestDeterministicMode(t *testing.T) {
	backend := New()

	tensor.SetDeterministic(true)
	defer tensor.SetDeterministic(false)

	values := make([]float64, 500*4)
	for i := range values {
		values[i] = math.Sin(float64(i))
	}

	x := fromFloat64(t, tensor.Shape{500, 4}, values)
	first := backend.SqDistances(x, x).AsFloat64()
	second := backend.SqDistances(x, x).AsFloat64()
	assert.Equal(t, first, second)
}
