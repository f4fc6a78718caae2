package persist

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godr-ml/godr/internal/tensor"
)

func sampleTensor(t *testing.T, dtype tensor.DataType) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{3, 2}, dtype, tensor.CPU)
	require.NoError(t, err)
	values := []float64{0.5, -1.25, 3e10, -7e-5, 0, 42}
	switch dtype {
	case tensor.Float32:
		dst := raw.AsFloat32()
		for i, v := range values {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(raw.AsFloat64(), values)
	}
	return raw
}

func TestRoundTrip(t *testing.T) {
	for _, dtype := range []tensor.DataType{tensor.Float32, tensor.Float64} {
		dtype := dtype
		t.Run(dtype.String(), func(t *testing.T) {
			orig := sampleTensor(t, dtype)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, orig))

			got, err := Read(&buf)
			require.NoError(t, err)
			require.True(t, got.Shape().Equal(orig.Shape()))
			assert.Equal(t, dtype, got.DType())

			switch dtype {
			case tensor.Float32:
				assert.Equal(t, orig.AsFloat32(), got.AsFloat32())
			case tensor.Float64:
				assert.Equal(t, orig.AsFloat64(), got.AsFloat64())
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding.bin")
	orig := sampleTensor(t, tensor.Float64)

	require.NoError(t, Save(path, orig))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig.AsFloat64(), got.AsFloat64())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensor(t, tensor.Float64)))

	data := buf.Bytes()
	data[0] = 'X'
	_, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestCorruptedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensor(t, tensor.Float64)))

	data := buf.Bytes()
	data[len(data)-10] ^= 0xFF
	_, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadChecksum)
}

func TestTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensor(t, tensor.Float64)))

	data := buf.Bytes()
	_, err := Read(bytes.NewReader(data[:len(data)/2]))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadChecksum)
}
