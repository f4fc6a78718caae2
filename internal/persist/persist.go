// Package persist stores fitted embeddings in a checksummed binary format.
//
// Layout, little-endian:
//
//	magic   [4]byte "GODR"
//	version uint16
//	dtype   uint8
//	ndim    uint8
//	dims    [ndim]uint64
//	payload raw tensor values
//	crc32   uint32 (IEEE, over everything before it)
package persist

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"

	"github.com/godr-ml/godr/internal/tensor"
)

const formatVersion = 1

var magic = [4]byte{'G', 'O', 'D', 'R'}

// Sentinel errors returned by Read and Load.
var (
	ErrBadMagic    = errors.New("persist: bad magic")
	ErrBadVersion  = errors.New("persist: unsupported version")
	ErrBadChecksum = errors.New("persist: checksum mismatch")
)

// Save writes t to path atomically: the file appears only once fully written.
func Save(path string, t *tensor.RawTensor) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := Write(w, t); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a tensor from path.
func Load(path string) (*tensor.RawTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}

// Write serializes t to w.
func Write(w io.Writer, t *tensor.RawTensor) error {
	crc := crc32.NewIEEE()
	mw := io.MultiWriter(w, crc)

	if _, err := mw.Write(magic[:]); err != nil {
		return err
	}
	header := []any{
		uint16(formatVersion),
		dtypeCode(t.DType()),
		uint8(len(t.Shape())),
	}
	for _, v := range header {
		if err := binary.Write(mw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, dim := range t.Shape() {
		if err := binary.Write(mw, binary.LittleEndian, uint64(dim)); err != nil {
			return err
		}
	}

	switch t.DType() {
	case tensor.Float32:
		for _, v := range t.AsFloat32() {
			if err := binary.Write(mw, binary.LittleEndian, math.Float32bits(v)); err != nil {
				return err
			}
		}
	case tensor.Float64:
		for _, v := range t.AsFloat64() {
			if err := binary.Write(mw, binary.LittleEndian, math.Float64bits(v)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("persist: unsupported dtype %s", t.DType())
	}

	return binary.Write(w, binary.LittleEndian, crc.Sum32())
}

// Read deserializes a tensor from r, verifying the checksum.
func Read(r io.Reader) (*tensor.RawTensor, error) {
	crc := crc32.NewIEEE()
	tr := io.TeeReader(r, crc)

	var m [4]byte
	if _, err := io.ReadFull(tr, m[:]); err != nil {
		return nil, err
	}
	if m != magic {
		return nil, ErrBadMagic
	}

	var version uint16
	if err := binary.Read(tr, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}

	var code, ndim uint8
	if err := binary.Read(tr, binary.LittleEndian, &code); err != nil {
		return nil, err
	}
	if err := binary.Read(tr, binary.LittleEndian, &ndim); err != nil {
		return nil, err
	}
	dtype, err := dtypeFromCode(code)
	if err != nil {
		return nil, err
	}

	shape := make(tensor.Shape, ndim)
	for i := range shape {
		var dim uint64
		if err := binary.Read(tr, binary.LittleEndian, &dim); err != nil {
			return nil, err
		}
		shape[i] = int(dim)
	}

	t, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case tensor.Float32:
		dst := t.AsFloat32()
		for i := range dst {
			var bits uint32
			if err := binary.Read(tr, binary.LittleEndian, &bits); err != nil {
				return nil, err
			}
			dst[i] = math.Float32frombits(bits)
		}
	case tensor.Float64:
		dst := t.AsFloat64()
		for i := range dst {
			var bits uint64
			if err := binary.Read(tr, binary.LittleEndian, &bits); err != nil {
				return nil, err
			}
			dst[i] = math.Float64frombits(bits)
		}
	}

	want := crc.Sum32()
	var got uint32
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return nil, err
	}
	if got != want {
		return nil, ErrBadChecksum
	}
	return t, nil
}

func dtypeCode(d tensor.DataType) uint8 {
	switch d {
	case tensor.Float32:
		return 1
	case tensor.Float64:
		return 2
	default:
		panic(fmt.Sprintf("persist: unsupported dtype %s", d))
	}
}

func dtypeFromCode(code uint8) (tensor.DataType, error) {
	switch code {
	case 1:
		return tensor.Float32, nil
	case 2:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("persist: unknown dtype code %d", code)
	}
}
