package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/anp/internal/backend/cpu"
	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

func TestSafeTensorsRoundTrip(t *testing.T) {
	backend := cpu.New()
	w, err := tensor.FromSlice([]float32{1.5, -2, 0, 3.25, 4, -0.5}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	ids, err := tensor.FromSlice([]int64{7, -1, 1 << 40}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = WriteSafeTensors(&buf, map[string]*tensor.RawTensor{
		"w":   w.Raw(),
		"ids": ids.Raw(),
	}, map[string]string{"format": "anp"})
	require.NoError(t, err)

	tensors, metadata, err := ReadSafeTensors(&buf)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"format": "anp"}, metadata)
	require.Len(t, tensors, 2)

	assert.Equal(t, tensor.Shape{2, 3}, tensors["w"].Shape())
	assert.Equal(t, w.Data(), tensors["w"].AsFloat32())
	assert.Equal(t, ids.Data(), tensors["ids"].AsInt64())
}

// withHeader frames header and data as a SafeTensors stream.
func withHeader(t *testing.T, header string, data []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.WriteString(header)
	buf.Write(data)
	return &buf
}

func TestReadSafeTensorsRejectsCorruptInput(t *testing.T) {
	tests := []struct {
		name   string
		header string
		data   []byte
		want   error
	}{
		{
			name:   "shape larger than payload",
			header: `{"w":{"dtype":"F32","shape":[1125899906842624],"data_offsets":[0,4]}}`,
			data:   make([]byte, 4),
			want:   ErrOutOfBounds,
		},
		{
			name:   "element count overflows",
			header: `{"w":{"dtype":"F32","shape":[4294967296,4294967296],"data_offsets":[0,0]}}`,
			want:   ErrOutOfBounds,
		},
		{
			name:   "overflow with non-empty payload",
			header: `{"w":{"dtype":"I64","shape":[4294967296,4294967296,16],"data_offsets":[0,8]}}`,
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name:   "payload larger than shape",
			header: `{"w":{"dtype":"F32","shape":[1],"data_offsets":[0,8]}}`,
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name:   "reversed offsets",
			header: `{"w":{"dtype":"F32","shape":[1],"data_offsets":[8,4]}}`,
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name:   "negative offset",
			header: `{"w":{"dtype":"F32","shape":[1],"data_offsets":[-4,0]}}`,
			data:   make([]byte, 4),
			want:   ErrOutOfBounds,
		},
		{
			name:   "zero dimension",
			header: `{"w":{"dtype":"F32","shape":[0,3],"data_offsets":[0,0]}}`,
			want:   ErrInvalidShape,
		},
		{
			name:   "negative dimension",
			header: `{"w":{"dtype":"F32","shape":[-1],"data_offsets":[0,4]}}`,
			data:   make([]byte, 4),
			want:   ErrInvalidShape,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tensors map[string]*tensor.RawTensor
			var err error
			require.NotPanics(t, func() {
				tensors, _, err = ReadSafeTensors(withHeader(t, tt.header, tt.data))
			})
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, tensors)
		})
	}

	t.Run("too many tensors", func(t *testing.T) {
		var header strings.Builder
		header.WriteString(`{"__metadata__":{"k":"v"}`)
		for i := 0; i <= maxTensorCount; i++ {
			fmt.Fprintf(&header, `,"t%d":{}`, i)
		}
		header.WriteString("}")
		_, _, err := ReadSafeTensors(withHeader(t, header.String(), nil))
		require.ErrorIs(t, err, ErrTooManyTensors)
	})

	t.Run("header too large", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(maxHeaderSize+1)))
		_, _, err := ReadSafeTensors(&buf)
		require.ErrorIs(t, err, ErrHeaderTooLarge)
	})

	t.Run("bad json", func(t *testing.T) {
		var buf bytes.Buffer
		header := []byte("{nope")
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
		buf.Write(header)
		_, _, err := ReadSafeTensors(&buf)
		require.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("truncated data", func(t *testing.T) {
		var buf bytes.Buffer
		header := []byte(`{"w":{"dtype":"F32","shape":[4],"data_offsets":[0,16]}}`)
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
		buf.Write(header)
		buf.Write(make([]byte, 8))
		_, _, err := ReadSafeTensors(&buf)
		require.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("unsupported dtype", func(t *testing.T) {
		var buf bytes.Buffer
		header := []byte(`{"w":{"dtype":"BF16","shape":[1],"data_offsets":[0,2]}}`)
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
		buf.Write(header)
		buf.Write(make([]byte, 2))
		_, _, err := ReadSafeTensors(&buf)
		require.ErrorIs(t, err, ErrUnsupportedDType)
	})
}

func TestSaveLoadParameters(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "ckpt", "model.safetensors")

	src := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(3, 4, rand.New(rand.NewSource(1)), backend),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewLinear(4, 2, rand.New(rand.NewSource(2)), backend),
	)
	require.NoError(t, SaveParameters(path, src.Parameters(), map[string]string{"run_id": "abc"}))

	dst := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(3, 4, rand.New(rand.NewSource(3)), backend),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewLinear(4, 2, rand.New(rand.NewSource(4)), backend),
	)
	metadata, err := LoadParameters(path, dst.Parameters())
	require.NoError(t, err)
	assert.Equal(t, "abc", metadata["run_id"])

	for i, p := range src.Parameters() {
		assert.Equal(t, p.Tensor().Data(), dst.Parameters()[i].Tensor().Data(), p.Name())
	}

	t.Run("mismatched model", func(t *testing.T) {
		other := nn.NewLinear(3, 5, rand.New(rand.NewSource(5)), backend)
		_, err := LoadParameters(path, other.Parameters())
		require.ErrorIs(t, err, ErrParameterMismatch)
	})

	t.Run("wrong shapes", func(t *testing.T) {
		other := nn.NewSequential[*cpu.CPUBackend](
			nn.NewLinear(3, 4, rand.New(rand.NewSource(3)), backend),
			nn.NewLinear(4, 3, rand.New(rand.NewSource(4)), backend),
		)
		before := append([]float32(nil), other.Parameters()[0].Tensor().Data()...)
		_, err := LoadParameters(path, other.Parameters())
		require.ErrorIs(t, err, ErrParameterMismatch)
		assert.Equal(t, before, other.Parameters()[0].Tensor().Data(), "failed load must not modify parameters")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadParameters(filepath.Join(t.TempDir(), "nope"), dst.Parameters())
		require.Error(t, err)
	})
}
