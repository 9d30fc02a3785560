package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/born-ml/anp/internal/tensor"
)

const metadataKey = "__metadata__"

// TensorHeader describes one tensor in the SafeTensors header.
type TensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes tensors to w in SafeTensors format.
// Tensors are written in alphabetical order by name.
func WriteSafeTensors(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	var offset int64
	for _, name := range names {
		raw := tensors[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}
		size := int64(raw.ByteSize())
		header[name] = TensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, name := range names {
		if _, err := w.Write(encode(tensors[name])); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// ReadSafeTensors reads every tensor and the metadata from r.
func ReadSafeTensors(r io.Reader) (map[string]*tensor.RawTensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &entries); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	count := len(entries)
	if _, ok := entries[metadataKey]; ok {
		count--
	}
	if count > maxTensorCount {
		return nil, nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyTensors, count, maxTensorCount)
	}

	var metadata map[string]string
	headers := make(map[string]TensorHeader, len(entries))
	for name, raw := range entries {
		if name == metadataKey {
			if err := json.Unmarshal(raw, &metadata); err != nil {
				return nil, nil, fmt.Errorf("%w: metadata: %v", ErrInvalidHeader, err)
			}
			continue
		}
		var h TensorHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, nil, fmt.Errorf("%w: tensor %s: %v", ErrInvalidHeader, name, err)
		}
		headers[name] = h
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	tensors := make(map[string]*tensor.RawTensor, len(headers))
	for name, h := range headers {
		raw, err := decode(name, h, data)
		if err != nil {
			return nil, nil, err
		}
		tensors[name] = raw
	}
	return tensors, metadata, nil
}

func encode(raw *tensor.RawTensor) []byte {
	var buf bytes.Buffer
	buf.Grow(raw.ByteSize())
	var scratch [8]byte
	switch raw.DType() {
	case tensor.Float32:
		for _, v := range raw.AsFloat32() {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(v))
			buf.Write(scratch[:4])
		}
	case tensor.Int64:
		for _, v := range raw.AsInt64() {
			binary.LittleEndian.PutUint64(scratch[:], uint64(v))
			buf.Write(scratch[:])
		}
	}
	return buf.Bytes()
}

// checkExtent validates h against a data section of dataSize bytes and
// returns the tensor's shape. The element count is bounded by the byte
// range before it is multiplied out, so it cannot overflow.
func checkExtent(name string, h TensorHeader, elemSize int, dataSize int64) (tensor.Shape, error) {
	start, end := h.DataOffsets[0], h.DataOffsets[1]
	if start < 0 || end < start || end > dataSize {
		return nil, fmt.Errorf("%w: tensor %s at [%d, %d) of %d bytes", ErrOutOfBounds, name, start, end, dataSize)
	}
	limit := (end - start) / int64(elemSize)

	shape := make(tensor.Shape, len(h.Shape))
	count := int64(1)
	for i, dim := range h.Shape {
		if dim <= 0 {
			return nil, fmt.Errorf("%w: tensor %s: dimension %d is %d", ErrInvalidShape, name, i, dim)
		}
		if count > limit/dim {
			return nil, fmt.Errorf("%w: tensor %s: shape %v needs more than the %d bytes at [%d, %d)",
				ErrOutOfBounds, name, h.Shape, end-start, start, end)
		}
		count *= dim
		shape[i] = int(dim)
	}
	if count*int64(elemSize) != end-start {
		return nil, fmt.Errorf("%w: tensor %s: shape %v holds %d bytes, offsets give %d",
			ErrOutOfBounds, name, h.Shape, count*int64(elemSize), end-start)
	}
	return shape, nil
}

func decode(name string, h TensorHeader, data []byte) (*tensor.RawTensor, error) {
	dtype, err := dtypeFromSafeTensors(h.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	shape, err := checkExtent(name, h, dtype.Size(), int64(len(data)))
	if err != nil {
		return nil, err
	}
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	chunk := data[h.DataOffsets[0]:h.DataOffsets[1]]

	switch dtype {
	case tensor.Float32:
		dst := raw.AsFloat32()
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[4*i:]))
		}
	case tensor.Int64:
		dst := raw.AsInt64()
		for i := range dst {
			dst[i] = int64(binary.LittleEndian.Uint64(chunk[8*i:]))
		}
	}
	return raw, nil
}

func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Int64:
		return "I64", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDType, dt)
	}
}

func dtypeFromSafeTensors(s string) (tensor.DataType, error) {
	switch s {
	case "F32":
		return tensor.Float32, nil
	case "I64":
		return tensor.Int64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
}
