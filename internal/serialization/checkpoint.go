package serialization

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/tensor"
)

// parameterKey names a parameter by its position so that layers sharing a
// local name such as "weight" stay distinct.
func parameterKey(i int, name string) string {
	return fmt.Sprintf("%04d.%s", i, name)
}

// SaveParameters writes params to path.
func SaveParameters[B tensor.Backend](path string, params []*nn.Parameter[B], metadata map[string]string) error {
	tensors := make(map[string]*tensor.RawTensor, len(params))
	for i, p := range params {
		tensors[parameterKey(i, p.Name())] = p.Tensor().Raw()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	//nolint:gosec // G304: checkpoint path comes from the user
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := WriteSafeTensors(w, tensors, metadata); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return f.Close()
}

// LoadParameters copies the tensors stored at path into params. The file must
// hold exactly the parameters of params, in the same order and shapes.
// It returns the file's metadata.
func LoadParameters[B tensor.Backend](path string, params []*nn.Parameter[B]) (map[string]string, error) {
	//nolint:gosec // G304: checkpoint path comes from the user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer f.Close()

	tensors, metadata, err := ReadSafeTensors(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	if len(tensors) != len(params) {
		return nil, fmt.Errorf("%w: %d tensors for %d parameters", ErrParameterMismatch, len(tensors), len(params))
	}

	for i, p := range params {
		key := parameterKey(i, p.Name())
		raw, ok := tensors[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrParameterMismatch, key)
		}
		if raw.DType() != tensor.Float32 || !raw.Shape().Equal(p.Tensor().Shape()) {
			return nil, fmt.Errorf("%w: %s is %s%v, want float32%v",
				ErrParameterMismatch, key, raw.DType(), raw.Shape(), p.Tensor().Shape())
		}
	}
	for i, p := range params {
		copy(p.Tensor().Data(), tensors[parameterKey(i, p.Name())].AsFloat32())
	}
	return metadata, nil
}
