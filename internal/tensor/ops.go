package tensor

// wrap lifts a backend result into a typed tensor.
func wrap[T DType, B Backend](raw *RawTensor, err error, b B) (*Tensor[T, B], error) {
	if err != nil {
		return nil, err
	}
	return New[T, B](raw, b), nil
}

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c, err := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) (*Tensor[T, B], error) {
	raw, err := t.backend.Add(t.raw, other.raw)
	return wrap[T](raw, err, t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) (*Tensor[T, B], error) {
	raw, err := t.backend.Sub(t.raw, other.raw)
	return wrap[T](raw, err, t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) (*Tensor[T, B], error) {
	raw, err := t.backend.Mul(t.raw, other.raw)
	return wrap[T](raw, err, t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) (*Tensor[T, B], error) {
	raw, err := t.backend.Div(t.raw, other.raw)
	return wrap[T](raw, err, t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) (*Tensor[T, B], error) {
	raw, err := t.backend.MatMul(t.raw, other.raw)
	return wrap[T](raw, err, t.backend)
}

// BatchMatMul performs batched matrix multiplication over 3D or 4D tensors.
func (t *Tensor[T, B]) BatchMatMul(other *Tensor[T, B]) (*Tensor[T, B], error) {
	raw, err := t.backend.BatchMatMul(t.raw, other.raw)
	return wrap[T](raw, err, t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
//
// Example:
//
//	t := tensor.Arange(0, 12, backend) // Shape: [12]
//	reshaped, err := t.Reshape(3, 4)   // Shape: [3, 4]
func (t *Tensor[T, B]) Reshape(newShape ...int) (*Tensor[T, B], error) {
	raw, err := t.backend.Reshape(t.raw, Shape(newShape))
	return wrap[T](raw, err, t.backend)
}

// Transpose permutes the tensor's dimensions.
// With no axes, all dimensions are reversed.
func (t *Tensor[T, B]) Transpose(axes ...int) (*Tensor[T, B], error) {
	raw, err := t.backend.Transpose(t.raw, axes...)
	return wrap[T](raw, err, t.backend)
}

// Narrow returns length elements starting at start along dim.
func (t *Tensor[T, B]) Narrow(dim, start, length int) (*Tensor[T, B], error) {
	raw, err := t.backend.Narrow(t.raw, dim, start, length)
	return wrap[T](raw, err, t.backend)
}

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation
// dimension. Supports negative dim indexing (-1 = last dimension).
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) (*Tensor[T, B], error) {
	if len(tensors) == 0 {
		return nil, NewShapeError("concat", nil, nil, "at least one tensor required")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	backend := tensors[0].backend
	raw, err := backend.Cat(raws, dim)
	return wrap[T](raw, err, backend)
}

// MulScalar multiplies every element by scalar.
func (t *Tensor[T, B]) MulScalar(scalar float32) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar float32) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log computes the natural logarithm element-wise.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// ReLU computes max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return New[T, B](t.backend.ReLU(t.raw), t.backend)
}

// Sigmoid computes 1/(1+e^-x) element-wise.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	return New[T, B](t.backend.Sigmoid(t.raw), t.backend)
}

// Softmax normalizes along dim so that values sum to 1.
func (t *Tensor[T, B]) Softmax(dim int) (*Tensor[T, B], error) {
	raw, err := t.backend.Softmax(t.raw, dim)
	return wrap[T](raw, err, t.backend)
}

// SumDim sums along dim.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) (*Tensor[T, B], error) {
	raw, err := t.backend.SumDim(t.raw, dim, keepDim)
	return wrap[T](raw, err, t.backend)
}

// MeanDim averages along dim.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) (*Tensor[T, B], error) {
	raw, err := t.backend.MeanDim(t.raw, dim, keepDim)
	return wrap[T](raw, err, t.backend)
}

// Embedding gathers rows of weight [V, D] for every index, giving
// indices.Shape() + [D].
func Embedding[B Backend](weight *Tensor[float32, B], indices *Tensor[int64, B]) (*Tensor[float32, B], error) {
	raw, err := weight.backend.Embedding(weight.raw, indices.raw)
	return wrap[float32](raw, err, weight.backend)
}
