package tensor

// Backend defines the interface that compute backends implement.
// Backends handle the actual computation for tensor operations.
//
// Operations whose validity depends on input shapes return an error that
// unwraps to ErrShape; pure element-wise maps cannot fail.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) (*RawTensor, error)
	Sub(a, b *RawTensor) (*RawTensor, error)
	Mul(a, b *RawTensor) (*RawTensor, error)
	Div(a, b *RawTensor) (*RawTensor, error)

	// MatMul multiplies 2D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) (*RawTensor, error)

	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) (*RawTensor, error)

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) (*RawTensor, error)
	Transpose(t *RawTensor, axes ...int) (*RawTensor, error)
	Cat(tensors []*RawTensor, dim int) (*RawTensor, error)
	Narrow(x *RawTensor, dim, start, length int) (*RawTensor, error)

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float32) *RawTensor
	AddScalar(x *RawTensor, scalar float32) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor

	// Activation functions
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) (*RawTensor, error)

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error)
	MeanDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error)

	// Embedding looks up rows of weight [V, D] by int64 indices of any shape.
	Embedding(weight, indices *RawTensor) (*RawTensor, error)

	// Metadata
	Name() string
	Device() Device
}
