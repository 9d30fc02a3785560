package nn

import (
	"math/rand"

	"github.com/born-ml/anp/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [batch, seq] -> embeddings [batch, seq, EmbedDim]
//
// Example:
//
//	embed := nn.NewEmbedding(100277, 16, rng, backend)
//	indices, _ := tensor.FromSlice([]int64{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
//	embeddings, err := embed.Forward(indices) // [1, 4, 16]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings (vocabulary size)
	EmbedDim int           // Embedding dimension (vector size)
}

// NewEmbedding creates a new Embedding layer with weights drawn from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, rng *rand.Rand, backend B) *Embedding[B] {
	weight := tensor.Randn(tensor.Shape{numEmbeddings, embeddingDim}, rng, backend)
	return &Embedding[B]{
		Weight:   NewParameter("embedding.weight", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// Forward looks up the embedding vector of every index.
// Out-of-range indices are reported as errors.
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int64, B]) (*tensor.Tensor[float32, B], error) {
	return tensor.Embedding(e.Weight.Tensor(), indices)
}

// Parameters returns [weight].
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
