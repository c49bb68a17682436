package nn

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// Embedding maps token ids to dense vectors.
//
// Ids travel in a float32 tensor so an Embedding can head a Sequential; they
// are truncated to integers by the lookup. Input [batch, seq_len] produces
// [batch, seq_len, embed_dim].
type Embedding[B tensor.Backend] struct {
	weight   *Parameter[B]
	numEmbed int
	embedDim int
	backend  B
}

// NewEmbedding creates an Embedding with N(0, 1) weights.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("embedding: invalid size %dx%d", numEmbeddings, embeddingDim))
	}
	return &Embedding[B]{
		weight:   NewParameter("weight", Normal(1, tensor.Shape{numEmbeddings, embeddingDim}, backend)),
		numEmbed: numEmbeddings,
		embedDim: embeddingDim,
		backend:  backend,
	}
}

// Forward looks up the embedding of every id.
func (e *Embedding[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](e.backend.Embedding(e.weight.Tensor().Raw(), input.Raw()), e.backend)
}

// Parameters returns [weight].
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.weight}
}

// NumEmbeddings returns the vocabulary size.
func (e *Embedding[B]) NumEmbeddings() int { return e.numEmbed }

// EmbeddingDim returns the vector size.
func (e *Embedding[B]) EmbeddingDim() int { return e.embedDim }

// MeanPool averages over one dimension, e.g. the sequence axis of
// [batch, seq_len, dim] token embeddings.
type MeanPool[B tensor.Backend] struct {
	dim int
}

// NewMeanPool creates a MeanPool over dim.
func NewMeanPool[B tensor.Backend](dim int) *MeanPool[B] { return &MeanPool[B]{dim: dim} }

// Forward averages along the configured dimension.
func (m *MeanPool[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.MeanDim(m.dim, false)
}

// Parameters returns nil.
func (m *MeanPool[B]) Parameters() []*Parameter[B] { return nil }
