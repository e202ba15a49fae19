package knowledge

import (
	"context"
	"fmt"
	"math"

	"github.com/firebase/genkit/go/ai"
)

// Embedder converts text into fixed-dimension vectors via a Genkit embedding
// model. Vectors come back L2-normalized so cosine similarity reduces to a
// dot product and pgvector's cosine index behaves consistently.
type Embedder struct {
	embedder  ai.Embedder
	dimension int
	options   any
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbedOptions attaches provider-specific options to every embed
// request. Gemini embedders need an OutputDimensionality matching the
// schema, since their native dimension is larger.
func WithEmbedOptions(options any) EmbedderOption {
	return func(e *Embedder) { e.options = options }
}

// NewEmbedder wraps a Genkit embedder. dimension is the expected vector
// length; responses of any other length are rejected.
func NewEmbedder(embedder ai.Embedder, dimension int, opts ...EmbedderOption) (*Embedder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	e := &Embedder{embedder: embedder, dimension: dimension}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dimension returns the expected vector length.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedTexts embeds a batch of texts in a single provider request. The
// returned slice preserves input order; result i corresponds to texts[i].
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs, Options: e.options})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrEmbedding, len(resp.Embeddings), len(texts))
	}
	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		v := emb.Embedding
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d",
				ErrEmbedding, i, len(v), e.dimension)
		}
		vectors[i] = normalizeVector(v)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// normalizeVector scales v to unit length. Zero vectors pass through
// unchanged rather than dividing by zero.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
