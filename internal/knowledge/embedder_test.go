package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"google.golang.org/genai"
)

// mockModel implements ai.Embedder for testing.
type mockModel struct {
	embedErr     error
	dimension    int
	shortBy      int // drop this many embeddings from the response
	fill         float32
	callCount    int
	lastInputLen int // number of input documents seen on the last call
	lastOptions  any // Options field of the last request
}

func (m *mockModel) Name() string { return "mock-embedder" }

func (m *mockModel) Register(r api.Registry) {}

func (m *mockModel) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	m.lastInputLen = len(req.Input)
	m.lastOptions = req.Options
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	n := len(req.Input) - m.shortBy
	resp := &ai.EmbedResponse{}
	for i := 0; i < n; i++ {
		v := make([]float32, m.dimension)
		for j := range v {
			v[j] = m.fill
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: v})
	}
	return resp, nil
}

func TestNewEmbedderValidation(t *testing.T) {
	if _, err := NewEmbedder(nil, 768); err == nil {
		t.Error("NewEmbedder(nil, 768) succeeded, want error")
	}
	if _, err := NewEmbedder(&mockModel{}, 0); err == nil {
		t.Error("NewEmbedder(_, 0) succeeded, want error")
	}
	e, err := NewEmbedder(&mockModel{}, 768)
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}
	if e.Dimension() != 768 {
		t.Errorf("Dimension() = %d, want 768", e.Dimension())
	}
}

func TestEmbedTextsBatchesInOneRequest(t *testing.T) {
	mock := &mockModel{dimension: 4, fill: 0.5}
	e, _ := NewEmbedder(mock, 4)

	texts := []string{"first", "second", "third"}
	vectors, err := e.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if mock.callCount != 1 {
		t.Errorf("provider called %d times, want 1", mock.callCount)
	}
	if mock.lastInputLen != 3 {
		t.Errorf("provider saw %d documents, want 3", mock.lastInputLen)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
}

func TestEmbedTextsForwardsRequestOptions(t *testing.T) {
	mock := &mockModel{dimension: 4, fill: 1.0}
	dim := int32(4)
	e, err := NewEmbedder(mock, 4, WithEmbedOptions(
		&genai.EmbedContentConfig{OutputDimensionality: &dim}))
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}

	if _, err := e.EmbedTexts(context.Background(), []string{"text"}); err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	opts, ok := mock.lastOptions.(*genai.EmbedContentConfig)
	if !ok {
		t.Fatalf("request options = %T, want *genai.EmbedContentConfig", mock.lastOptions)
	}
	if opts.OutputDimensionality == nil || *opts.OutputDimensionality != 4 {
		t.Errorf("OutputDimensionality = %v, want 4", opts.OutputDimensionality)
	}
}

func TestEmbedTextsNormalizes(t *testing.T) {
	mock := &mockModel{dimension: 4, fill: 2.0}
	e, _ := NewEmbedder(mock, 4)

	vectors, err := e.EmbedTexts(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	var sum float64
	for _, x := range vectors[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("vector norm squared = %f, want 1.0", sum)
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	mock := &mockModel{dimension: 4}
	e, _ := NewEmbedder(mock, 4)

	vectors, err := e.EmbedTexts(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedTexts(nil) error = %v", err)
	}
	if vectors != nil {
		t.Errorf("EmbedTexts(nil) = %v, want nil", vectors)
	}
	if mock.callCount != 0 {
		t.Errorf("provider called %d times for empty input, want 0", mock.callCount)
	}
}

func TestEmbedTextsProviderError(t *testing.T) {
	mock := &mockModel{embedErr: fmt.Errorf("quota exceeded")}
	e, _ := NewEmbedder(mock, 4)

	_, err := e.EmbedTexts(context.Background(), []string{"text"})
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("error = %v, want ErrEmbedding", err)
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	mock := &mockModel{dimension: 4, shortBy: 1}
	e, _ := NewEmbedder(mock, 4)

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("error = %v, want ErrEmbedding on count mismatch", err)
	}
}

func TestEmbedTextsDimensionMismatch(t *testing.T) {
	mock := &mockModel{dimension: 3}
	e, _ := NewEmbedder(mock, 4)

	_, err := e.EmbedTexts(context.Background(), []string{"text"})
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("error = %v, want ErrEmbedding on dimension mismatch", err)
	}
}

func TestEmbedQuery(t *testing.T) {
	mock := &mockModel{dimension: 4, fill: 1.0}
	e, _ := NewEmbedder(mock, 4)

	v, err := e.EmbedQuery(context.Background(), "what is the deployment process?")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(v) != 4 {
		t.Errorf("got dimension %d, want 4", len(v))
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	got := normalizeVector(v)
	for i, x := range got {
		if x != 0 {
			t.Errorf("normalizeVector(zero)[%d] = %f, want 0", i, x)
		}
	}
}
