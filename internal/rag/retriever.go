package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

// SearchStore is the similarity search surface the retriever needs.
type SearchStore interface {
	Search(ctx context.Context, projectID string, queryEmbedding []float32, opts ...knowledge.SearchOption) ([]knowledge.ScoredChunk, error)
}

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Query embedding cache sizing. Repeated identical questions within the TTL
// skip the embedding call; this is an optimization, never a correctness
// requirement.
const (
	embedCacheTTL     = time.Minute
	embedCacheMaxSize = 128
)

// Retriever answers "which stored chunks are relevant to this text" by
// embedding the query and delegating to the store's vector search. Safe for
// concurrent use.
type Retriever struct {
	store    SearchStore
	embedder QueryEmbedder
	logger   *slog.Logger
	topK     int
	minScore float64

	mu    sync.Mutex
	cache map[string]cachedEmbedding
}

type cachedEmbedding struct {
	vector  []float32
	expires time.Time
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many chunks each retrieval returns at most.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k >= 1 {
			r.topK = k
		}
	}
}

// WithMinScore sets the similarity floor for retrieval results.
func WithMinScore(score float64) RetrieverOption {
	return func(r *Retriever) {
		if score >= 0 && score <= 1 {
			r.minScore = score
		}
	}
}

// NewRetriever builds a retriever over a search store and query embedder. A
// nil logger falls back to slog.Default.
func NewRetriever(store SearchStore, embedder QueryEmbedder, logger *slog.Logger, opts ...RetrieverOption) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retriever{
		store:    store,
		embedder: embedder,
		logger:   logger,
		topK:     knowledge.DefaultTopK,
		minScore: knowledge.DefaultMinScore,
		cache:    make(map[string]cachedEmbedding),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the chunks most relevant to query within a project,
// ranked best first. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, projectID, query string) ([]knowledge.ScoredChunk, error) {
	vector, err := r.queryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.store.Search(ctx, projectID, vector,
		knowledge.WithTopK(r.topK), knowledge.WithMinScore(r.minScore))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	r.logger.Debug("retrieved chunks",
		"project_id", projectID, "query_length", len(query), "results", len(results))
	return results, nil
}

func (r *Retriever) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	r.mu.Lock()
	if cached, ok := r.cache[query]; ok && time.Now().Before(cached.expires) {
		r.mu.Unlock()
		return cached.vector, nil
	}
	r.mu.Unlock()

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cache) >= embedCacheMaxSize {
		r.evictExpiredLocked()
	}
	if len(r.cache) < embedCacheMaxSize {
		r.cache[query] = cachedEmbedding{vector: vector, expires: time.Now().Add(embedCacheTTL)}
	}
	return vector, nil
}

func (r *Retriever) evictExpiredLocked() {
	now := time.Now()
	for k, v := range r.cache {
		if now.After(v.expires) {
			delete(r.cache, k)
		}
	}
}
