package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/sqlc"
)

// defaultSearchTimeout bounds vector similarity queries so a degraded index
// cannot stall a chat request indefinitely.
const defaultSearchTimeout = 10 * time.Second

// ChunkQuerier defines the database operations Store needs. The interface is
// defined here, by the consumer, so tests can substitute a mock and the sqlc
// Queries type satisfies it without adapters.
type ChunkQuerier interface {
	InsertChunk(ctx context.Context, arg sqlc.InsertChunkParams) error
	DeleteDocumentChunks(ctx context.Context, arg sqlc.DeleteDocumentChunksParams) (int64, error)
	DeleteRunChunks(ctx context.Context, arg sqlc.DeleteRunChunksParams) (int64, error)
	SearchChunks(ctx context.Context, arg sqlc.SearchChunksParams) ([]sqlc.SearchChunksRow, error)
	CountChunksByProject(ctx context.Context, projectID string) (int64, error)
	CountDocumentsByProject(ctx context.Context, projectID string) (int64, error)
	AnalyzeChunks(ctx context.Context) error
}

// Store persists chunks and serves vector similarity search over PostgreSQL
// with pgvector. Safe for concurrent use.
type Store struct {
	queries ChunkQuerier
	logger  *slog.Logger
}

// NewStore creates a chunk store. A nil logger falls back to slog.Default.
func NewStore(querier ChunkQuerier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: querier, logger: logger}
}

// PutChunks writes a run's chunks. Each chunk must already carry its
// embedding; generation tags the rows so retrieval only sees them once the
// document's generation matches.
func (s *Store) PutChunks(ctx context.Context, chunks []Chunk, generation int64) error {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d of document %s has no embedding",
				ErrStore, c.SequenceIndex, c.DocumentID)
		}
		vec := pgvector.NewVector(c.Embedding)
		err := s.queries.InsertChunk(ctx, sqlc.InsertChunkParams{
			ID:             pgUUID(c.ID),
			DocumentID:     pgUUID(c.DocumentID),
			ProjectID:      c.ProjectID,
			Content:        c.Text,
			Embedding:      &vec,
			SequenceIndex:  int32(c.SequenceIndex),
			SourceFilename: c.SourceFilename,
			Generation:     generation,
		})
		if err != nil {
			return fmt.Errorf("%w: insert chunk %d of document %s: %v",
				ErrStore, c.SequenceIndex, c.DocumentID, err)
		}
	}
	s.logger.Debug("stored chunks", "count", len(chunks), "generation", generation)
	return nil
}

// DeleteDocumentChunks removes every chunk of a document across all
// generations. Returns the number of rows deleted.
func (s *Store) DeleteDocumentChunks(ctx context.Context, projectID string, documentID uuid.UUID) (int64, error) {
	n, err := s.queries.DeleteDocumentChunks(ctx, sqlc.DeleteDocumentChunksParams{
		DocumentID: pgUUID(documentID),
		ProjectID:  projectID,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: delete chunks of document %s: %v", ErrStore, documentID, err)
	}
	return n, nil
}

// DeleteRun removes the chunks one ingestion run wrote. Used to roll back a
// failed or superseded run without touching earlier generations.
func (s *Store) DeleteRun(ctx context.Context, documentID uuid.UUID, generation int64) (int64, error) {
	n, err := s.queries.DeleteRunChunks(ctx, sqlc.DeleteRunChunksParams{
		DocumentID: pgUUID(documentID),
		Generation: generation,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: delete run %d of document %s: %v",
			ErrStore, generation, documentID, err)
	}
	return n, nil
}

// SearchOption configures a similarity search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK     int
	minScore float64
	timeout  time.Duration
}

// WithTopK sets the maximum number of results. Values below 1 keep the
// default.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k >= 1 {
			c.topK = k
		}
	}
}

// WithMinScore sets the similarity floor; results scoring below it are
// excluded. Must be within [0, 1].
func WithMinScore(score float64) SearchOption {
	return func(c *searchConfig) {
		if score >= 0 && score <= 1 {
			c.minScore = score
		}
	}
}

// WithSearchTimeout overrides the per-query timeout.
func WithSearchTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

const (
	// DefaultTopK is the number of chunks returned per search.
	DefaultTopK = 5
	// DefaultMinScore is the cosine similarity floor for retrieval.
	DefaultMinScore = 0.35
)

func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
		timeout:  defaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Search returns the chunks most similar to the query embedding within a
// project, best first. Only chunks of ready documents at their current
// generation are visible.
func (s *Store) Search(ctx context.Context, projectID string, queryEmbedding []float32, opts ...SearchOption) ([]ScoredChunk, error) {
	cfg := buildSearchConfig(opts)
	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vec := pgvector.NewVector(queryEmbedding)
	rows, err := s.queries.SearchChunks(queryCtx, sqlc.SearchChunksParams{
		ProjectID:      projectID,
		QueryEmbedding: &vec,
		MinScore:       cfg.minScore,
		ResultLimit:    int32(cfg.topK),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search timeout after %s: %v", ErrStore, cfg.timeout, err)
		}
		return nil, fmt.Errorf("%w: search: %v", ErrStore, err)
	}

	results := make([]ScoredChunk, 0, len(rows))
	for _, row := range rows {
		results = append(results, ScoredChunk{
			Chunk: Chunk{
				ID:             fromPGUUID(row.ID),
				DocumentID:     fromPGUUID(row.DocumentID),
				ProjectID:      row.ProjectID,
				Text:           row.Content,
				SequenceIndex:  int(row.SequenceIndex),
				SourceFilename: row.SourceFilename,
			},
			Score: row.Similarity,
		})
	}
	s.logger.Debug("search completed", "project_id", projectID, "results", len(results))
	return results, nil
}

// Stats reports document and searchable chunk counts for a project.
func (s *Store) Stats(ctx context.Context, projectID string) (Stats, error) {
	docs, err := s.queries.CountDocumentsByProject(ctx, projectID)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count documents: %v", ErrStore, err)
	}
	chunks, err := s.queries.CountChunksByProject(ctx, projectID)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count chunks: %v", ErrStore, err)
	}
	return Stats{DocumentCount: docs, ChunkCount: chunks}, nil
}

// Analyze refreshes table statistics after bulk chunk writes so the vector
// index planner stays accurate.
func (s *Store) Analyze(ctx context.Context) error {
	if err := s.queries.AnalyzeChunks(ctx); err != nil {
		return fmt.Errorf("%w: analyze: %v", ErrStore, err)
	}
	return nil
}

// timestamptzToTime converts pgtype.Timestamptz, returning the zero time for
// NULL values.
func timestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
