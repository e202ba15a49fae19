package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/sqlc"
)

// mockChunkQuerier implements ChunkQuerier for testing.
type mockChunkQuerier struct {
	insertCalls      []sqlc.InsertChunkParams
	insertErr        error
	deleteDocCalls   []sqlc.DeleteDocumentChunksParams
	deleteDocRows    int64
	deleteDocErr     error
	deleteRunCalls   []sqlc.DeleteRunChunksParams
	deleteRunRows    int64
	deleteRunErr     error
	searchCalls      []sqlc.SearchChunksParams
	searchResults    []sqlc.SearchChunksRow
	searchErr        error
	chunkCount       int64
	chunkCountErr    error
	documentCount    int64
	documentCountErr error
	analyzeCalls     int
	analyzeErr       error
}

func (m *mockChunkQuerier) InsertChunk(ctx context.Context, arg sqlc.InsertChunkParams) error {
	m.insertCalls = append(m.insertCalls, arg)
	return m.insertErr
}

func (m *mockChunkQuerier) DeleteDocumentChunks(ctx context.Context, arg sqlc.DeleteDocumentChunksParams) (int64, error) {
	m.deleteDocCalls = append(m.deleteDocCalls, arg)
	return m.deleteDocRows, m.deleteDocErr
}

func (m *mockChunkQuerier) DeleteRunChunks(ctx context.Context, arg sqlc.DeleteRunChunksParams) (int64, error) {
	m.deleteRunCalls = append(m.deleteRunCalls, arg)
	return m.deleteRunRows, m.deleteRunErr
}

func (m *mockChunkQuerier) SearchChunks(ctx context.Context, arg sqlc.SearchChunksParams) ([]sqlc.SearchChunksRow, error) {
	m.searchCalls = append(m.searchCalls, arg)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults, nil
}

func (m *mockChunkQuerier) CountChunksByProject(ctx context.Context, projectID string) (int64, error) {
	return m.chunkCount, m.chunkCountErr
}

func (m *mockChunkQuerier) CountDocumentsByProject(ctx context.Context, projectID string) (int64, error) {
	return m.documentCount, m.documentCountErr
}

func (m *mockChunkQuerier) AnalyzeChunks(ctx context.Context) error {
	m.analyzeCalls++
	return m.analyzeErr
}

func testChunks(docID uuid.UUID, n int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{
			ID:             uuid.New(),
			DocumentID:     docID,
			ProjectID:      "proj-1",
			Text:           "chunk text",
			Embedding:      []float32{0.1, 0.2, 0.3},
			SequenceIndex:  i,
			SourceFilename: "notes.md",
		}
	}
	return chunks
}

func TestPutChunks(t *testing.T) {
	mock := &mockChunkQuerier{}
	store := NewStore(mock, slog.New(slog.DiscardHandler))
	docID := uuid.New()

	if err := store.PutChunks(context.Background(), testChunks(docID, 3), 2); err != nil {
		t.Fatalf("PutChunks() error = %v", err)
	}
	if len(mock.insertCalls) != 3 {
		t.Fatalf("got %d inserts, want 3", len(mock.insertCalls))
	}
	for i, call := range mock.insertCalls {
		if call.Generation != 2 {
			t.Errorf("insert %d generation = %d, want 2", i, call.Generation)
		}
		if call.SequenceIndex != int32(i) {
			t.Errorf("insert %d sequence = %d, want %d", i, call.SequenceIndex, i)
		}
	}
}

func TestPutChunksRejectsMissingEmbedding(t *testing.T) {
	mock := &mockChunkQuerier{}
	store := NewStore(mock, nil)
	chunks := testChunks(uuid.New(), 1)
	chunks[0].Embedding = nil

	err := store.PutChunks(context.Background(), chunks, 1)
	if !errors.Is(err, ErrStore) {
		t.Fatalf("PutChunks() error = %v, want ErrStore", err)
	}
	if len(mock.insertCalls) != 0 {
		t.Errorf("insert was attempted for chunk without embedding")
	}
}

func TestPutChunksInsertError(t *testing.T) {
	mock := &mockChunkQuerier{insertErr: errors.New("connection reset")}
	store := NewStore(mock, nil)

	err := store.PutChunks(context.Background(), testChunks(uuid.New(), 1), 1)
	if !errors.Is(err, ErrStore) {
		t.Fatalf("PutChunks() error = %v, want ErrStore", err)
	}
}

func TestDeleteDocumentChunks(t *testing.T) {
	mock := &mockChunkQuerier{deleteDocRows: 7}
	store := NewStore(mock, nil)
	docID := uuid.New()

	n, err := store.DeleteDocumentChunks(context.Background(), "proj-1", docID)
	if err != nil {
		t.Fatalf("DeleteDocumentChunks() error = %v", err)
	}
	if n != 7 {
		t.Errorf("deleted = %d, want 7", n)
	}
	if got := mock.deleteDocCalls[0].ProjectID; got != "proj-1" {
		t.Errorf("project scope = %q, want proj-1", got)
	}
}

func TestDeleteRun(t *testing.T) {
	mock := &mockChunkQuerier{deleteRunRows: 4}
	store := NewStore(mock, nil)
	docID := uuid.New()

	n, err := store.DeleteRun(context.Background(), docID, 3)
	if err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	if n != 4 {
		t.Errorf("deleted = %d, want 4", n)
	}
	if got := mock.deleteRunCalls[0].Generation; got != 3 {
		t.Errorf("generation = %d, want 3", got)
	}
}

func TestSearchDefaults(t *testing.T) {
	mock := &mockChunkQuerier{
		searchResults: []sqlc.SearchChunksRow{
			{
				ID:             pgUUID(uuid.New()),
				DocumentID:     pgUUID(uuid.New()),
				ProjectID:      "proj-1",
				Content:        "deployment uses blue-green rollout",
				SequenceIndex:  0,
				SourceFilename: "ops.md",
				Similarity:     0.91,
			},
		},
	}
	store := NewStore(mock, nil)

	results, err := store.Search(context.Background(), "proj-1", []float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Score != 0.91 {
		t.Errorf("score = %f, want 0.91", results[0].Score)
	}
	params := mock.searchCalls[0]
	if params.ResultLimit != DefaultTopK {
		t.Errorf("limit = %d, want default %d", params.ResultLimit, DefaultTopK)
	}
	if params.MinScore != DefaultMinScore {
		t.Errorf("min score = %f, want default %f", params.MinScore, DefaultMinScore)
	}
}

func TestSearchOptions(t *testing.T) {
	mock := &mockChunkQuerier{}
	store := NewStore(mock, nil)

	_, err := store.Search(context.Background(), "proj-1", []float32{0.5},
		WithTopK(12), WithMinScore(0.6))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	params := mock.searchCalls[0]
	if params.ResultLimit != 12 {
		t.Errorf("limit = %d, want 12", params.ResultLimit)
	}
	if params.MinScore != 0.6 {
		t.Errorf("min score = %f, want 0.6", params.MinScore)
	}
}

func TestSearchIgnoresInvalidOptions(t *testing.T) {
	mock := &mockChunkQuerier{}
	store := NewStore(mock, nil)

	_, err := store.Search(context.Background(), "proj-1", []float32{0.5},
		WithTopK(0), WithMinScore(1.5))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	params := mock.searchCalls[0]
	if params.ResultLimit != DefaultTopK {
		t.Errorf("limit = %d, want default after invalid option", params.ResultLimit)
	}
	if params.MinScore != DefaultMinScore {
		t.Errorf("min score = %f, want default after invalid option", params.MinScore)
	}
}

func TestSearchError(t *testing.T) {
	mock := &mockChunkQuerier{searchErr: errors.New("index corrupted")}
	store := NewStore(mock, nil)

	_, err := store.Search(context.Background(), "proj-1", []float32{0.5})
	if !errors.Is(err, ErrStore) {
		t.Fatalf("Search() error = %v, want ErrStore", err)
	}
}

func TestStats(t *testing.T) {
	mock := &mockChunkQuerier{documentCount: 3, chunkCount: 42}
	store := NewStore(mock, nil)

	stats, err := store.Stats(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 3 || stats.ChunkCount != 42 {
		t.Errorf("Stats() = %+v, want {3 42}", stats)
	}
}

func TestStatsError(t *testing.T) {
	mock := &mockChunkQuerier{chunkCountErr: errors.New("timeout")}
	store := NewStore(mock, nil)

	_, err := store.Stats(context.Background(), "proj-1")
	if !errors.Is(err, ErrStore) {
		t.Fatalf("Stats() error = %v, want ErrStore", err)
	}
}

func TestAnalyze(t *testing.T) {
	mock := &mockChunkQuerier{}
	store := NewStore(mock, nil)

	if err := store.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if mock.analyzeCalls != 1 {
		t.Errorf("analyze called %d times, want 1", mock.analyzeCalls)
	}
}
