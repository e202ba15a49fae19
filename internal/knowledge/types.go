package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimension is the vector dimension used by the chunks table.
// Must match vector(768) in db/migrations.
const EmbeddingDimension = 768

// MaxChunkTextLength bounds the text stored per chunk.
const MaxChunkTextLength = 1500

// Status is the lifecycle state of a document.
type Status string

const (
	// StatusProcessing is the initial state, set at creation. An ingestion
	// run is in flight; the document is excluded from retrieval.
	StatusProcessing Status = "processing"

	// StatusReady means ingestion completed and all chunks are searchable.
	StatusReady Status = "ready"

	// StatusError means ingestion failed; ErrorMessage is set and no chunks
	// for this document are visible to retrieval.
	StatusError Status = "error"
)

// Document is the metadata record for one uploaded file, scoped to a project.
type Document struct {
	ID                  uuid.UUID
	ProjectID           string
	OriginalName        string
	SizeBytes           int64
	MimeType            string
	Status              Status
	ChunkCount          int
	ImageCount          int
	CaptionedImageCount int
	ErrorMessage        string
	// Generation counts ingestion runs for this document. Chunk writes and
	// the final status flip carry the run's generation, so a delete or a
	// newer run invalidates anything a stale run tries to finalize.
	Generation int64
	CreatedAt  time.Time
}

// Chunk is one bounded slice of a document's text with its embedding vector.
// Chunks are immutable once written; re-ingestion replaces them wholesale.
type Chunk struct {
	ID             uuid.UUID
	DocumentID     uuid.UUID
	ProjectID      string
	Text           string
	Embedding      []float32
	SequenceIndex  int
	SourceFilename string
}

// ScoredChunk is a search result: a chunk and its cosine similarity to the
// query. Embedding is not populated on read.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Stats summarizes a project's knowledge base.
type Stats struct {
	DocumentCount int64 `json:"documentCount"`
	ChunkCount    int64 `json:"chunkCount"`
}
