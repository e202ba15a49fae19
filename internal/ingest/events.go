package ingest

import "github.com/google/uuid"

// Step identifies one stage of an ingestion run. Steps are emitted in a
// fixed order; _done variants confirm completion of the matching stage
// before the next begins.
type Step string

const (
	StepUpload          Step = "upload"
	StepParsing         Step = "parsing"
	StepParsingDone     Step = "parsing_done"
	StepCaptioning      Step = "captioning"
	StepDocumentCreated Step = "document_created"
	StepPreparing       Step = "preparing"
	StepChunking        Step = "chunking"
	StepChunkingDone    Step = "chunking_done"
	StepEmbedding       Step = "embedding"
	StepEmbeddingDone   Step = "embedding_done"
	StepStoring         Step = "storing"
	StepStoringDone     Step = "storing_done"
	StepIndexing        Step = "indexing"
	StepIndexingDone    Step = "indexing_done"
	StepDone            Step = "done"
	StepError           Step = "error"
)

// Event is one progress notification from an ingestion run. The channel
// returned by Pipeline.Ingest delivers these in stage order and closes after
// the terminal event.
type Event struct {
	Step       Step      `json:"step"`
	Detail     string    `json:"detail,omitempty"`
	DocumentID uuid.UUID `json:"documentId,omitempty"`
	ChunkCount int       `json:"chunkCount,omitempty"`
	// Warning flags a non-fatal problem, currently only caption failures.
	// The run continues after a warning event.
	Warning bool   `json:"warning,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Terminal reports whether this event ends the run.
func (e Event) Terminal() bool {
	return e.Step == StepDone || e.Step == StepError
}
