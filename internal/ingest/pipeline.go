package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

// Defaults for pipeline tunables.
const (
	DefaultCaptionTimeout = 10 * time.Second
	DefaultMaxUploadSize  = 20 << 20 // 20 MiB
)

// cleanupTimeout bounds rollback work done on a detached context.
const cleanupTimeout = 30 * time.Second

// DocumentRegistry is the document lifecycle surface the pipeline needs.
type DocumentRegistry interface {
	Create(ctx context.Context, projectID, originalName, mimeType string, data []byte) (knowledge.Document, error)
	BeginReingest(ctx context.Context, projectID string, id uuid.UUID) (knowledge.ReingestRun, error)
	MarkReady(ctx context.Context, projectID string, id uuid.UUID, generation int64, chunkCount, imageCount, captionedImageCount int) (bool, error)
	MarkError(ctx context.Context, projectID string, id uuid.UUID, generation int64, message string) (bool, error)
}

// ChunkStore is the chunk persistence surface the pipeline needs.
type ChunkStore interface {
	PutChunks(ctx context.Context, chunks []knowledge.Chunk, generation int64) error
	DeleteDocumentChunks(ctx context.Context, projectID string, documentID uuid.UUID) (int64, error)
	DeleteRun(ctx context.Context, documentID uuid.UUID, generation int64) (int64, error)
	Analyze(ctx context.Context) error
}

// Chunker splits text into bounded pieces.
type Chunker interface {
	Split(text string) []string
}

// Embedder turns chunk texts into vectors, one per input, order-preserving.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline runs document ingestion as an ordered sequence of stages,
// reporting progress over an event channel. One Pipeline serves any number
// of concurrent runs; each run is sequential within itself.
type Pipeline struct {
	parser         knowledge.Parser
	captioner      knowledge.Captioner
	chunker        Chunker
	embedder       Embedder
	store          ChunkStore
	registry       DocumentRegistry
	logger         *slog.Logger
	captionTimeout time.Duration
	maxUploadSize  int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCaptioner enables image captioning for parsers that extract embedded
// images. Without one, images are counted but never captioned.
func WithCaptioner(c knowledge.Captioner) Option {
	return func(p *Pipeline) { p.captioner = c }
}

// WithCaptionTimeout bounds each per-image captioning call.
func WithCaptionTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.captionTimeout = d
		}
	}
}

// WithMaxUploadSize caps accepted upload sizes in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxUploadSize = n
		}
	}
}

// NewPipeline assembles an ingestion pipeline from its collaborators. A nil
// logger falls back to slog.Default.
func NewPipeline(parser knowledge.Parser, chunker Chunker, embedder Embedder, store ChunkStore, registry DocumentRegistry, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		parser:         parser,
		chunker:        chunker,
		embedder:       embedder,
		store:          store,
		registry:       registry,
		logger:         logger,
		captionTimeout: DefaultCaptionTimeout,
		maxUploadSize:  DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Upload is one file submitted for ingestion.
type Upload struct {
	ProjectID string
	Filename  string
	MimeType  string
	Data      []byte
}

func (u Upload) validate(maxSize int64) error {
	if strings.TrimSpace(u.ProjectID) == "" {
		return fmt.Errorf("project id is required")
	}
	if strings.TrimSpace(u.Filename) == "" {
		return fmt.Errorf("filename is required")
	}
	if len(u.Data) == 0 {
		return fmt.Errorf("file is empty")
	}
	if int64(len(u.Data)) > maxSize {
		return fmt.Errorf("file exceeds %d byte limit", maxSize)
	}
	return nil
}

// Ingest runs the full pipeline for a new upload. It returns immediately
// with a channel that delivers progress events in stage order and closes
// after the terminal done or error event. Cancelling ctx aborts the run;
// rollback still happens on a detached context.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) <-chan Event {
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		p.run(ctx, events, up, nil)
	}()
	return events
}

// Reingest re-runs ingestion over a document's stored source bytes, first
// discarding the previous run's chunks. The event stream matches Ingest.
func (p *Pipeline) Reingest(ctx context.Context, projectID string, documentID uuid.UUID) <-chan Event {
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		run, err := p.registry.BeginReingest(ctx, projectID, documentID)
		if err != nil {
			p.emit(ctx, events, Event{Step: StepError, DocumentID: documentID, Err: err.Error()})
			return
		}
		up := Upload{
			ProjectID: projectID,
			Filename:  run.OriginalName,
			MimeType:  run.MimeType,
			Data:      run.SourceData,
		}
		p.run(ctx, events, up, &run)
	}()
	return events
}

// run executes the stage sequence. reingest is nil for a fresh upload and
// carries the claimed generation for a re-ingestion.
func (p *Pipeline) run(ctx context.Context, events chan<- Event, up Upload, reingest *knowledge.ReingestRun) {
	logger := p.logger.With("project_id", up.ProjectID, "filename", up.Filename)

	if err := up.validate(p.maxUploadSize); err != nil {
		p.emit(ctx, events, Event{Step: StepError, Err: err.Error()})
		return
	}
	if !p.emit(ctx, events, Event{
		Step:   StepUpload,
		Detail: fmt.Sprintf("received %s (%d bytes)", up.Filename, len(up.Data)),
	}) {
		return
	}

	// The registry record exists before parsing starts so a parse failure
	// still lands on a persisted error-state document.
	var (
		docID      uuid.UUID
		generation int64
	)
	if reingest != nil {
		docID = reingest.DocumentID
		generation = reingest.Generation
	} else {
		doc, err := p.registry.Create(ctx, up.ProjectID, up.Filename, up.MimeType, up.Data)
		if err != nil {
			p.emit(ctx, events, Event{Step: StepError, Err: err.Error()})
			return
		}
		docID = doc.ID
		generation = doc.Generation
	}
	logger = logger.With("document_id", docID, "generation", generation)

	// fail rolls the run back and reports the terminal error event.
	fail := func(stageErr error) {
		logger.Warn("ingestion failed", "error", stageErr)
		p.rollback(docID, up.ProjectID, generation, stageErr.Error())
		p.emit(ctx, events, Event{Step: StepError, DocumentID: docID, Err: stageErr.Error()})
	}
	// step emits a progress event; a false return means the consumer went
	// away and the run has been rolled back.
	step := func(e Event) bool {
		e.DocumentID = docID
		if !p.emit(ctx, events, e) {
			p.rollback(docID, up.ProjectID, generation, "ingestion cancelled")
			return false
		}
		return true
	}

	if !step(Event{Step: StepParsing, Detail: "extracting text"}) {
		return
	}
	parsed, err := p.parser.Parse(ctx, up.Filename, up.MimeType, up.Data)
	if err != nil {
		fail(err)
		return
	}
	if !step(Event{
		Step:   StepParsingDone,
		Detail: fmt.Sprintf("%d characters, %d images", len(parsed.Text), len(parsed.Images)),
	}) {
		return
	}

	captioned := 0
	if len(parsed.Images) > 0 {
		if !step(Event{
			Step:   StepCaptioning,
			Detail: fmt.Sprintf("captioning %d images", len(parsed.Images)),
		}) {
			return
		}
		captioned = p.captionImages(ctx, events, docID, parsed.Images)
	}

	text := parsed.Text
	for _, img := range parsed.Images {
		if img.Caption != "" {
			text += fmt.Sprintf("\n\n[Image: %s] %s", img.Name, img.Caption)
		}
	}

	if !step(Event{Step: StepDocumentCreated}) {
		return
	}

	// preparing clears chunks from earlier generations so a completed run
	// fully replaces the document's indexed content.
	if !step(Event{Step: StepPreparing, Detail: "clearing previous chunks"}) {
		return
	}
	if _, err := p.store.DeleteDocumentChunks(ctx, up.ProjectID, docID); err != nil {
		fail(err)
		return
	}

	if !step(Event{Step: StepChunking}) {
		return
	}
	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		fail(fmt.Errorf("%w: %s", knowledge.ErrNoContent, up.Filename))
		return
	}
	if !step(Event{
		Step:       StepChunkingDone,
		Detail:     fmt.Sprintf("%d chunks", len(pieces)),
		ChunkCount: len(pieces),
	}) {
		return
	}

	if !step(Event{Step: StepEmbedding}) {
		return
	}
	vectors, err := p.embedder.EmbedTexts(ctx, pieces)
	if err != nil {
		fail(err)
		return
	}
	if !step(Event{Step: StepEmbeddingDone}) {
		return
	}

	chunks := make([]knowledge.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = knowledge.Chunk{
			ID:             uuid.New(),
			DocumentID:     docID,
			ProjectID:      up.ProjectID,
			Text:           piece,
			Embedding:      vectors[i],
			SequenceIndex:  i,
			SourceFilename: up.Filename,
		}
	}

	if !step(Event{Step: StepStoring}) {
		return
	}
	if err := p.store.PutChunks(ctx, chunks, generation); err != nil {
		fail(err)
		return
	}
	if !step(Event{Step: StepStoringDone}) {
		return
	}

	if !step(Event{Step: StepIndexing}) {
		return
	}
	if err := p.store.Analyze(ctx); err != nil {
		fail(err)
		return
	}
	if !step(Event{Step: StepIndexingDone}) {
		return
	}

	ok, err := p.registry.MarkReady(ctx, up.ProjectID, docID, generation,
		len(chunks), len(parsed.Images), captioned)
	if err != nil {
		fail(err)
		return
	}
	if !ok {
		// Deleted or superseded while this run was in flight. Discard the
		// run's chunks so nothing from it reappears.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if _, delErr := p.store.DeleteRun(cleanupCtx, docID, generation); delErr != nil {
			logger.Warn("stale run chunk cleanup failed", "error", delErr)
		}
		p.emit(ctx, events, Event{
			Step:       StepError,
			DocumentID: docID,
			Err:        "document was deleted or replaced during ingestion",
		})
		return
	}

	logger.Info("ingestion completed", "chunks", len(chunks))
	p.emit(ctx, events, Event{
		Step:       StepDone,
		Detail:     fmt.Sprintf("%d chunks indexed", len(chunks)),
		DocumentID: docID,
		ChunkCount: len(chunks),
	})
}

// captionImages runs best-effort captioning over parsed images, mutating
// their Caption fields in place. Failures produce warning events; the run
// continues regardless. Returns the number of successful captions.
func (p *Pipeline) captionImages(ctx context.Context, events chan<- Event, docID uuid.UUID, images []knowledge.Image) int {
	if p.captioner == nil {
		return 0
	}
	captioned := 0
	for i := range images {
		imgCtx, cancel := context.WithTimeout(ctx, p.captionTimeout)
		caption, err := p.captioner.Caption(imgCtx, images[i])
		cancel()
		if err != nil {
			p.emit(ctx, events, Event{
				Step:       StepCaptioning,
				Detail:     fmt.Sprintf("caption failed for %s: %v", images[i].Name, err),
				DocumentID: docID,
				Warning:    true,
			})
			continue
		}
		images[i].Caption = caption
		captioned++
	}
	return captioned
}

// rollback undoes a failed or cancelled run on a detached context so the
// registry and store settle even when the request context is gone.
func (p *Pipeline) rollback(docID uuid.UUID, projectID string, generation int64, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if _, err := p.store.DeleteRun(ctx, docID, generation); err != nil {
		p.logger.Warn("failed run chunk cleanup failed", "document_id", docID, "error", err)
	}
	if _, err := p.registry.MarkError(ctx, projectID, docID, generation, message); err != nil {
		p.logger.Warn("failed to mark document error", "document_id", docID, "error", err)
	}
}

// emit delivers an event unless ctx is done. Returns false when the run
// should stop because the consumer is gone.
func (p *Pipeline) emit(ctx context.Context, events chan<- Event, e Event) bool {
	select {
	case events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
