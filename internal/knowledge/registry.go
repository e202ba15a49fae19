package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/sqlc"
)

// DocumentQuerier defines the database operations Registry needs, defined by
// the consumer so sqlc.Queries satisfies it and tests can mock it.
type DocumentQuerier interface {
	CreateDocument(ctx context.Context, arg sqlc.CreateDocumentParams) (sqlc.Document, error)
	GetDocument(ctx context.Context, arg sqlc.GetDocumentParams) (sqlc.Document, error)
	ListDocumentsByProject(ctx context.Context, projectID string) ([]sqlc.ListDocumentsByProjectRow, error)
	DeleteDocument(ctx context.Context, arg sqlc.DeleteDocumentParams) (int64, error)
	BeginReingest(ctx context.Context, arg sqlc.BeginReingestParams) (sqlc.BeginReingestRow, error)
	MarkDocumentReady(ctx context.Context, arg sqlc.MarkDocumentReadyParams) (int64, error)
	MarkDocumentError(ctx context.Context, arg sqlc.MarkDocumentErrorParams) (int64, error)
	CountReadyDocuments(ctx context.Context, projectID string) (int64, error)
}

// Registry manages document lifecycle records. Every operation is scoped to
// a project id; a document id from another project behaves as not found.
//
// Status transitions are guarded by the document's generation so that a
// delete or a newer ingestion run invalidates status flips from stale runs.
type Registry struct {
	queries DocumentQuerier
	logger  *slog.Logger
}

// NewRegistry creates a document registry. A nil logger falls back to
// slog.Default.
func NewRegistry(querier DocumentQuerier, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{queries: querier, logger: logger}
}

// ReingestRun describes a document freshly claimed for re-ingestion: its
// bumped generation and the original upload bytes to re-parse.
type ReingestRun struct {
	DocumentID   uuid.UUID
	ProjectID    string
	OriginalName string
	MimeType     string
	Generation   int64
	SourceData   []byte
}

// Create registers a new document in processing state at generation 1 and
// keeps the upload bytes so later re-ingestion can re-run the parser.
func (r *Registry) Create(ctx context.Context, projectID, originalName, mimeType string, data []byte) (Document, error) {
	row, err := r.queries.CreateDocument(ctx, sqlc.CreateDocumentParams{
		ID:           pgUUID(uuid.New()),
		ProjectID:    projectID,
		OriginalName: originalName,
		SizeBytes:    int64(len(data)),
		MimeType:     mimeType,
		SourceData:   data,
	})
	if err != nil {
		return Document{}, fmt.Errorf("%w: create document %q: %v", ErrStore, originalName, err)
	}
	doc := documentFromRecord(row)
	r.logger.Info("document created",
		"document_id", doc.ID, "project_id", projectID, "name", originalName)
	return doc, nil
}

// Get returns a document by id within a project.
func (r *Registry) Get(ctx context.Context, projectID string, id uuid.UUID) (Document, error) {
	row, err := r.queries.GetDocument(ctx, sqlc.GetDocumentParams{
		ID:        pgUUID(id),
		ProjectID: projectID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return Document{}, fmt.Errorf("%w: get document %s: %v", ErrStore, id, err)
	}
	return documentFromRecord(row), nil
}

// List returns a project's documents, newest first.
func (r *Registry) List(ctx context.Context, projectID string) ([]Document, error) {
	rows, err := r.queries.ListDocumentsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", ErrStore, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, documentFromListRow(row))
	}
	return docs, nil
}

// Delete removes a document record; chunks go with it via cascade. Returns
// false when the document did not exist, which callers treat as success on
// repeated deletes.
func (r *Registry) Delete(ctx context.Context, projectID string, id uuid.UUID) (bool, error) {
	n, err := r.queries.DeleteDocument(ctx, sqlc.DeleteDocumentParams{
		ID:        pgUUID(id),
		ProjectID: projectID,
	})
	if err != nil {
		return false, fmt.Errorf("%w: delete document %s: %v", ErrStore, id, err)
	}
	if n > 0 {
		r.logger.Info("document deleted", "document_id", id, "project_id", projectID)
	}
	return n > 0, nil
}

// BeginReingest claims a settled document for a new ingestion run: flips it
// back to processing and bumps its generation in one statement. Returns
// ErrAlreadyProcessing when another run holds the document and ErrNotFound
// when it does not exist.
func (r *Registry) BeginReingest(ctx context.Context, projectID string, id uuid.UUID) (ReingestRun, error) {
	row, err := r.queries.BeginReingest(ctx, sqlc.BeginReingestParams{
		ID:        pgUUID(id),
		ProjectID: projectID,
	})
	if err == nil {
		r.logger.Info("reingest started",
			"document_id", id, "project_id", projectID, "generation", row.Generation)
		return ReingestRun{
			DocumentID:   fromPGUUID(row.ID),
			ProjectID:    row.ProjectID,
			OriginalName: row.OriginalName,
			MimeType:     row.MimeType,
			Generation:   row.Generation,
			SourceData:   row.SourceData,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ReingestRun{}, fmt.Errorf("%w: begin reingest of %s: %v", ErrStore, id, err)
	}
	// No row matched: either the document is mid-ingestion or it is gone.
	if _, getErr := r.Get(ctx, projectID, id); getErr == nil {
		return ReingestRun{}, fmt.Errorf("%w: document %s", ErrAlreadyProcessing, id)
	}
	return ReingestRun{}, fmt.Errorf("%w: document %s", ErrNotFound, id)
}

// MarkReady finalizes a successful run. Returns false when the guarded
// update matched nothing, meaning the document was deleted or a newer run
// superseded this one; the caller must then discard the run's chunks.
func (r *Registry) MarkReady(ctx context.Context, projectID string, id uuid.UUID, generation int64, chunkCount, imageCount, captionedImageCount int) (bool, error) {
	n, err := r.queries.MarkDocumentReady(ctx, sqlc.MarkDocumentReadyParams{
		ID:                  pgUUID(id),
		ProjectID:           projectID,
		Generation:          generation,
		ChunkCount:          int32(chunkCount),
		ImageCount:          int32(imageCount),
		CaptionedImageCount: int32(captionedImageCount),
	})
	if err != nil {
		return false, fmt.Errorf("%w: mark ready %s: %v", ErrStore, id, err)
	}
	return n > 0, nil
}

// MarkError records a failed run. Same generation guard as MarkReady.
func (r *Registry) MarkError(ctx context.Context, projectID string, id uuid.UUID, generation int64, message string) (bool, error) {
	n, err := r.queries.MarkDocumentError(ctx, sqlc.MarkDocumentErrorParams{
		ID:           pgUUID(id),
		ProjectID:    projectID,
		Generation:   generation,
		ErrorMessage: &message,
	})
	if err != nil {
		return false, fmt.Errorf("%w: mark error %s: %v", ErrStore, id, err)
	}
	return n > 0, nil
}

// CountReady returns the number of ready documents in a project.
func (r *Registry) CountReady(ctx context.Context, projectID string) (int64, error) {
	n, err := r.queries.CountReadyDocuments(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("%w: count ready documents: %v", ErrStore, err)
	}
	return n, nil
}

func documentFromRecord(row sqlc.Document) Document {
	doc := Document{
		ID:                  fromPGUUID(row.ID),
		ProjectID:           row.ProjectID,
		OriginalName:        row.OriginalName,
		SizeBytes:           row.SizeBytes,
		MimeType:            row.MimeType,
		Status:              Status(row.Status),
		ChunkCount:          int(row.ChunkCount),
		ImageCount:          int(row.ImageCount),
		CaptionedImageCount: int(row.CaptionedImageCount),
		Generation:          row.Generation,
		CreatedAt:           timestamptzToTime(row.CreatedAt),
	}
	if row.ErrorMessage != nil {
		doc.ErrorMessage = *row.ErrorMessage
	}
	return doc
}

func documentFromListRow(row sqlc.ListDocumentsByProjectRow) Document {
	doc := Document{
		ID:                  fromPGUUID(row.ID),
		ProjectID:           row.ProjectID,
		OriginalName:        row.OriginalName,
		SizeBytes:           row.SizeBytes,
		MimeType:            row.MimeType,
		Status:              Status(row.Status),
		ChunkCount:          int(row.ChunkCount),
		ImageCount:          int(row.ImageCount),
		CaptionedImageCount: int(row.CaptionedImageCount),
		Generation:          row.Generation,
		CreatedAt:           timestamptzToTime(row.CreatedAt),
	}
	if row.ErrorMessage != nil {
		doc.ErrorMessage = *row.ErrorMessage
	}
	return doc
}
