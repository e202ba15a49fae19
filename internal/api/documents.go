package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/ingest"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

// maxUploadBytes caps the multipart request body for document uploads.
const maxUploadBytes = 32 << 20

// Ingestor runs document ingestion and re-ingestion, streaming progress.
type Ingestor interface {
	Ingest(ctx context.Context, up ingest.Upload) <-chan ingest.Event
	Reingest(ctx context.Context, projectID string, documentID uuid.UUID) <-chan ingest.Event
}

// DocumentService is the registry surface the document endpoints need.
type DocumentService interface {
	List(ctx context.Context, projectID string) ([]knowledge.Document, error)
	Delete(ctx context.Context, projectID string, id uuid.UUID) (bool, error)
}

// StatsService reports knowledge base counts per project.
type StatsService interface {
	Stats(ctx context.Context, projectID string) (knowledge.Stats, error)
}

type documentsHandler struct {
	pipeline Ingestor
	registry DocumentService
	stats    StatsService
	logger   *slog.Logger
}

// documentJSON is the wire shape for Document metadata.
type documentJSON struct {
	ID                  uuid.UUID `json:"id"`
	ProjectID           string    `json:"projectId"`
	OriginalName        string    `json:"originalName"`
	SizeBytes           int64     `json:"sizeBytes"`
	MimeType            string    `json:"mimeType"`
	Status              string    `json:"status"`
	ChunkCount          int       `json:"chunkCount"`
	ImageCount          int       `json:"imageCount"`
	CaptionedImageCount int       `json:"captionedImageCount"`
	ErrorMessage        string    `json:"errorMessage,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toDocumentJSON(d knowledge.Document) documentJSON {
	return documentJSON{
		ID:                  d.ID,
		ProjectID:           d.ProjectID,
		OriginalName:        d.OriginalName,
		SizeBytes:           d.SizeBytes,
		MimeType:            d.MimeType,
		Status:              string(d.Status),
		ChunkCount:          d.ChunkCount,
		ImageCount:          d.ImageCount,
		CaptionedImageCount: d.CaptionedImageCount,
		ErrorMessage:        d.ErrorMessage,
		CreatedAt:           d.CreatedAt,
	}
}

// upload handles POST /api/v1/documents: a multipart form with project_id
// and file fields, answered with an SSE stream of ingestion progress.
func (h *documentsHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "invalid multipart form")
		return
	}
	projectID := r.FormValue("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing_project_id", "project_id is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read_failed", "could not read uploaded file")
		return
	}

	up := ingest.Upload{
		ProjectID: projectID,
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Data:      data,
	}

	flusher := sseHeaders(w)
	if flusher == nil {
		return
	}
	h.streamIngestion(r.Context(), w, flusher, h.pipeline.Ingest(r.Context(), up))
}

// reingest handles POST /api/v1/documents/{id}/reingest, streaming the same
// event sequence as upload over the document's stored source.
func (h *documentsHandler) reingest(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing_project_id", "project_id is required")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid document id")
		return
	}

	flusher := sseHeaders(w)
	if flusher == nil {
		return
	}
	h.streamIngestion(r.Context(), w, flusher, h.pipeline.Reingest(r.Context(), projectID, id))
}

func (h *documentsHandler) streamIngestion(ctx context.Context, w io.Writer, flusher http.Flusher, events <-chan ingest.Event) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, string(e.Step), e); err != nil {
				// Write failure usually means the client disconnected; the
				// pipeline notices via context cancellation.
				h.logger.Debug("ingestion event write failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// list handles GET /api/v1/documents?project_id=... The metadata array is
// wrapped in a {"documents": [...]} envelope.
func (h *documentsHandler) list(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing_project_id", "project_id is required")
		return
	}
	docs, err := h.registry.List(r.Context(), projectID)
	if err != nil {
		h.logger.Error("list documents failed", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list documents")
		return
	}
	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentJSON(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// delete handles DELETE /api/v1/documents/{id}?project_id=... Deleting an
// already-absent document succeeds.
func (h *documentsHandler) delete(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing_project_id", "project_id is required")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid document id")
		return
	}
	existed, err := h.registry.Delete(r.Context(), projectID, id)
	if err != nil {
		h.logger.Error("delete document failed", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "existed": existed})
}

// getStats handles GET /api/v1/stats?project_id=...
func (h *documentsHandler) getStats(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing_project_id", "project_id is required")
		return
	}
	stats, err := h.stats.Stats(r.Context(), projectID)
	if err != nil {
		h.logger.Error("stats failed", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "stats_failed", "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
