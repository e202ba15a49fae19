package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/ingest"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/rag"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/testutil"
)

// fakePipeline implements Ingestor.
type fakePipeline struct {
	events         []ingest.Event
	lastUpload     ingest.Upload
	reingestCalled bool
}

func (f *fakePipeline) Ingest(ctx context.Context, up ingest.Upload) <-chan ingest.Event {
	f.lastUpload = up
	return f.stream()
}

func (f *fakePipeline) Reingest(ctx context.Context, projectID string, documentID uuid.UUID) <-chan ingest.Event {
	f.reingestCalled = true
	return f.stream()
}

func (f *fakePipeline) stream() <-chan ingest.Event {
	ch := make(chan ingest.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch
}

// fakeDocs implements DocumentService and StatsService.
type fakeDocs struct {
	docs      []knowledge.Document
	listErr   error
	deleted   bool
	deleteErr error
	stats     knowledge.Stats
	statsErr  error
}

func (f *fakeDocs) List(ctx context.Context, projectID string) ([]knowledge.Document, error) {
	return f.docs, f.listErr
}

func (f *fakeDocs) Delete(ctx context.Context, projectID string, id uuid.UUID) (bool, error) {
	return f.deleted, f.deleteErr
}

func (f *fakeDocs) Stats(ctx context.Context, projectID string) (knowledge.Stats, error) {
	return f.stats, f.statsErr
}

// fakeChat implements Answerer.
type fakeChat struct {
	events []rag.Event
}

func (f *fakeChat) Answer(ctx context.Context, projectID, question string) <-chan rag.Event {
	ch := make(chan rag.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch
}

func newTestServer(t *testing.T, pipeline *fakePipeline, docs *fakeDocs, chat *fakeChat) *Server {
	t.Helper()
	if pipeline == nil {
		pipeline = &fakePipeline{}
	}
	if docs == nil {
		docs = &fakeDocs{}
	}
	if chat == nil {
		chat = &fakeChat{}
	}
	srv, err := NewServer(ServerConfig{
		Pipeline: pipeline,
		Registry: docs,
		Stats:    docs,
		Chat:     chat,
		IsDev:    true,
	})
	require.NoError(t, err)
	return srv
}

func multipartUpload(t *testing.T, projectID, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("project_id", projectID))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	require.Error(t, err)

	_, err = NewServer(ServerConfig{Pipeline: &fakePipeline{}})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyWithoutPool(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadStreamsIngestionEvents(t *testing.T) {
	docID := uuid.New()
	pipeline := &fakePipeline{events: []ingest.Event{
		{Step: ingest.StepUpload, Detail: "received notes.md (42 bytes)"},
		{Step: ingest.StepParsing, DocumentID: docID},
		{Step: ingest.StepDone, DocumentID: docID, ChunkCount: 3},
	}}
	srv := newTestServer(t, pipeline, nil, nil)

	body, contentType := multipartUpload(t, "proj-1", "notes.md", "# Notes\n\nSome content.")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := testutil.ParseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "upload", events[0].Type)
	assert.Equal(t, "parsing", events[1].Type)
	assert.Equal(t, "done", events[2].Type)

	var done ingest.Event
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &done))
	assert.Equal(t, 3, done.ChunkCount)
	assert.Equal(t, docID, done.DocumentID)

	assert.Equal(t, "proj-1", pipeline.lastUpload.ProjectID)
	assert.Equal(t, "notes.md", pipeline.lastUpload.Filename)
}

func TestUploadMissingProjectID(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, err = fw.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_project_id", resp.Error)
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("project_id", "proj-1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDocuments(t *testing.T) {
	docs := &fakeDocs{docs: []knowledge.Document{
		{
			ID:           uuid.New(),
			ProjectID:    "proj-1",
			OriginalName: "design.md",
			Status:       knowledge.StatusReady,
			ChunkCount:   12,
		},
		{
			ID:           uuid.New(),
			ProjectID:    "proj-1",
			OriginalName: "broken.md",
			Status:       knowledge.StatusError,
			ErrorMessage: "parse failed",
		},
	}}
	srv := newTestServer(t, nil, docs, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents?project_id=proj-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Documents []documentJSON `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "ready", resp.Documents[0].Status)
	assert.Equal(t, 12, resp.Documents[0].ChunkCount)
	assert.Equal(t, "parse failed", resp.Documents[1].ErrorMessage)
}

func TestListDocumentsMissingProjectID(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDocumentIdempotent(t *testing.T) {
	docs := &fakeDocs{deleted: true}
	srv := newTestServer(t, nil, docs, nil)

	url := "/api/v1/documents/" + uuid.NewString() + "?project_id=proj-1"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, url, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Absent documents still delete successfully.
	docs.deleted = false
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, url, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteDocumentInvalidID(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/not-a-uuid?project_id=proj-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReingestStreams(t *testing.T) {
	pipeline := &fakePipeline{events: []ingest.Event{
		{Step: ingest.StepUpload},
		{Step: ingest.StepDone, ChunkCount: 5},
	}}
	srv := newTestServer(t, pipeline, nil, nil)

	url := "/api/v1/documents/" + uuid.NewString() + "/reingest?project_id=proj-1"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, pipeline.reingestCalled)
	events := testutil.ParseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "done", events[1].Type)
}

func TestStats(t *testing.T) {
	docs := &fakeDocs{stats: knowledge.Stats{DocumentCount: 4, ChunkCount: 120}}
	srv := newTestServer(t, nil, docs, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats?project_id=proj-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"documentCount":4,"chunkCount":120}`, rec.Body.String())
}

func TestChatStreamsSourcesAndChunks(t *testing.T) {
	chat := &fakeChat{events: []rag.Event{
		{Type: rag.EventSources, Sources: []rag.Source{
			{Filename: "deploy.md", Score: 0.88, Preview: "blue-green rollout"},
		}},
		{Type: rag.EventChunk, Content: "We deploy "},
		{Type: rag.EventChunk, Content: "with blue-green."},
	}}
	srv := newTestServer(t, nil, nil, chat)

	reqBody := strings.NewReader(`{"project_id":"proj-1","question":"how do we deploy?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	events := testutil.ParseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "sources", events[0].Type)

	var sources rag.Event
	require.NoError(t, json.Unmarshal([]byte(events[0].Data), &sources))
	require.Len(t, sources.Sources, 1)
	assert.Equal(t, "deploy.md", sources.Sources[0].Filename)

	assert.Equal(t, "chunk", events[1].Type)
	assert.Equal(t, "chunk", events[2].Type)
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing project", `{"question":"q"}`},
		{"missing question", `{"project_id":"p"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents?project_id=p", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	// Dev mode skips HSTS.
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiting(t *testing.T) {
	pipeline := &fakePipeline{}
	docs := &fakeDocs{}
	srv, err := NewServer(ServerConfig{
		Pipeline:  pipeline,
		Registry:  docs,
		Stats:     docs,
		Chat:      &fakeChat{},
		IsDev:     true,
		RateBurst: 2,
	})
	require.NoError(t, err)

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats?project_id=p", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestCORSPreflightAllowed(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Pipeline:    &fakePipeline{},
		Registry:    &fakeDocs{},
		Stats:       &fakeDocs{},
		Chat:        &fakeChat{},
		IsDev:       true,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unlisted origins get no CORS headers.
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
