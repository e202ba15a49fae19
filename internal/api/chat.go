package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/rag"
)

// maxChatBodyBytes caps the chat request body.
const maxChatBodyBytes = 1 << 20

// Answerer streams chat answers grounded in a project's knowledge base.
type Answerer interface {
	Answer(ctx context.Context, projectID, question string) <-chan rag.Event
}

type chatHandler struct {
	chat   Answerer
	logger *slog.Logger
}

type chatRequest struct {
	ProjectID string `json:"project_id"`
	Question  string `json:"question"`
}

// ask handles POST /api/v1/chat. The response is an SSE stream: one sources
// event first, then chunk events carrying answer text, or an error event.
func (h *chatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "missing_project_id", "project_id is required")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}

	flusher := sseHeaders(w)
	if flusher == nil {
		return
	}

	ctx := r.Context()
	events := h.chat.Answer(ctx, req.ProjectID, req.Question)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, string(e.Type), e); err != nil {
				h.logger.Debug("chat event write failed", "error", err)
				return
			}
		case <-ctx.Done():
			h.logger.Debug("chat client disconnected", "project_id", req.ProjectID)
			return
		}
	}
}
