package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

// previewMaxRunes bounds the citation preview shown alongside each source.
const previewMaxRunes = 160

// noDocumentsMessage is returned verbatim when a project has nothing indexed.
const noDocumentsMessage = "No documents are available in this project's knowledge base yet. Upload documents first, then ask again."

// Source is one citation attached to a chat answer.
type Source struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Preview  string  `json:"preview"`
}

// EventType discriminates chat stream events.
type EventType string

const (
	EventSources EventType = "sources"
	EventChunk   EventType = "chunk"
	EventError   EventType = "error"
)

// Event is one element of a chat answer stream: a single upfront sources
// event, then chunk events carrying answer text, or an error event ending
// the stream.
type Event struct {
	Type    EventType `json:"type"`
	Sources []Source  `json:"sources,omitempty"`
	Content string    `json:"content,omitempty"`
}

// Generator streams model-generated text for a prompt through onChunk.
type Generator interface {
	Generate(ctx context.Context, prompt string, onChunk func(text string) error) error
}

// ReadyCounter reports how many documents in a project are searchable.
type ReadyCounter interface {
	CountReady(ctx context.Context, projectID string) (int64, error)
}

// ChunkRetriever is the retrieval surface Chat needs.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, projectID, query string) ([]knowledge.ScoredChunk, error)
}

// Chat answers questions against a project's knowledge base: retrieve
// relevant chunks, cite them, then stream a grounded answer.
type Chat struct {
	retriever ChunkRetriever
	ready     ReadyCounter
	generator Generator
	logger    *slog.Logger
}

// NewChat assembles the chat orchestrator. A nil logger falls back to
// slog.Default.
func NewChat(retriever ChunkRetriever, ready ReadyCounter, generator Generator, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{retriever: retriever, ready: ready, generator: generator, logger: logger}
}

// Answer streams the response to a question. The channel delivers at most
// one sources event first, then chunk events, and closes after the answer
// completes or an error event is sent. When the project has no ready
// documents, a single canned chunk is sent without touching retrieval.
func (c *Chat) Answer(ctx context.Context, projectID, question string) <-chan Event {
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		c.answer(ctx, events, projectID, question)
	}()
	return events
}

func (c *Chat) answer(ctx context.Context, events chan<- Event, projectID, question string) {
	if strings.TrimSpace(question) == "" {
		c.send(ctx, events, Event{Type: EventError, Content: "question is required"})
		return
	}

	ready, err := c.ready.CountReady(ctx, projectID)
	if err != nil {
		c.send(ctx, events, Event{Type: EventError, Content: fmt.Sprintf("checking knowledge base: %v", err)})
		return
	}
	if ready == 0 {
		c.send(ctx, events, Event{Type: EventChunk, Content: noDocumentsMessage})
		return
	}

	chunks, err := c.retriever.Retrieve(ctx, projectID, question)
	if err != nil {
		c.send(ctx, events, Event{Type: EventError, Content: fmt.Sprintf("retrieval failed: %v", err)})
		return
	}

	sources := make([]Source, 0, len(chunks))
	for _, sc := range chunks {
		sources = append(sources, Source{
			Filename: sc.Chunk.SourceFilename,
			Score:    sc.Score,
			Preview:  preview(sc.Chunk.Text),
		})
	}
	if !c.send(ctx, events, Event{Type: EventSources, Sources: sources}) {
		return
	}

	prompt := buildPrompt(question, chunks)
	genErr := c.generator.Generate(ctx, prompt, func(text string) error {
		if text == "" {
			return nil
		}
		if !c.send(ctx, events, Event{Type: EventChunk, Content: text}) {
			return ctx.Err()
		}
		return nil
	})
	if genErr != nil {
		c.logger.Warn("generation failed", "project_id", projectID, "error", genErr)
		c.send(ctx, events, Event{Type: EventError, Content: fmt.Sprintf("answer generation failed: %v", genErr)})
	}
}

func (c *Chat) send(ctx context.Context, events chan<- Event, e Event) bool {
	select {
	case events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildPrompt assembles the grounded prompt: numbered context excerpts with
// their source filenames, then the user's question.
func buildPrompt(question string, chunks []knowledge.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context excerpts below. ")
	b.WriteString("If the context does not contain the answer, say so plainly.\n\n")
	if len(chunks) == 0 {
		b.WriteString("Context: (no relevant excerpts found)\n")
	}
	for i, sc := range chunks {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, sc.Chunk.SourceFilename, sc.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewMaxRunes {
		return text
	}
	return string(runes[:previewMaxRunes-1]) + "…"
}
