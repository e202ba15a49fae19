package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

// stubRetriever implements ChunkRetriever.
type stubRetriever struct {
	chunks []knowledge.ScoredChunk
	err    error
	calls  int
}

func (s *stubRetriever) Retrieve(ctx context.Context, projectID, query string) ([]knowledge.ScoredChunk, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

// stubCounter implements ReadyCounter.
type stubCounter struct {
	count int64
	err   error
}

func (s *stubCounter) CountReady(ctx context.Context, projectID string) (int64, error) {
	return s.count, s.err
}

// stubGenerator implements Generator.
type stubGenerator struct {
	pieces     []string
	err        error
	failAfter  int // emit this many pieces before returning err
	lastPrompt string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, onChunk func(string) error) error {
	s.lastPrompt = prompt
	pieces := s.pieces
	if s.err != nil && s.failAfter < len(pieces) {
		pieces = pieces[:s.failAfter]
	}
	for _, piece := range pieces {
		if err := onChunk(piece); err != nil {
			return err
		}
	}
	return s.err
}

func collectEvents(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for chat events")
		}
	}
}

func scoredChunk(filename, text string, score float64) knowledge.ScoredChunk {
	return knowledge.ScoredChunk{
		Chunk: knowledge.Chunk{Text: text, SourceFilename: filename},
		Score: score,
	}
}

func TestAnswerStreamsSourcesThenChunks(t *testing.T) {
	retriever := &stubRetriever{chunks: []knowledge.ScoredChunk{
		scoredChunk("deploy.md", "Deployments use blue-green rollout with a canary phase.", 0.82),
		scoredChunk("oncall.md", "The on-call engineer approves production pushes.", 0.61),
	}}
	gen := &stubGenerator{pieces: []string{"Deployments ", "are blue-green."}}
	chat := NewChat(retriever, &stubCounter{count: 2}, gen, nil)

	events := collectEvents(t, chat.Answer(context.Background(), "proj-1", "how do we deploy?"))

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if events[0].Type != EventSources {
		t.Fatalf("first event type = %q, want sources", events[0].Type)
	}
	if len(events[0].Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(events[0].Sources))
	}
	src := events[0].Sources[0]
	if src.Filename != "deploy.md" || src.Score != 0.82 || src.Preview == "" {
		t.Errorf("source = %+v", src)
	}
	if events[1].Type != EventChunk || events[2].Type != EventChunk {
		t.Errorf("subsequent events = %+v, want chunk events", events[1:])
	}
	if got := events[1].Content + events[2].Content; got != "Deployments are blue-green." {
		t.Errorf("answer = %q", got)
	}
	if !strings.Contains(gen.lastPrompt, "deploy.md") || !strings.Contains(gen.lastPrompt, "how do we deploy?") {
		t.Errorf("prompt missing context or question: %q", gen.lastPrompt)
	}
}

func TestAnswerEmptyKnowledgeBase(t *testing.T) {
	retriever := &stubRetriever{}
	chat := NewChat(retriever, &stubCounter{count: 0}, &stubGenerator{}, nil)

	events := collectEvents(t, chat.Answer(context.Background(), "proj-1", "anything?"))

	if len(events) != 1 || events[0].Type != EventChunk {
		t.Fatalf("events = %+v, want single chunk", events)
	}
	if events[0].Content != noDocumentsMessage {
		t.Errorf("content = %q", events[0].Content)
	}
	if retriever.calls != 0 {
		t.Error("retrieval was invoked for empty knowledge base")
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	chat := NewChat(&stubRetriever{}, &stubCounter{count: 1}, &stubGenerator{}, nil)

	events := collectEvents(t, chat.Answer(context.Background(), "proj-1", "  "))
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("events = %+v, want single error", events)
	}
}

func TestAnswerRetrievalError(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("search down")}
	chat := NewChat(retriever, &stubCounter{count: 1}, &stubGenerator{}, nil)

	events := collectEvents(t, chat.Answer(context.Background(), "proj-1", "question"))
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("events = %+v, want single error", events)
	}
}

func TestAnswerGenerationFailureMidStream(t *testing.T) {
	retriever := &stubRetriever{chunks: []knowledge.ScoredChunk{
		scoredChunk("a.md", "context", 0.9),
	}}
	gen := &stubGenerator{
		pieces:    []string{"partial ", "answer ", "never sent"},
		err:       errors.New("model overloaded"),
		failAfter: 2,
	}
	chat := NewChat(retriever, &stubCounter{count: 1}, gen, nil)

	events := collectEvents(t, chat.Answer(context.Background(), "proj-1", "question"))

	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("terminal event = %+v, want explicit error", last)
	}
	if !strings.Contains(last.Content, "model overloaded") {
		t.Errorf("error content = %q, want failure message", last.Content)
	}
	// Partial chunks before failure are still delivered.
	var text string
	for _, e := range events {
		if e.Type == EventChunk {
			text += e.Content
		}
	}
	if text != "partial answer " {
		t.Errorf("partial answer = %q", text)
	}
}

func TestAnswerNoRelevantChunks(t *testing.T) {
	// Ready documents exist but nothing scores above the floor: the answer
	// still streams, with an empty sources list.
	gen := &stubGenerator{pieces: []string{"I could not find that in the knowledge base."}}
	chat := NewChat(&stubRetriever{}, &stubCounter{count: 3}, gen, nil)

	events := collectEvents(t, chat.Answer(context.Background(), "proj-1", "unrelated question"))
	if events[0].Type != EventSources || len(events[0].Sources) != 0 {
		t.Fatalf("first event = %+v, want empty sources", events[0])
	}
	if events[1].Type != EventChunk {
		t.Fatalf("second event = %+v, want chunk", events[1])
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := preview(long)
	if len([]rune(got)) > previewMaxRunes {
		t.Errorf("preview length = %d runes, want <= %d", len([]rune(got)), previewMaxRunes)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("preview = %q, want ellipsis suffix", got)
	}

	short := "short text"
	if preview(short) != short {
		t.Errorf("preview(%q) = %q", short, preview(short))
	}

	multiline := "line one\nline two\tspaced"
	if strings.ContainsAny(preview(multiline), "\n\t") {
		t.Errorf("preview kept raw whitespace: %q", preview(multiline))
	}
}
