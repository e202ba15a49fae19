package rag

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitGenerator streams completions from a Genkit-registered model.
type GenkitGenerator struct {
	g     *genkit.Genkit
	model string
}

// NewGenkitGenerator wraps a Genkit instance and a model name, e.g.
// "googleai/gemini-2.0-flash".
func NewGenkitGenerator(g *genkit.Genkit, model string) *GenkitGenerator {
	return &GenkitGenerator{g: g, model: model}
}

// Generate streams the model's answer, invoking onChunk for each text
// increment as it arrives.
func (gg *GenkitGenerator) Generate(ctx context.Context, prompt string, onChunk func(text string) error) error {
	_, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.model),
		ai.WithPrompt(prompt),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return onChunk(chunk.Text())
		}),
	)
	if err != nil {
		return fmt.Errorf("generate with %s: %w", gg.model, err)
	}
	return nil
}
