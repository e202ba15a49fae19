package rag

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

const captionPrompt = "Describe this image in one or two sentences for a document " +
	"search index. Mention any text, diagram labels, or data it contains."

// VisionCaptioner captions embedded document images with a multimodal model
// so their content becomes searchable alongside the surrounding text.
// Implements knowledge.Captioner.
type VisionCaptioner struct {
	g     *genkit.Genkit
	model string
}

// NewVisionCaptioner returns a captioner backed by the given vision-capable
// model name (provider-qualified, e.g. "googleai/gemini-2.5-flash").
func NewVisionCaptioner(g *genkit.Genkit, model string) *VisionCaptioner {
	return &VisionCaptioner{g: g, model: model}
}

// Caption generates a short description of the image. Content type is
// detected from the image bytes, not trusted from the filename.
func (c *VisionCaptioner) Caption(ctx context.Context, img knowledge.Image) (string, error) {
	mediaType := http.DetectContentType(img.Data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%s is not a valid image (detected %s)", img.Name, mediaType)
	}

	encoded := base64.StdEncoding.EncodeToString(img.Data)
	userMessage := ai.NewUserMessage(
		ai.NewMediaPart(mediaType, "data:"+mediaType+";base64,"+encoded),
		ai.NewTextPart(captionPrompt),
	)

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithMessages(userMessage),
	)
	if err != nil {
		return "", fmt.Errorf("captioning %s: %w", img.Name, err)
	}

	caption := strings.TrimSpace(resp.Text())
	if caption == "" {
		return "", fmt.Errorf("captioning %s: model returned empty caption", img.Name)
	}
	return caption, nil
}
