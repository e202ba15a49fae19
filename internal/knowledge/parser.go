package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Image is an embedded image extracted from a source document. Caption is
// filled in by a Captioner after parsing; it stays empty when captioning
// fails or is disabled.
type Image struct {
	Name    string
	Data    []byte
	Caption string
}

// ParsedDocument is the parser output: the document's raw text plus any
// embedded images found in the source.
type ParsedDocument struct {
	Text   string
	Images []Image
}

// Parser extracts text and embedded images from raw document bytes. Format
// support lives behind this interface; the pipeline only sees the result.
type Parser interface {
	Parse(ctx context.Context, filename, mimeType string, data []byte) (*ParsedDocument, error)
}

// Captioner produces a short text description of an image so image content
// becomes retrievable alongside document text.
type Captioner interface {
	Caption(ctx context.Context, img Image) (string, error)
}

// TextParser handles plain-text formats: .txt, .md and anything else whose
// bytes decode as UTF-8 text. It never yields images.
type TextParser struct{}

// NewTextParser returns a parser for plain-text documents.
func NewTextParser() *TextParser { return &TextParser{} }

// Parse validates that data is text and returns it verbatim. Binary content
// fails with ErrParse; decodable but empty content fails with ErrNoContent.
func (p *TextParser) Parse(ctx context.Context, filename, mimeType string, data []byte) (*ParsedDocument, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s contains binary data", ErrParse, filename)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrParse, filename)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, filename)
	}
	return &ParsedDocument{Text: text}, nil
}
