package knowledge

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunker splits document text into bounded, overlapping chunks that respect
// structural boundaries where possible. Splitting prefers, in order: markdown
// section headings, blank-line paragraph breaks, sentence boundaries, and
// finally hard cuts at rune boundaries for pathological unbroken runs.
type Chunker struct {
	maxSize int
	minSize int
	overlap int
}

const (
	// DefaultMaxChunkSize is the upper bound on chunk length in bytes.
	DefaultMaxChunkSize = 1200
	// DefaultMinChunkSize is the advisory lower bound; only a document's
	// final chunk may fall below it.
	DefaultMinChunkSize = 200
	// DefaultChunkOverlap is the tail of each chunk repeated at the head of
	// the next, so context spanning a boundary is retrievable from either
	// side.
	DefaultChunkOverlap = 144
)

// NewChunker validates the size parameters and returns a Chunker.
// overlap must be strictly smaller than maxSize and minSize must not
// exceed maxSize.
func NewChunker(maxSize, minSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunker: max size must be positive, got %d", maxSize)
	}
	if minSize < 0 || minSize > maxSize {
		return nil, fmt.Errorf("chunker: min size %d out of range [0, %d]", minSize, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("chunker: overlap %d out of range [0, %d)", overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, minSize: minSize, overlap: overlap}, nil
}

// DefaultChunker returns a Chunker with the default sizing.
func DefaultChunker() *Chunker {
	c, err := NewChunker(DefaultMaxChunkSize, DefaultMinChunkSize, DefaultChunkOverlap)
	if err != nil {
		panic(err) // unreachable with compile-time constants
	}
	return c
}

// Split breaks text into chunks of at most maxSize bytes each. Returns nil
// when the text is empty or whitespace-only. Every chunk after the first
// begins with up to overlap bytes repeated from the end of its predecessor.
func (c *Chunker) Split(text string) []string {
	text = normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []string{strings.TrimSpace(text)}
	}

	// Units must leave room for the overlap carry plus the joining
	// separator, otherwise a carried prefix could push a chunk past max.
	unitLimit := c.maxSize - c.overlap - 2
	if unitLimit <= 0 {
		unitLimit = c.maxSize
	}

	var units []string
	for _, section := range splitSections(text) {
		units = append(units, c.splitUnits(section, unitLimit)...)
	}
	return c.pack(units)
}

// splitUnits reduces block to pieces no longer than limit, descending from
// paragraphs to sentences to hard cuts.
func (c *Chunker) splitUnits(block string, limit int) []string {
	var out []string
	for _, para := range splitParagraphs(block) {
		if len(para) <= limit {
			out = append(out, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if len(sent) <= limit {
				out = append(out, sent)
				continue
			}
			out = append(out, hardCut(sent, limit)...)
		}
	}
	return out
}

// pack greedily accumulates units into chunks, flushing before a unit would
// exceed maxSize and carrying an overlap tail into the next chunk.
func (c *Chunker) pack(units []string) []string {
	var (
		chunks []string
		b      strings.Builder
		carry  string
	)
	flush := func() {
		text := strings.TrimSpace(b.String())
		b.Reset()
		if text == "" {
			return
		}
		chunks = append(chunks, text)
		carry = overlapTail(text, c.overlap)
	}
	for _, u := range units {
		if b.Len() > 0 && b.Len()+len(u)+2 > c.maxSize {
			flush()
		}
		if b.Len() == 0 && carry != "" {
			b.WriteString(carry)
			carry = ""
		}
		// carry + separator + unit stays within maxSize because units are
		// bounded by unitLimit.
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(u)
	}
	flush()
	return chunks
}

// overlapTail returns at most n trailing bytes of text, trimmed forward to a
// rune boundary and then to the next word start so the carry never opens
// mid-word or mid-rune.
func overlapTail(text string, n int) string {
	if n <= 0 || len(text) <= n {
		if n <= 0 {
			return ""
		}
		return text
	}
	start := len(text) - n
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	tail := text[start:]
	if i := strings.IndexAny(tail, " \t\n"); i >= 0 && i+1 < len(tail) {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}

// normalize collapses Windows and old-Mac line endings to \n.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// splitSections divides text at markdown headings. Each heading starts its
// own section so a chunk rarely straddles two topics.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")
	var (
		sections []string
		cur      []string
	)
	emit := func() {
		s := strings.TrimSpace(strings.Join(cur, "\n"))
		if s != "" {
			sections = append(sections, s)
		}
		cur = cur[:0]
	}
	for _, line := range lines {
		if isHeading(line) && len(cur) > 0 {
			emit()
		}
		cur = append(cur, line)
	}
	emit()
	return sections
}

func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, "#")
	hashes := len(line) - len(trimmed)
	return hashes >= 1 && hashes <= 6 && strings.HasPrefix(trimmed, " ")
}

// splitParagraphs divides a section at blank lines.
func splitParagraphs(section string) []string {
	var out []string
	for _, p := range strings.Split(section, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences scans para for sentence terminators followed by whitespace
// or end of text. Closing quotes and brackets after the terminator stay with
// the sentence.
func splitSentences(para string) []string {
	var (
		out   []string
		start int
	)
	for i := 0; i < len(para); i++ {
		switch para[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(para) && isCloser(para[end]) {
				end++
			}
			if end >= len(para) || para[end] == ' ' || para[end] == '\n' || para[end] == '\t' {
				s := strings.TrimSpace(para[start:end])
				if s != "" {
					out = append(out, s)
				}
				start = end
				i = end - 1
			}
		}
	}
	if rest := strings.TrimSpace(para[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func isCloser(b byte) bool {
	switch b {
	case '"', '\'', ')', ']', '}':
		return true
	}
	return false
}

// hardCut slices s into pieces of at most limit bytes, never splitting a
// rune. Last resort for unbroken runs like base64 blobs or minified text.
func hardCut(s string, limit int) []string {
	var out []string
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
