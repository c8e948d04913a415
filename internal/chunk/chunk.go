// Package chunk splits loaded documents into fixed-size text chunks.
package chunk

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"

	"github.com/retriva/retriva/internal/loader"
)

// ErrInvalidSize indicates a non-positive chunk size or an overlap that is
// not smaller than the chunk size.
var ErrInvalidSize = errors.New("chunk: invalid chunk size")

// Chunk is one fixed-size piece of a document, carrying the parent
// document's metadata for later source attribution.
type Chunk struct {
	// ID is deterministic: the document ID plus the chunk's position.
	// Re-splitting the same document yields the same IDs.
	ID string

	// DocumentID identifies the parent document.
	DocumentID string

	// Index is the chunk's zero-based position within the document.
	Index int

	// Content is the chunk text, trimmed of surrounding whitespace.
	Content string

	// Metadata is a copy of the parent document's metadata.
	Metadata map[string]string
}

// Splitter produces fixed-size chunks measured in runes.
type Splitter struct {
	size    int
	overlap int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithOverlap sets the number of runes repeated between consecutive chunks.
// Zero (the default) disables overlap.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter. The chunk size is always passed explicitly; there
// is no package-level default to fall back on.
func New(size int, opts ...Option) (*Splitter, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidSize, size)
	}

	s := &Splitter{size: size}
	for _, opt := range opts {
		opt(s)
	}

	if s.overlap >= s.size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d",
			ErrInvalidSize, s.overlap, s.size)
	}

	return s, nil
}

// Split cuts the document content into chunks of at most the configured
// size. Sizes are measured in runes, not bytes, so multibyte text never
// splits mid-character. When a cut would land inside a word, the boundary
// retreats to the last whitespace in the window (if one exists in its second
// half). Whitespace-only pieces are dropped; a blank document yields no
// chunks.
func (s *Splitter) Split(doc loader.Document) []Chunk {
	runes := []rune(doc.Content)
	total := len(runes)

	var chunks []Chunk
	start := 0

	for start < total {
		end := start + s.size
		if end >= total {
			end = total
		} else {
			end = s.boundary(runes, start, end)
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, Chunk{
				ID:         fmt.Sprintf("%s-%04d", doc.ID, len(chunks)),
				DocumentID: doc.ID,
				Index:      len(chunks),
				Content:    content,
				Metadata:   maps.Clone(doc.Metadata),
			})
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// boundary retreats the cut point to just after the last whitespace rune in
// the window, but never past its midpoint. Text with no whitespace (long
// tokens, minified content) is cut at the full size.
func (s *Splitter) boundary(runes []rune, start, end int) int {
	limit := start + s.size/2
	for i := end - 1; i > limit; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}
