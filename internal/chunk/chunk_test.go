package chunk

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/retriva/retriva/internal/loader"
)

func testDoc(content string) loader.Document {
	return loader.Document{
		ID:       "file_abc123",
		Content:  content,
		Metadata: map[string]string{"file_name": "doc.md"},
	}
}

func TestNew_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		size int
		opts []Option
	}{
		{"zero size", 0, nil},
		{"negative size", -5, nil},
		{"overlap equals size", 100, []Option{WithOverlap(100)}},
		{"overlap exceeds size", 100, []Option{WithOverlap(150)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.size, tt.opts...); !errors.Is(err, ErrInvalidSize) {
				t.Fatalf("New() = %v, want ErrInvalidSize", err)
			}
		})
	}
}

func TestSplit_ShortDocument(t *testing.T) {
	s, err := New(512)
	if err != nil {
		t.Fatal(err)
	}

	chunks := s.Split(testDoc("a short document"))
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "a short document" {
		t.Errorf("content = %q", chunks[0].Content)
	}
	if chunks[0].ID != "file_abc123-0000" {
		t.Errorf("ID = %q", chunks[0].ID)
	}
	if chunks[0].Index != 0 {
		t.Errorf("index = %d", chunks[0].Index)
	}
	if chunks[0].Metadata["file_name"] != "doc.md" {
		t.Error("metadata not carried over")
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	s, err := New(512)
	if err != nil {
		t.Fatal(err)
	}

	if got := s.Split(testDoc("")); got != nil {
		t.Errorf("empty content yielded %d chunks", len(got))
	}
	if got := s.Split(testDoc("   \n\t  ")); got != nil {
		t.Errorf("whitespace content yielded %d chunks", len(got))
	}
}

func TestSplit_RespectsSizeLimit(t *testing.T) {
	s, err := New(50)
	if err != nil {
		t.Fatal(err)
	}

	content := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	chunks := s.Split(testDoc(content))
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}

	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Content); n > 50 {
			t.Errorf("chunk %d has %d runes, want <= 50", i, n)
		}
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplit_WordBoundary(t *testing.T) {
	s, err := New(20)
	if err != nil {
		t.Fatal(err)
	}

	chunks := s.Split(testDoc("alpha bravo charlie delta echo foxtrot"))
	for i, c := range chunks {
		if strings.HasPrefix(c.Content, " ") || strings.HasSuffix(c.Content, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, c.Content)
		}
		// No chunk should start or end mid-word when whitespace was available.
		for _, word := range strings.Fields(c.Content) {
			if !strings.Contains("alpha bravo charlie delta echo foxtrot", word) {
				t.Errorf("chunk %d split a word: %q", i, word)
			}
		}
	}
}

func TestSplit_NoWhitespace(t *testing.T) {
	s, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	chunks := s.Split(testDoc(strings.Repeat("x", 25)))
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Content != strings.Repeat("x", 10) {
		t.Errorf("chunk 0 = %q", chunks[0].Content)
	}
	if chunks[2].Content != strings.Repeat("x", 5) {
		t.Errorf("chunk 2 = %q", chunks[2].Content)
	}
}

func TestSplit_Multibyte(t *testing.T) {
	s, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	// 10 CJK runes (30 bytes); size is measured in runes.
	chunks := s.Split(testDoc(strings.Repeat("知", 10)))
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c.Content) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	s, err := New(10, WithOverlap(4))
	if err != nil {
		t.Fatal(err)
	}

	chunks := s.Split(testDoc(strings.Repeat("y", 30)))
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}

	// Consecutive chunks share their boundary runes.
	first, second := chunks[0].Content, chunks[1].Content
	if !strings.HasPrefix(second, first[len(first)-4:]) {
		t.Errorf("chunk 1 %q does not overlap chunk 0 %q", second, first)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := New(30)
	if err != nil {
		t.Fatal(err)
	}

	doc := testDoc(strings.Repeat("the quick brown fox ", 10))
	a := s.Split(doc)
	b := s.Split(doc)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
