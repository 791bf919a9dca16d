package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkerKeepsShortDocumentWhole(t *testing.T) {
	doc := Document{ID: "d", Text: "Use the STAR method. Practice answers!", Source: "interview_preparation", Filename: "kb.json"}
	chunks := NewChunker(1000, 200).Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != "Use the STAR method. Practice answers!" || c.Source != "interview_preparation" || c.Filename != "kb.json" || c.ID != "d#0" {
		t.Fatalf("unexpected chunk %+v", c)
	}
}

func TestChunkerRespectsSizeAndOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This sentence is exactly forty chars ok. ")
	}
	chunks := NewChunker(200, 60).Split(Document{ID: "long", Text: b.String()})
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Text); n > 200 {
			t.Fatalf("chunk %d has %d chars", i, n)
		}
	}
	first := chunks[0].Text
	second := chunks[1].Text
	lastSentence := first[strings.LastIndex(first[:len(first)-1], ". ")+2:]
	if !strings.HasPrefix(second, lastSentence) {
		t.Fatalf("expected overlap %q at start of %q", lastSentence, second)
	}
}

func TestChunkerCutsOversizedSentence(t *testing.T) {
	text := strings.Repeat("é", 250)
	chunks := NewChunker(100, 10).Split(Document{ID: "x", Text: text})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if !utf8.ValidString(c.Text) || utf8.RuneCountInString(c.Text) > 100 {
			t.Fatalf("bad chunk %q", c.Text)
		}
	}
}

func TestChunkerEmptyDocument(t *testing.T) {
	if chunks := NewChunker(100, 10).Split(Document{ID: "e", Text: "  \n "}); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %+v", chunks)
	}
}
