package knowledge

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/careerchat/models"
)

var sentenceSplitter = regexp.MustCompile(`(?s)[^.!?\n]+(?:[.!?]+|\n+|$)`)

// Chunk is an indexed slice of a document.
type Chunk struct {
	ID string `json:"id"`
	models.KnowledgeChunk
	Vector []float32 `json:"vector,omitempty"`
}

// Chunker packs whole sentences into chunks of at most Size characters. Each
// chunk after the first repeats trailing sentences of its predecessor totalling
// at most Overlap characters. A sentence longer than Size is cut on rune
// boundaries.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return Chunker{Size: size, Overlap: overlap}
}

func (c Chunker) Split(doc Document) []Chunk {
	var sentences []string
	for _, s := range sentenceSplitter.FindAllString(doc.Text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, c.cut(s)...)
	}
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	emit := func(parts []string) {
		chunks = append(chunks, Chunk{
			ID: doc.ID + "#" + strconv.Itoa(len(chunks)),
			KnowledgeChunk: models.KnowledgeChunk{
				Text:     strings.Join(parts, " "),
				Source:   doc.Source,
				Filename: doc.Filename,
			},
		})
	}

	var cur []string
	curLen := 0
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if len(cur) > 0 && curLen+1+n > c.Size {
			emit(cur)
			cur, curLen = c.tail(cur, n)
		}
		if len(cur) > 0 {
			curLen++
		}
		cur = append(cur, s)
		curLen += n
	}
	if len(cur) > 0 {
		emit(cur)
	}
	return chunks
}

// tail keeps the trailing sentences of prev that fit in Overlap and still leave
// room for a following sentence of length next.
func (c Chunker) tail(prev []string, next int) ([]string, int) {
	var keep []string
	total := 0
	for i := len(prev) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(prev[i])
		add := n
		if len(keep) > 0 {
			add++
		}
		if total+add > c.Overlap || total+add+1+next > c.Size {
			break
		}
		keep = append([]string{prev[i]}, keep...)
		total += add
	}
	return keep, total
}

func (c Chunker) cut(s string) []string {
	if utf8.RuneCountInString(s) <= c.Size {
		return []string{s}
	}
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += c.Size {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitAll chunks every document in order.
func (c Chunker) SplitAll(docs []Document) []Chunk {
	var out []Chunk
	for _, d := range docs {
		out = append(out, c.Split(d)...)
	}
	return out
}
