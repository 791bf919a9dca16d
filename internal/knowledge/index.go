package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"
	"github.com/mohammad-safakhou/careerchat/models"
)

const (
	rrfK           = 60 // reciprocal-rank-fusion constant
	embedBatchSize = 64
	bleveDirName   = "bleve"
	chunksFileName = "chunks.json"
)

// ErrIndexNotFound is returned by Open when no index was built at the path.
var ErrIndexNotFound = errors.New("knowledge index not found")

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index serves lexical (bleve) retrieval over corpus chunks, fused with cosine
// similarity when chunk vectors and an embedder are present. It is read-only
// once built and safe for concurrent Search calls.
type Index struct {
	bleve    bleve.Index
	meta     map[string]Chunk
	embedder Embedder
	hybrid   bool
	logger   *log.Logger
}

// Options controls index construction.
type Options struct {
	// Path, when set, persists the index under this directory.
	Path string
	// Embedder is required for hybrid retrieval.
	Embedder Embedder
	Hybrid   bool
	Logger   *log.Logger
}

// Build indexes chunks. In hybrid mode every chunk is embedded first, so a
// failing embedder fails the build.
func Build(ctx context.Context, chunks []Chunk, opts Options) (*Index, error) {
	idx := &Index{
		meta:     make(map[string]Chunk, len(chunks)),
		embedder: opts.Embedder,
		hybrid:   opts.Hybrid && opts.Embedder != nil,
		logger:   defaultLogger(opts.Logger),
	}
	if idx.hybrid {
		if err := embedChunks(ctx, opts.Embedder, chunks); err != nil {
			return nil, err
		}
	}

	var err error
	if opts.Path != "" {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, err
		}
		blevePath := filepath.Join(opts.Path, bleveDirName)
		if err := os.RemoveAll(blevePath); err != nil {
			return nil, err
		}
		idx.bleve, err = bleve.New(blevePath, chunkMapping())
	} else {
		idx.bleve, err = bleve.NewMemOnly(chunkMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	batch := idx.bleve.NewBatch()
	for _, c := range chunks {
		idx.meta[c.ID] = c
		if err := batch.Index(c.ID, c.KnowledgeChunk); err != nil {
			_ = idx.bleve.Close()
			return nil, fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}
	if err := idx.bleve.Batch(batch); err != nil {
		_ = idx.bleve.Close()
		return nil, fmt.Errorf("commit bleve batch: %w", err)
	}

	if opts.Path != "" {
		if err := writeChunks(filepath.Join(opts.Path, chunksFileName), chunks); err != nil {
			_ = idx.bleve.Close()
			return nil, err
		}
	}
	idx.logger.Printf("indexed %d chunks (hybrid=%t)", len(chunks), idx.hybrid)
	return idx, nil
}

// chunkMapping analyzes every text field with the English analyzer so
// inflected forms share a stem.
func chunkMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = en.AnalyzerName
	return m
}

// Open loads an index previously built with a Path.
func Open(path string, opts Options) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(path, chunksFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", chunksFileName, err)
	}
	b, err := bleve.Open(filepath.Join(path, bleveDirName))
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	idx := &Index{
		bleve:    b,
		meta:     make(map[string]Chunk, len(chunks)),
		embedder: opts.Embedder,
		logger:   defaultLogger(opts.Logger),
	}
	withVectors := 0
	for _, c := range chunks {
		idx.meta[c.ID] = c
		if len(c.Vector) > 0 {
			withVectors++
		}
	}
	idx.hybrid = opts.Hybrid && opts.Embedder != nil && withVectors > 0
	idx.logger.Printf("opened index at %s with %d chunks (hybrid=%t)", path, len(chunks), idx.hybrid)
	return idx, nil
}

func (i *Index) Close() error {
	if i == nil || i.bleve == nil {
		return nil
	}
	return i.bleve.Close()
}

// Len is the number of indexed chunks.
func (i *Index) Len() int { return len(i.meta) }

type hit struct {
	id    string
	score float64
	rank  int
}

// Search returns at most k chunks ordered by descending relevance. When the
// query embedding fails the lexical ranking is used alone.
func (i *Index) Search(ctx context.Context, query string, k int) ([]models.KnowledgeChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lexical, err := i.lexicalSearch(query, k*3)
	if err != nil {
		return nil, err
	}
	ranked := lexical
	if i.hybrid {
		vecs, err := i.embedder.Embed(ctx, []string{query})
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			i.logger.Printf("query embedding failed, using lexical ranking: %v", err)
		case len(vecs) == 1:
			ranked = fuseRRF(lexical, i.vectorSearch(vecs[0], k*3))
		}
	}
	out := make([]models.KnowledgeChunk, 0, k)
	for _, h := range ranked {
		if len(out) == k {
			break
		}
		out = append(out, i.meta[h.id].KnowledgeChunk)
	}
	return out, nil
}

func (i *Index) lexicalSearch(q string, n int) ([]hit, error) {
	query := bleve.NewMatchQuery(q)
	req := bleve.NewSearchRequestOptions(query, n, 0, false)
	res, err := i.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	out := make([]hit, 0, len(res.Hits))
	for r, h := range res.Hits {
		if _, ok := i.meta[h.ID]; !ok {
			continue
		}
		out = append(out, hit{id: h.ID, score: h.Score, rank: r + 1})
	}
	return out, nil
}

func (i *Index) vectorSearch(q []float32, n int) []hit {
	var scored []hit
	for id, c := range i.meta {
		if len(c.Vector) == 0 {
			continue
		}
		scored = append(scored, hit{id: id, score: cosine(q, c.Vector)})
	}
	sort.Slice(scored, func(a, b int) bool {
		if scored[a].score == scored[b].score {
			return scored[a].id < scored[b].id
		}
		return scored[a].score > scored[b].score
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	for r := range scored {
		scored[r].rank = r + 1
	}
	return scored
}

func fuseRRF(a, b []hit) []hit {
	fused := map[string]float64{}
	for _, list := range [][]hit{a, b} {
		for _, h := range list {
			fused[h.id] += 1.0 / float64(rrfK+h.rank)
		}
	}
	out := make([]hit, 0, len(fused))
	for id, s := range fused {
		out = append(out, hit{id: id, score: s})
	}
	sort.Slice(out, func(x, y int) bool {
		if out[x].score == out[y].score {
			return out[x].id < out[y].id
		}
		return out[x].score > out[y].score
	})
	for r := range out {
		out[r].rank = r + 1
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func embedChunks(ctx context.Context, e Embedder, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		vecs, err := e.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vecs), len(texts))
		}
		for j, v := range vecs {
			chunks[start+j].Vector = v
		}
	}
	return nil
}

func writeChunks(path string, chunks []Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
