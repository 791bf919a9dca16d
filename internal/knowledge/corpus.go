// Package knowledge loads the career corpus, chunks it and serves top-k
// retrieval over a bleve index, optionally fused with embedding similarity.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "embed"

	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/helpers"
)

// BuiltinFilename is the filename reported for chunks of the bundled knowledge base.
const BuiltinFilename = "career_knowledge_base.json"

// WebSource is the source reported for chunks fetched from configured URLs.
const WebSource = "web"

//go:embed career_knowledge_base.json
var builtinKnowledgeBase []byte

// Document is one unit of corpus text before chunking.
type Document struct {
	ID       string
	Text     string
	Source   string
	Filename string
}

type kbEntry struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

// BuiltinDocuments returns the bundled career knowledge base, one document per
// entry, with the category as source. Categories come out in sorted order.
func BuiltinDocuments() ([]Document, error) {
	var kb map[string][]kbEntry
	if err := json.Unmarshal(builtinKnowledgeBase, &kb); err != nil {
		return nil, fmt.Errorf("decode builtin knowledge base: %w", err)
	}
	cats := make([]string, 0, len(kb))
	for c := range kb {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	var docs []Document
	for _, cat := range cats {
		for _, e := range kb[cat] {
			docs = append(docs, Document{
				ID:       "builtin:" + e.ID,
				Text:     e.Content,
				Source:   cat,
				Filename: BuiltinFilename,
			})
		}
	}
	return docs, nil
}

var dirExtensions = map[string]bool{".txt": true, ".md": true, ".html": true, ".htm": true, ".pdf": true}

// LoadDir walks dir and returns a document per .txt, .md, .html or .pdf file.
// The source is the name of the file's parent directory. Other files are
// skipped, and so are PDFs whose text cannot be extracted.
func LoadDir(dir string, logger *log.Logger) ([]Document, error) {
	logger = defaultLogger(logger)
	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !dirExtensions[ext] {
			return nil
		}
		var text string
		switch ext {
		case ".pdf":
			extracted, err := pdfText(path)
			if err != nil {
				logger.Printf("skipping %s: %v", path, err)
				return nil
			}
			text = helpers.CollapseWhitespace(extracted)
		case ".html", ".htm":
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			text = helpers.PlainText(string(raw))
		default:
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			text = helpers.CollapseWhitespace(string(raw))
		}
		if text == "" {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		docs = append(docs, Document{
			ID:       "file:" + filepath.ToSlash(rel),
			Text:     text,
			Source:   filepath.Base(filepath.Dir(path)),
			Filename: d.Name(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load corpus dir %s: %w", dir, err)
	}
	return docs, nil
}

// FetchURLs downloads each page and extracts its readable text. Pages that fail
// to download or parse are logged and skipped.
func FetchURLs(ctx context.Context, urls []string, timeout time.Duration, logger *log.Logger) []Document {
	logger = defaultLogger(logger)
	client := helpers.NewHTTPClient(timeout, 1, 0)
	var docs []Document
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			logger.Printf("skipping invalid corpus url %q", raw)
			continue
		}
		body, err := client.Get(ctx, raw, 5<<20)
		if err != nil {
			logger.Printf("fetch %s: %v", raw, err)
			continue
		}
		article, err := readability.FromReader(bytes.NewReader(body), u)
		if err != nil {
			logger.Printf("readability %s: %v", raw, err)
			continue
		}
		text := helpers.CollapseWhitespace(article.TextContent)
		if text == "" {
			continue
		}
		if title := strings.TrimSpace(article.Title); title != "" {
			text = title + "\n\n" + text
		}
		docs = append(docs, Document{
			ID:       "web:" + raw,
			Text:     text,
			Source:   WebSource,
			Filename: u.Host + u.EscapedPath(),
		})
	}
	return docs
}

// LoadCorpus gathers every configured corpus source.
func LoadCorpus(ctx context.Context, cfg config.KnowledgeConfig, logger *log.Logger) ([]Document, error) {
	logger = defaultLogger(logger)
	var docs []Document
	if cfg.Builtin {
		b, err := BuiltinDocuments()
		if err != nil {
			return nil, err
		}
		docs = append(docs, b...)
	}
	if cfg.DataDir != "" {
		d, err := LoadDir(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	if len(cfg.URLs) > 0 {
		docs = append(docs, FetchURLs(ctx, cfg.URLs, cfg.FetchTimeout, logger)...)
	}
	logger.Printf("loaded %d corpus documents", len(docs))
	return docs, nil
}

func defaultLogger(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(log.Writer(), "[KNOWLEDGE] ", log.LstdFlags)
}
