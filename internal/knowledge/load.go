package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/careerchat/config"
)

// Ingest loads the configured corpus, chunks it and builds the index, on disk
// when knowledge.index_path is set.
func Ingest(ctx context.Context, cfg config.KnowledgeConfig, embedder Embedder, logger *log.Logger) (*Index, error) {
	cfg = cfg.Normalize()
	docs, err := LoadCorpus(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	chunks := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap).SplitAll(docs)
	return Build(ctx, chunks, Options{
		Path:     cfg.IndexPath,
		Embedder: embedder,
		Hybrid:   cfg.Hybrid,
		Logger:   logger,
	})
}

// Load opens the persisted index at knowledge.index_path, or builds one in
// memory from the corpus when none exists.
func Load(ctx context.Context, cfg config.KnowledgeConfig, embedder Embedder, logger *log.Logger) (*Index, error) {
	cfg = cfg.Normalize()
	opts := Options{Embedder: embedder, Hybrid: cfg.Hybrid, Logger: logger}
	if cfg.IndexPath != "" {
		idx, err := Open(cfg.IndexPath, opts)
		if err == nil {
			return idx, nil
		}
		if !errors.Is(err, ErrIndexNotFound) {
			return nil, fmt.Errorf("open knowledge index: %w", err)
		}
		defaultLogger(logger).Printf("no index at %s; building in memory", cfg.IndexPath)
	}
	cfg.IndexPath = ""
	return Ingest(ctx, cfg, embedder, logger)
}
