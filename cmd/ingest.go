package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/careerchat/internal/knowledge"
	"github.com/mohammad-safakhou/careerchat/provider"
	"github.com/spf13/cobra"
)

func ingestCMD(load configLoader) *cobra.Command {
	var indexPath string
	var ingest = &cobra.Command{
		Use:   "ingest",
		Short: "Build and persist the knowledge index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if indexPath != "" {
				cfg.Knowledge.IndexPath = indexPath
			}
			if cfg.Knowledge.IndexPath == "" {
				return fmt.Errorf("knowledge.index_path or --index required")
			}
			ctx := context.Background()
			var embedder knowledge.Embedder
			if cfg.Knowledge.Hybrid {
				p, err := provider.NewProvider(ctx, cfg.LLM)
				if err != nil {
					return fmt.Errorf("hybrid index needs an embedding provider: %w", err)
				}
				embedder = p
			}
			logger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
			idx, err := knowledge.Ingest(ctx, cfg.Knowledge, embedder, logger)
			if err != nil {
				return err
			}
			defer idx.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks into %s\n", idx.Len(), cfg.Knowledge.IndexPath)
			return nil
		},
	}
	ingest.Flags().StringVar(&indexPath, "index", "", "index directory (overrides knowledge.index_path)")

	return ingest
}
