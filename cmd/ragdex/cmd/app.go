package cmd

import (
	"log/slog"

	"github.com/ragdex/ragdex/internal/config"
	"github.com/ragdex/ragdex/internal/embedder"
	"github.com/ragdex/ragdex/internal/folder"
	"github.com/ragdex/ragdex/internal/indexer"
	"github.com/ragdex/ragdex/internal/searcher"
	"github.com/ragdex/ragdex/internal/symbols"
)

// app bundles the wired components every subcommand needs, built once
// per process so the Indexer/Searcher share a single folder.Registry --
// required for spec.md §3's "singleton per normalized folderPath"
// guarantee to hold within one CLI invocation.
type app struct {
	cfg      config.Config
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	logger   *slog.Logger
}

func newApp(cfg config.Config, logger *slog.Logger) *app {
	emb := embedder.NewCached(buildEmbedder(cfg), 0)
	registry := folder.NewRegistry()
	ix := indexer.New(registry, emb, symbols.New())
	se := searcher.New(ix, emb)

	return &app{
		cfg:      cfg,
		indexer:  ix,
		searcher: se,
		logger:   logger,
	}
}

func buildEmbedder(cfg config.Config) embedder.Embedder {
	if cfg.Embedder.Provider == "http" && cfg.Embedder.Endpoint != "" {
		return embedder.NewHTTP(embedder.HTTPConfig{
			Endpoint: cfg.Embedder.Endpoint,
			Model:    cfg.Embedder.Model,
		})
	}
	return embedder.NewStatic()
}

func indexerOptionsFrom(cfg config.Config, outputFolder string) indexer.Options {
	return indexer.Options{
		IncludeExtensions: cfg.IncludeExtensions,
		ExcludeFolders:    cfg.ExcludeFolders,
		MaxFileSize:       cfg.MaxFileSize,
		Concurrency:       cfg.Concurrency,
		EmbedBatchSize:    cfg.EmbedBatchSize,
		OutputFolder:      outputFolder,
	}
}
