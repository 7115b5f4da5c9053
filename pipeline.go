package kbingest

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/kbingest/chunking"
	"github.com/poiesic/kbingest/config"
	"github.com/poiesic/kbingest/ingestion"
	"github.com/poiesic/kbingest/loader"
	"github.com/poiesic/kbingest/metrics"
)

func pipelineOptions(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) ([]ingestion.Option, error) {
	l, err := loader.New(
		loader.WithExtensions(cfg.Loader.Extensions...),
		loader.WithExclude(cfg.Loader.Exclude...),
		loader.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid loader configuration: %w", err)
	}

	splitter, err := chunking.New(
		chunking.WithChunkSize(cfg.Chunking.Size),
		chunking.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking configuration: %w", err)
	}

	opts := []ingestion.Option{
		ingestion.WithLoader(l),
		ingestion.WithSplitter(splitter),
		ingestion.WithMetrics(m),
		ingestion.WithSmokeTopK(cfg.Smoke.TopK),
		ingestion.WithLogger(logger),
	}
	if queries, enabled := cfg.SmokeQueries(); !enabled {
		opts = append(opts, ingestion.WithSmokeQueries())
	} else if len(queries) > 0 {
		opts = append(opts, ingestion.WithSmokeQueries(queries...))
	}
	return opts, nil
}
