package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/kbingest"
	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/embedding"
	"github.com/poiesic/kbingest/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configFrom(c)
	applyIngestFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := slog.Default()

	opts := []kbingest.Option{kbingest.WithLogger(logger)}
	if interval := c.Int("report-interval"); interval > 0 {
		tracker := ingestion.NewProgressTracker(os.Stderr, interval)
		opts = append(opts, kbingest.WithEmbeddingOptions(embedding.WithProgress(tracker.Observe)))
	}
	kb, err := kbingest.Open(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Source: %s\n", cfg.Source)
	fmt.Fprintf(os.Stderr, "Collection: %s (%s)\n", cfg.Collection, cfg.Store.Driver)
	fmt.Fprintf(os.Stderr, "Embedding: %s %s\n", cfg.Embedding.Provider, cfg.AIConfig().EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	summary, runErr := pipeline.Run(ctx, cfg.Source, cfg.Collection)
	if err := kb.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("failed to write metrics", "path", cfg.Metrics.Textfile, "err", err)
	}

	switch {
	case errors.Is(runErr, ingestion.ErrNothingToIngest):
		fmt.Fprintf(os.Stdout, "Nothing to ingest in %s\n", cfg.Source)
		return nil
	case runErr != nil:
		return fmt.Errorf("ingestion failed: %w", runErr)
	}

	printSummary(os.Stdout, summary)
	return nil
}

func printSummary(w io.Writer, s *core.Summary) {
	fmt.Fprintf(w, "Collection:  %s\n", s.Collection)
	fmt.Fprintf(w, "Documents:   %d\n", s.DocumentsLoaded)
	fmt.Fprintf(w, "Chunks:      %d (%d duplicate)\n", s.ChunksCreated, s.DuplicateChunks)
	fmt.Fprintf(w, "Embedded:    %d\n", s.ChunksEmbedded)
	fmt.Fprintf(w, "Degraded:    %d\n", s.ChunksDegraded)
	fmt.Fprintf(w, "Persisted:   %d\n", s.RowsPersisted)
	fmt.Fprintf(w, "Elapsed:     %s\n", s.Elapsed.Round(time.Millisecond))
}
