package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/kbingest"
	"github.com/poiesic/kbingest/search"
	"github.com/urfave/cli/v2"
)

const queryPreviewLength = 120

func queryCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query text is required")
	}

	cfg := configFrom(c)
	applySharedFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	kb, err := kbingest.Open(ctx, cfg, kbingest.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher(search.WithMinScore(float32(c.Float64("min-score"))))
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(ctx, cfg.Collection, query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%s/%s)[%0.3f]\n", i, search.Preview(hit.Row.Content, queryPreviewLength),
			hit.Row.Metadata.Category, hit.Row.Metadata.Source, hit.Score)
	}
	return nil
}
