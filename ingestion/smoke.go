package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/search"
)

const (
	// DefaultSmokeTopK is the number of results logged per smoke query.
	DefaultSmokeTopK = 2

	smokePreviewLength = 100
)

// DefaultSmokeQueries are issued after every successful run unless
// replaced with WithSmokeQueries.
var DefaultSmokeQueries = []string{
	"iPhone 17 Pro Max多少钱",
	"退货政策是什么",
	"什么时候发货",
}

type smokeConfig struct {
	queries []string
	topK    int
}

func defaultSmokeConfig() smokeConfig {
	return smokeConfig{
		queries: DefaultSmokeQueries,
		topK:    DefaultSmokeTopK,
	}
}

// smokeMonitor logs each step of a smoke query.
type smokeMonitor struct {
	logger *slog.Logger
}

func (m *smokeMonitor) Start(collection, query string) {
	m.logger.Info("smoke query", "collection", collection, "query", query)
}

func (m *smokeMonitor) AfterEmbedding(vector []float32) {
	if search.IsZero(vector) {
		m.logger.Warn("smoke query embedded to a zero vector")
	}
}

func (m *smokeMonitor) Finish(results []core.Match) {
	if len(results) == 0 {
		m.logger.Warn("smoke query returned no results")
	}
	for i, match := range results {
		m.logger.Info("smoke result",
			"rank", i+1,
			"score", match.Score,
			"source", match.Row.Metadata.Source,
			"category", match.Row.Metadata.Category,
			"content", search.Preview(match.Row.Content, smokePreviewLength))
	}
}

// runSmoke issues the configured queries against collection. Failures are
// logged and otherwise ignored.
func (p *Pipeline) runSmoke(ctx context.Context, collection string) {
	if len(p.smoke.queries) == 0 {
		return
	}

	searcher, err := search.NewSearcher(p.store, p.embedder, search.WithLogger(p.logger))
	if err != nil {
		p.logger.Warn("smoke test skipped", "err", err)
		return
	}

	monitor := &smokeMonitor{logger: p.logger.With("stage", "smoke")}
	failed := 0
	for _, query := range p.smoke.queries {
		if ctx.Err() != nil {
			p.logger.Warn("smoke test interrupted", "err", ctx.Err())
			return
		}
		if _, err := searcher.SearchWithMonitor(ctx, collection, query, p.smoke.topK, monitor); err != nil {
			p.logger.Warn("smoke query failed", "query", query, "err", err)
			failed++
		}
	}
	p.logger.Info("smoke test finished", "queries", len(p.smoke.queries), "failed", failed)
}
