package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/storage"
)

// QueryEmbedder turns query text into a vector.
// *embedding.Client satisfies it.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs similarity queries over vector store collections.
type Searcher struct {
	store    storage.VectorStore
	embedder QueryEmbedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore drops matches scoring below score. Default is no threshold.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		s.minScore = score
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.VectorStore, embedder QueryEmbedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		minScore: -1,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search returns up to maxHits rows of collection most similar to query.
func (s *Searcher) Search(ctx context.Context, collection, query string, maxHits int) ([]core.Match, error) {
	return s.SearchWithMonitor(ctx, collection, query, maxHits, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, collection, query string, maxHits int, monitor SearchMonitor) ([]core.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits < 1 {
		return nil, ErrInvalidLimit
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(collection, query)

	coll, err := s.store.GetCollection(ctx, collection)
	if err != nil {
		s.logger.Error("error opening collection", "collection", collection, "err", err)
		return nil, err
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(vector)

	matches, err := coll.Query(ctx, vector, maxHits)
	if err != nil {
		s.logger.Error("error querying collection", "collection", collection, "err", err)
		return nil, err
	}

	results := make([]core.Match, 0, len(matches))
	for _, m := range matches {
		if m.Score < s.minScore {
			continue
		}
		results = append(results, m)
	}
	monitor.Finish(results)

	return results, nil
}
