// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package kbingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/kbingest/config"
	"github.com/poiesic/kbingest/embedding"
	"github.com/poiesic/kbingest/ingestion"
	"github.com/poiesic/kbingest/metrics"
	"github.com/poiesic/kbingest/search"
	"github.com/poiesic/kbingest/storage"
	"github.com/poiesic/kbingest/storage/badger"
	"github.com/poiesic/kbingest/storage/pgvector"
)

// KnowledgeBase ties a vector store to an embedding client built from a
// single configuration.
type KnowledgeBase struct {
	config   *config.Config
	store    storage.VectorStore
	embedder *embedding.Client
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a KnowledgeBase.
type Option func(*options)

type options struct {
	logger           *slog.Logger
	metrics          *metrics.Metrics
	embeddingOptions []embedding.Option
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records embedding and ingestion metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithEmbeddingOptions appends options to the embedding client, after the
// ones derived from the configuration.
func WithEmbeddingOptions(opts ...embedding.Option) Option {
	return func(o *options) {
		o.embeddingOptions = append(o.embeddingOptions, opts...)
	}
}

// Open connects to the store named in cfg and builds the embedding client.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*KnowledgeBase, error) {
	if cfg == nil {
		return nil, errors.New("kbingest: config required")
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	store, err := openStore(ctx, cfg, o.logger)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbeddingClient(cfg, o)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &KnowledgeBase{
		config:   cfg,
		store:    store,
		embedder: embedder,
		metrics:  o.metrics,
		logger:   o.logger,
	}, nil
}

// Close releases the embedding workers and closes the store.
func (kb *KnowledgeBase) Close() error {
	kb.embedder.Release()
	if err := kb.store.Close(); err != nil {
		kb.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

func (kb *KnowledgeBase) Store() storage.VectorStore {
	return kb.store
}

func (kb *KnowledgeBase) Embedder() *embedding.Client {
	return kb.embedder
}

func (kb *KnowledgeBase) Metrics() *metrics.Metrics {
	return kb.metrics
}

// NewIngestionPipeline creates a pipeline using the configured loader,
// splitter and smoke queries. opts are applied last.
func (kb *KnowledgeBase) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base, err := pipelineOptions(kb.config, kb.logger, kb.metrics)
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(kb.store, kb.embedder, append(base, opts...)...)
}

func (kb *KnowledgeBase) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(kb.logger)}, opts...)
	return search.NewSearcher(kb.store, kb.embedder, opts...)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.VectorStore, error) {
	switch cfg.Store.Driver {
	case config.DriverBadger:
		store, err := badger.Open(cfg.Store.Path, cfg.Store.InMemory, badger.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	case config.DriverPgvector:
		store, err := pgvector.Open(ctx, cfg.Store.DSN, pgvector.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func newEmbeddingClient(cfg *config.Config, o *options) (*embedding.Client, error) {
	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	transport, err := embedding.NewTransport(aiConfig, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding transport: %w", err)
	}

	opts := []embedding.Option{
		embedding.WithDimension(aiConfig.Dimension),
		embedding.WithMaxInputChars(cfg.Embedding.MaxInputChars),
		embedding.WithMaxAttempts(cfg.Embedding.MaxAttempts),
		embedding.WithBackoff(cfg.Embedding.Backoff),
		embedding.WithMetrics(o.metrics),
		embedding.WithLogger(o.logger),
	}
	if cfg.Embedding.Workers > 0 {
		opts = append(opts, embedding.WithPoolSize(cfg.Embedding.Workers))
	}
	opts = append(opts, o.embeddingOptions...)

	client, err := embedding.NewClient(transport, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return client, nil
}
