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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/kbingest/ai"
	"github.com/poiesic/kbingest/chunking"
	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/embedding"
	"github.com/poiesic/kbingest/loader"
	"github.com/poiesic/kbingest/metrics"
	"github.com/poiesic/kbingest/search"
	"github.com/poiesic/kbingest/storage"
)

const stagingInfix = "__staging_"

// Embedder is the part of embedding.Client the pipeline depends on.
type Embedder interface {
	search.QueryEmbedder
	EmbedBatch(ctx context.Context, texts []string) ([]embedding.Result, error)
	Ping(ctx context.Context) error
}

var _ Embedder = (*embedding.Client)(nil)

// Pipeline loads a source directory, embeds its chunks and replaces a
// vector store collection with the result.
type Pipeline struct {
	store    storage.VectorStore
	embedder Embedder
	loader   *loader.Loader
	splitter *chunking.Splitter
	metrics  *metrics.Metrics
	smoke    smokeConfig
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLoader replaces the default document loader.
func WithLoader(l *loader.Loader) Option {
	return func(p *Pipeline) error {
		if l != nil {
			p.loader = l
		}
		return nil
	}
}

// WithSplitter replaces the default chunk splitter.
func WithSplitter(s *chunking.Splitter) Option {
	return func(p *Pipeline) error {
		if s != nil {
			p.splitter = s
		}
		return nil
	}
}

// WithMetrics records run counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithSmokeQueries sets the queries issued after a successful run.
// Passing no queries disables the smoke test.
func WithSmokeQueries(queries ...string) Option {
	return func(p *Pipeline) error {
		p.smoke.queries = queries
		return nil
	}
}

// WithSmokeTopK sets how many results each smoke query logs.
func WithSmokeTopK(k int) Option {
	return func(p *Pipeline) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		p.smoke.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.VectorStore, embedder Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		store:    store,
		embedder: embedder,
		smoke:    defaultSmokeConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Build defaults after options so they pick up the final logger
	if p.loader == nil {
		l, err := loader.New(loader.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.loader = l
	}
	if p.splitter == nil {
		s, err := chunking.New()
		if err != nil {
			return nil, err
		}
		p.splitter = s
	}
	return p, nil
}

// Run ingests every document under sourceDir into collection, replacing
// its previous contents.
//
// ErrNothingToIngest is returned, together with an empty summary, when the
// source yields no chunks; if documents were loaded it arrives wrapped in a
// split-stage StageError. Any other error is a *StageError and leaves the
// collection as it was.
func (p *Pipeline) Run(ctx context.Context, sourceDir, collection string) (*core.Summary, error) {
	if collection == "" {
		return nil, ErrEmptyCollection
	}

	start := time.Now()
	summary := &core.Summary{Collection: collection}
	err := p.run(ctx, sourceDir, summary)
	summary.Elapsed = time.Since(start)
	p.metrics.ObserveRun(runResult(err), summary.Elapsed)

	switch {
	case errors.Is(err, ErrNothingToIngest):
		p.logger.Info("nothing to ingest", "source", sourceDir, "collection", collection)
		return &core.Summary{Collection: collection, Elapsed: summary.Elapsed}, err
	case err != nil:
		p.logger.Error("ingestion failed", "source", sourceDir, "collection", collection, "err", err)
		return summary, err
	}

	p.logger.Info("ingestion complete",
		"collection", collection,
		"documents", summary.DocumentsLoaded,
		"chunks", summary.ChunksCreated,
		"duplicates", summary.DuplicateChunks,
		"degraded", summary.ChunksDegraded,
		"persisted", summary.RowsPersisted,
		"elapsed", summary.Elapsed)
	if summary.Degraded() {
		p.logger.Warn("some chunks were stored with zero vectors", "degraded", summary.ChunksDegraded)
	}

	p.runSmoke(ctx, collection)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, sourceDir string, summary *core.Summary) error {
	docs, err := p.loader.Load(ctx, sourceDir)
	if err != nil {
		return &StageError{Stage: StageLoad, Err: err}
	}
	if len(docs) == 0 {
		return ErrNothingToIngest
	}
	summary.DocumentsLoaded = len(docs)
	p.metrics.AddDocuments(len(docs))

	chunks := p.splitter.SplitAll(docs)
	if len(chunks) == 0 {
		// Documents that clean down to nothing
		return &StageError{Stage: StageSplit, Err: ErrNothingToIngest}
	}
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return &StageError{Stage: StageSplit, Err: fmt.Errorf("chunk %d of %s: %w", i, chunks[i].Source, err)}
		}
	}
	hashes, duplicates := contentHashes(chunks)
	summary.ChunksCreated = len(chunks)
	summary.DuplicateChunks = duplicates
	p.metrics.AddChunks(len(chunks), duplicates)
	p.logger.Info("split documents", "documents", len(docs), "chunks", len(chunks), "duplicates", duplicates)

	results, err := p.embed(ctx, chunks)
	if err != nil {
		return &StageError{Stage: StageEmbed, Err: err}
	}

	rows := make([]core.Row, len(chunks))
	for i, chunk := range chunks {
		if results[i].Degraded {
			summary.ChunksDegraded++
		} else {
			summary.ChunksEmbedded++
		}
		rows[i] = core.Row{
			ID:      uuid.NewString(),
			Content: chunk.Content,
			Metadata: core.Metadata{
				Source:      chunk.Source,
				Category:    chunk.Category,
				ContentHash: hashes[i],
			},
			Vector: results[i].Vector,
		}
	}

	if err := p.persist(ctx, summary.Collection, rows); err != nil {
		return &StageError{Stage: StagePersist, Err: fmt.Errorf("%w: %w", ErrPersistenceFatal, err)}
	}
	summary.RowsPersisted = len(rows)
	p.metrics.AddRows(summary.Collection, len(rows))
	return nil
}

// embed probes the transport and embeds every chunk in input order.
// Only a host that cannot be reached at all fails the probe; a host that
// answers with an error status is left to the per-chunk retry policy.
func (p *Pipeline) embed(ctx context.Context, chunks []core.Chunk) ([]embedding.Result, error) {
	if err := p.embedder.Ping(ctx); err != nil {
		if ai.IsUnreachable(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransportFatal, err)
		}
		p.logger.Warn("embedding probe failed, continuing", "err", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	p.logger.Info("embedding chunks", "chunks", len(texts))
	results, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportFatal, err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", ErrTransportFatal, len(results), len(texts))
	}

	// A service that was never reachable would only produce zero vectors
	for _, r := range results {
		if !r.Unreachable {
			return results, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrTransportFatal, results[0].Err)
}

// persist writes rows into a fresh staging collection and promotes it over
// target. The staging collection is removed on any failure.
func (p *Pipeline) persist(ctx context.Context, target string, rows []core.Row) (err error) {
	staging := stagingName(target)

	coll, err := p.store.CreateCollection(ctx, staging)
	if err != nil {
		return fmt.Errorf("create staging collection: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		// Clean up even if the run was cancelled
		if delErr := p.store.DeleteCollection(context.WithoutCancel(ctx), staging); delErr != nil {
			p.logger.Warn("failed to remove staging collection", "collection", staging, "err", delErr)
		}
	}()

	if err = coll.Insert(ctx, rows); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}

	count, err := coll.Count(ctx)
	if err != nil {
		return fmt.Errorf("count staging rows: %w", err)
	}
	if count != len(rows) {
		return fmt.Errorf("staging collection holds %d rows, expected %d", count, len(rows))
	}

	if err = p.store.Promote(ctx, staging, target); err != nil {
		return fmt.Errorf("promote %s: %w", staging, err)
	}
	p.logger.Debug("promoted staging collection", "staging", staging, "collection", target, "rows", len(rows))
	return nil
}

// contentHashes returns the content hash of every chunk and the number of
// chunks whose text already appeared earlier in the run.
func contentHashes(chunks []core.Chunk) ([]core.ID, int) {
	hashes := make([]core.ID, len(chunks))
	seen := make(map[core.ID]struct{}, len(chunks))
	duplicates := 0
	for i, chunk := range chunks {
		id := core.IDFromContent(chunk.Content)
		hashes[i] = id
		if _, ok := seen[id]; ok {
			duplicates++
			continue
		}
		seen[id] = struct{}{}
	}
	return hashes, duplicates
}

func stagingName(target string) string {
	return target + stagingInfix + uuid.NewString()[:8]
}

func runResult(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, ErrNothingToIngest) {
		return "empty"
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return "error"
}
