package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kbingest/ai"
	"github.com/poiesic/kbingest/metrics"
	"github.com/tmc/langchaingo/embeddings"
)

const (
	// DefaultMaxInputChars caps cleaned input before it is sent.
	DefaultMaxInputChars = 500

	// DefaultMaxAttempts is the number of tries per text before it degrades.
	DefaultMaxAttempts = 3

	// DefaultBackoff is the pause between failed tries.
	DefaultBackoff = 2 * time.Second

	// DefaultDimension is the vector length of the default Ollama model.
	DefaultDimension = 768

	// DefaultMaxHalvings bounds how often a 5xx may halve one input.
	DefaultMaxHalvings = 8

	// DefaultMinHalvingLength is the shortest text a halving may produce.
	DefaultMinHalvingLength = 16

	previewLength = 50
)

// Result is the outcome of embedding one text.
type Result struct {
	// Vector always has the configured dimension. It is all zeros when
	// Degraded is set.
	Vector []float32

	// Degraded is set when every try failed.
	Degraded bool

	// Unreachable is set on degraded results whose last failure never
	// reached the service.
	Unreachable bool

	// Attempts counts tries used, Halvings counts immediate 5xx retries.
	Attempts int
	Halvings int

	// Err holds the last failure of a degraded result.
	Err error
}

// ProgressFunc is called after each text of a batch completes.
type ProgressFunc func(done, total int)

// Client embeds texts with truncation, retry, halving and degradation.
// It is safe for concurrent use.
type Client struct {
	transport        ai.Transport
	pool             *ants.Pool
	maxInputChars    int
	maxAttempts      int
	backoff          time.Duration
	dimension        int
	maxHalvings      int
	minHalvingLength int
	progress         ProgressFunc
	metrics          *metrics.Metrics
	logger           *slog.Logger
}

var _ embeddings.Embedder = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithMaxInputChars caps the cleaned input at n runes. Zero disables the cap.
// Default is 500.
func WithMaxInputChars(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			n = 0
		}
		c.maxInputChars = n
		return nil
	}
}

// WithMaxAttempts sets the number of tries per text. Default is 3.
func WithMaxAttempts(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = n
		return nil
	}
}

// WithBackoff sets the fixed wait between failed tries. Default is 2s.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			d = 0
		}
		c.backoff = d
		return nil
	}
}

// WithDimension sets the expected vector length. Default is 768.
func WithDimension(dim int) Option {
	return func(c *Client) error {
		if dim < 1 {
			return ErrInvalidDimension
		}
		c.dimension = dim
		return nil
	}
}

// WithMaxHalvings bounds how many times one text may be halved.
// Default is 8.
func WithMaxHalvings(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			n = 0
		}
		c.maxHalvings = n
		return nil
	}
}

// WithMinHalvingLength stops halving once the halved text would be
// shorter than n runes. Default is 16.
func WithMinHalvingLength(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			n = 1
		}
		c.minHalvingLength = n
		return nil
	}
}

// WithPoolSize sets the worker pool size for batch embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Client) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithProgress installs a callback invoked as batch texts complete.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithMetrics records attempts, halvings and degradations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a Client on top of transport.
// Call Release when done to free the worker pool.
func NewClient(transport ai.Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport:        transport,
		pool:             pool,
		maxInputChars:    DefaultMaxInputChars,
		maxAttempts:      DefaultMaxAttempts,
		backoff:          DefaultBackoff,
		dimension:        DefaultDimension,
		maxHalvings:      DefaultMaxHalvings,
		minHalvingLength: DefaultMinHalvingLength,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}
	c.logger = c.logger.With("component", "embedding", "transport", transport.Name())
	return c, nil
}

// Dimension returns the configured vector length.
func (c *Client) Dimension() int {
	return c.dimension
}

// Ping probes the transport when it supports it. Transports without a
// probe are assumed reachable.
func (c *Client) Ping(ctx context.Context) error {
	if p, ok := c.transport.(ai.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Embed embeds a single text. Failures degrade; only a cancelled context
// is reported through Result.Err without Degraded being set.
func (c *Client) Embed(ctx context.Context, text string) Result {
	return c.embed(ctx, text)
}

// EmbedQuery returns the vector for text, which is all zeros when the text
// degraded.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	r := c.embed(ctx, text)
	if !r.Degraded && r.Err != nil {
		return nil, r.Err
	}
	return r.Vector, nil
}

// EmbedBatch embeds texts concurrently and returns one Result per text in
// input order. The error is non-nil only when ctx ends before the batch
// completes.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	for i, text := range texts {
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			results[i] = c.embed(ctx, text)
			n := done.Add(1)
			if c.progress != nil {
				c.progress(int(n), len(texts))
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit embedding task: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// EmbedDocuments embeds texts and returns the vectors only.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	results, err := c.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(results))
	for i, r := range results {
		vectors[i] = r.Vector
	}
	return vectors, nil
}

// Release frees the worker pool. The Client must not be used afterwards.
func (c *Client) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
