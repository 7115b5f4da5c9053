package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"

	"github.com/poiesic/kbingest/ai"
)

// EmbedFunc overrides the default behaviour of Transport.Embed. call is the
// 1-based index of the request across the lifetime of the Transport.
type EmbedFunc func(ctx context.Context, call int, text string) ([]float32, error)

// Transport is a test double for ai.Transport and ai.Pinger.
// It is safe for concurrent use.
type Transport struct {
	// PingErr is returned by Ping when set.
	PingErr error

	dim       int
	embedFunc EmbedFunc
	calls     atomic.Int64

	mu    sync.Mutex
	texts []string
}

var (
	_ ai.Transport = (*Transport)(nil)
	_ ai.Pinger    = (*Transport)(nil)
)

// NewTransport creates a mock producing vectors of length dim.
// Note: Returns concrete type so tests can reach CallCount and Texts.
func NewTransport(dim int) *Transport {
	if dim < 1 {
		dim = 8
	}
	return &Transport{dim: dim}
}

// WithEmbedFunc installs custom behaviour and returns the Transport.
func (m *Transport) WithEmbedFunc(fn EmbedFunc) *Transport {
	m.embedFunc = fn
	return m
}

// Name returns "mock".
func (m *Transport) Name() string {
	return "mock"
}

// Embed records text and returns a vector.
func (m *Transport) Embed(ctx context.Context, text string) ([]float32, error) {
	call := int(m.calls.Add(1))

	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.embedFunc != nil {
		return m.embedFunc(ctx, call, text)
	}
	return Vector(text, m.dim), nil
}

// Ping returns PingErr.
func (m *Transport) Ping(ctx context.Context) error {
	return m.PingErr
}

// CallCount returns the number of Embed calls so far.
func (m *Transport) CallCount() int {
	return int(m.calls.Load())
}

// Texts returns a copy of every text passed to Embed, in call order.
func (m *Transport) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}

// Dimension returns the length of the default vectors.
func (m *Transport) Dimension() int {
	return m.dim
}

// FailFirst returns an EmbedFunc that fails the first n calls with err and
// then falls back to deterministic vectors of length dim.
func FailFirst(n int, dim int, err error) EmbedFunc {
	return func(ctx context.Context, call int, text string) ([]float32, error) {
		if call <= n {
			return nil, err
		}
		return Vector(text, dim), nil
	}
}

// FailWhen returns an EmbedFunc that fails with err every time match
// accepts the text and otherwise returns deterministic vectors.
func FailWhen(match func(text string) bool, dim int, err error) EmbedFunc {
	return func(ctx context.Context, call int, text string) ([]float32, error) {
		if match(text) {
			return nil, err
		}
		return Vector(text, dim), nil
	}
}

// Vector creates a deterministic unit vector from text.
// The same text always produces the same vector.
func Vector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	norm := float32(1 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= norm
	}
	return vector
}
