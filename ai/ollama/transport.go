package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/kbingest/ai"
)

const (
	embeddingsPath = "/api/embeddings"
	tagsPath       = "/api/tags"
	pingTimeout    = 10 * time.Second
	maxErrorBody   = 4096
)

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Transport calls the native Ollama embeddings endpoint.
type Transport struct {
	client  *http.Client
	host    string
	model   string
	timeout time.Duration
	gate    *ai.Gate
	logger  *slog.Logger
}

var (
	_ ai.Transport = (*Transport)(nil)
	_ ai.Pinger    = (*Transport)(nil)
)

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
	}
}

// New creates an Ollama transport from cfg.
func New(cfg *ai.Config, opts ...Option) (*Transport, error) {
	if cfg == nil {
		return nil, errors.New("ollama: config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider != ai.ProviderOllama {
		return nil, fmt.Errorf("ollama: config is for provider %q", cfg.Provider)
	}

	t := &Transport{
		client:  &http.Client{},
		host:    cfg.EmbeddingHost,
		model:   cfg.EmbeddingModel,
		timeout: cfg.RequestTimeout,
		gate:    ai.NewGate(cfg),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "ollama-transport")
	return t, nil
}

// Name returns "ollama".
func (t *Transport) Name() string {
	return ai.ProviderOllama
}

// Embed requests an embedding vector for text.
func (t *Transport) Embed(ctx context.Context, text string) ([]float32, error) {
	release, err := t.gate.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	body, err := json.Marshal(embeddingRequest{Model: t.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+embeddingsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	t.logger.Debug("requesting embedding", "model", t.model, "length", len(text))
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}

	vec := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Ping checks that the Ollama server answers on its model listing endpoint.
func (t *Transport) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.host+tagsPath, nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ai.StatusError{Code: resp.StatusCode}
	}
	return nil
}

// classify separates timeouts and cancellation from hosts that could not
// be reached at all.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("embedding request failed: %w", err)
	}
	return fmt.Errorf("%w: %w", ai.ErrUnreachable, err)
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &ai.StatusError{
		Code: resp.StatusCode,
		Body: strings.TrimSpace(string(raw)),
	}
}
