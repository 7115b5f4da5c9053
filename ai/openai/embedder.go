package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/poiesic/kbingest/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// statusPattern extracts the HTTP status from langchaingo client errors,
// which are formatted as "API returned unexpected status code: 500: ...".
var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// Transport embeds text through an OpenAI-compatible API.
type Transport struct {
	embedder embeddings.Embedder
	gate     *ai.Gate
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ai.Transport = (*Transport)(nil)

func newTransport(config *ai.Config, client embeddings.EmbedderClient) (*Transport, error) {
	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Transport{
		embedder: embedder,
		gate:     ai.NewGate(config),
		timeout:  config.RequestTimeout,
		logger:   slog.Default().With("component", "openai-transport"),
	}, nil
}

// New creates a Transport for an OpenAI-compatible embedding API.
func New(config *ai.Config) (*Transport, error) {
	if config == nil {
		return nil, errors.New("openai: config required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderOpenAI {
		return nil, fmt.Errorf("openai: config is for provider %q", config.Provider)
	}

	// Local OpenAI-compatible services accept any token
	token := config.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	return newTransport(config, client)
}

// Name returns "openai".
func (t *Transport) Name() string {
	return ai.ProviderOpenAI
}

// Embed requests an embedding vector for text.
func (t *Transport) Embed(ctx context.Context, text string) ([]float32, error) {
	release, err := t.gate.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	t.logger.Debug("generating embedding for single text", "length", len(text))
	vec, err := t.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(vec) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	return vec, nil
}

// classify maps langchaingo client errors onto the ai error vocabulary.
func classify(ctx context.Context, err error) error {
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return &ai.StatusError{Code: code, Body: err.Error()}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && ctx.Err() == nil {
		return fmt.Errorf("%w: %w", ai.ErrUnreachable, err)
	}
	return err
}
