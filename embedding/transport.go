package embedding

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/kbingest/ai"
	"github.com/poiesic/kbingest/ai/ollama"
	"github.com/poiesic/kbingest/ai/openai"
)

// NewTransport builds the transport selected by cfg.Provider.
func NewTransport(cfg *ai.Config, logger *slog.Logger) (ai.Transport, error) {
	if cfg == nil {
		cfg = ai.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOllama:
		return ollama.New(cfg, ollama.WithLogger(logger))
	case ai.ProviderOpenAI:
		return openai.New(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
