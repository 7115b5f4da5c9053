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


package ai

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Supported embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds configuration for an embedding service.
type Config struct {
	// Provider selects the wire protocol: "ollama" for the native
	// /api/embeddings endpoint, "openai" for OpenAI-compatible APIs.
	Provider string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434" for a local Ollama server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "nomic-embed-text:latest", "text-embedding-3-small"
	EmbeddingModel string

	// APIKey authenticates against hosted providers. Ignored by Ollama.
	APIKey string

	// Dimension is the length of vectors returned by the model.
	// Default: 768
	Dimension int

	// RequestTimeout bounds a single embedding request.
	// Default: 120s
	RequestTimeout time.Duration

	// MaxInFlight caps concurrent requests to the host.
	// Default: 4
	MaxInFlight int

	// RequestsPerSecond rate-limits requests to the host. Zero disables limiting.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the embedding provider and applies its host, model,
// dimension and API key defaults. Options applied afterwards win.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = strings.ToLower(provider)
		if preset, ok := presets[c.Provider]; ok {
			c.EmbeddingHost = preset.host
			c.EmbeddingModel = preset.model
			c.Dimension = preset.dimension
			if preset.apiKeyEnv != "" {
				c.APIKey = os.Getenv(preset.apiKeyEnv)
			}
		}
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the API key for hosted providers.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithDimension sets the expected embedding dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithMaxInFlight caps concurrent requests to the embedding host.
func WithMaxInFlight(n int) ConfigOption {
	return func(c *Config) {
		c.MaxInFlight = n
	}
}

// WithRequestsPerSecond sets a request rate limit. Zero disables it.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

type preset struct {
	host      string
	model     string
	dimension int
	apiKeyEnv string
}

var presets = map[string]preset{
	ProviderOllama: {
		host:      "http://localhost:11434",
		model:     "nomic-embed-text:latest",
		dimension: 768,
	},
	ProviderOpenAI: {
		host:      "https://api.openai.com/v1",
		model:     "text-embedding-3-small",
		dimension: 1536,
		apiKeyEnv: "OPENAI_API_KEY",
	},
}

// DefaultConfig returns a Config targeting a local Ollama server.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOllama,
		EmbeddingHost:  "http://localhost:11434",
		EmbeddingModel: "nomic-embed-text:latest",
		Dimension:      768,
		RequestTimeout: 120 * time.Second,
		MaxInFlight:    4,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithEmbeddingModel("text-embedding-3-large"),
//	    WithDimension(3072),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Ollama hosts lose any trailing slash or /v1 suffix since the native API
// lives at the server root; OpenAI-compatible hosts gain a /v1 suffix.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	host := strings.TrimSuffix(strings.TrimSpace(c.EmbeddingHost), "/")
	if host == "" {
		c.EmbeddingHost = ""
		return
	}
	switch c.Provider {
	case ProviderOllama:
		host = strings.TrimSuffix(host, "/v1")
	case ProviderOpenAI:
		if !strings.HasSuffix(host, "/v1") {
			host += "/v1"
		}
	}
	c.EmbeddingHost = host
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if _, ok := presets[c.Provider]; !ok {
		return fmt.Errorf("ai config: unsupported provider %q", c.Provider)
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimension < 1 {
		return errors.New("ai config: Dimension must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("ai config: RequestTimeout must be positive")
	}
	if c.MaxInFlight < 1 {
		return errors.New("ai config: MaxInFlight must be at least 1")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	return nil
}
