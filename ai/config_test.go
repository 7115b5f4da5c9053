package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.EmbeddingHost)
	assert.Equal(t, "nomic-embed-text:latest", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.Dimension)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.MaxInFlight)
	assert.Zero(t, cfg.RequestsPerSecond)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host and model", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://gpu-box:11434"),
			WithEmbeddingModel("bge-m3"),
			WithDimension(1024),
		)

		assert.Equal(t, "http://gpu-box:11434", cfg.EmbeddingHost)
		assert.Equal(t, "bge-m3", cfg.EmbeddingModel)
		assert.Equal(t, 1024, cfg.Dimension)
	})

	t.Run("openai provider preset", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")
		cfg := NewConfig(WithProvider("OpenAI"))

		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, 1536, cfg.Dimension)
		assert.Equal(t, "sk-test", cfg.APIKey)
	})

	t.Run("later options override preset", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOpenAI),
			WithEmbeddingHost("http://localhost:8000/v1"),
			WithAPIKey("local"),
		)

		assert.Equal(t, "http://localhost:8000/v1", cfg.EmbeddingHost)
		assert.Equal(t, "local", cfg.APIKey)
	})

	t.Run("transport limits", func(t *testing.T) {
		cfg := NewConfig(
			WithRequestTimeout(5*time.Second),
			WithMaxInFlight(2),
			WithRequestsPerSecond(10),
		)

		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 2, cfg.MaxInFlight)
		assert.Equal(t, 10.0, cfg.RequestsPerSecond)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		host     string
		expected string
	}{
		{"ollama plain", ProviderOllama, "http://localhost:11434", "http://localhost:11434"},
		{"ollama trailing slash", ProviderOllama, "http://localhost:11434/", "http://localhost:11434"},
		{"ollama strips v1", ProviderOllama, "http://localhost:11434/v1", "http://localhost:11434"},
		{"ollama strips v1 and slash", ProviderOllama, "http://localhost:11434/v1/", "http://localhost:11434"},
		{"openai keeps v1", ProviderOpenAI, "https://api.openai.com/v1", "https://api.openai.com/v1"},
		{"openai adds v1", ProviderOpenAI, "http://localhost:8000", "http://localhost:8000/v1"},
		{"openai trailing slash", ProviderOpenAI, "http://localhost:8000/", "http://localhost:8000/v1"},
		{"empty host", ProviderOllama, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, "unsupported provider"},
		{"missing host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost is required"},
		{"missing model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel is required"},
		{"zero dimension", func(c *Config) { c.Dimension = 0 }, "Dimension must be positive"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "RequestTimeout must be positive"},
		{"zero in flight", func(c *Config) { c.MaxInFlight = 0 }, "MaxInFlight must be at least 1"},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, "RequestsPerSecond cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_Normalizes(t *testing.T) {
	cfg := NewConfig(WithEmbeddingHost("http://localhost:11434/v1/"))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434", cfg.EmbeddingHost)
}
