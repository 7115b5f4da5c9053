package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/kbingest/ai"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverBadger   = "badger"
	DriverPgvector = "pgvector"
)

// Config holds the kbingest configuration.
type Config struct {
	Source     string          `yaml:"source"`
	Collection string          `yaml:"collection"`
	Loader     LoaderConfig    `yaml:"loader"`
	Chunking   ChunkingConfig  `yaml:"chunking"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	Store      StoreConfig     `yaml:"store"`
	Smoke      SmokeConfig     `yaml:"smoke"`
	Logging    LoggingConfig   `yaml:"logging"`
	Metrics    MetricsConfig   `yaml:"metrics"`
}

// LoaderConfig selects which files are read from the source directory.
type LoaderConfig struct {
	Extensions []string `yaml:"extensions"` // default: .txt
	Exclude    []string `yaml:"exclude"`    // glob patterns matched against base names
}

// ChunkingConfig holds splitter settings, in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding service and client settings.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"` // ollama, openai
	Host              string        `yaml:"host"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	Dimension         int           `yaml:"dimension"`
	MaxInputChars     int           `yaml:"max_input_chars"`
	MaxAttempts       int           `yaml:"max_attempts"`
	Backoff           time.Duration `yaml:"backoff"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxInFlight       int           `yaml:"max_in_flight"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Workers           int           `yaml:"workers"`
}

// StoreConfig selects and locates the vector store.
type StoreConfig struct {
	Driver   string `yaml:"driver"` // badger, pgvector (default: badger)
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	DSN      string `yaml:"dsn"`
}

// SmokeConfig holds the post-ingestion smoke test settings.
type SmokeConfig struct {
	Disabled bool     `yaml:"disabled"`
	Queries  []string `yaml:"queries"`
	TopK     int      `yaml:"top_k"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // empty disables the textfile export
}

// Load reads configuration from path. An empty path yields the defaults.
// A .env file in the working directory is loaded first if it exists.
func Load(path string) (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads environment files without overriding variables that are
// already set. With no paths it reads ./.env and ignores its absence.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && len(paths) == 0 && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = "knowledge_base"
	}
	if c.Collection == "" {
		c.Collection = "iphone17_knowledge"
	}
	if len(c.Loader.Extensions) == 0 {
		c.Loader.Extensions = []string{".txt"}
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = 300
		if c.Chunking.Overlap == 0 {
			c.Chunking.Overlap = 50
		}
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ai.ProviderOllama
	}
	c.Embedding.Provider = strings.ToLower(c.Embedding.Provider)
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = 500
	}
	if c.Embedding.MaxAttempts <= 0 {
		c.Embedding.MaxAttempts = 3
	}
	if c.Embedding.Backoff <= 0 {
		c.Embedding.Backoff = 2 * time.Second
	}
	if c.Embedding.RequestTimeout <= 0 {
		c.Embedding.RequestTimeout = 120 * time.Second
	}
	if c.Embedding.MaxInFlight <= 0 {
		c.Embedding.MaxInFlight = 4
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverBadger
	}
	if c.Store.Driver == DriverBadger && c.Store.Path == "" && !c.Store.InMemory {
		c.Store.Path = "vectordb"
	}

	if c.Smoke.TopK <= 0 {
		c.Smoke.TopK = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Collection) == "" {
		return errors.New("collection is required")
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be between 0 and %d, got %d", c.Chunking.Size-1, c.Chunking.Overlap)
	}

	switch c.Embedding.Provider {
	case ai.ProviderOllama, ai.ProviderOpenAI:
		// ok
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ai.ProviderOllama, ai.ProviderOpenAI, c.Embedding.Provider)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding.dimension must not be negative, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %v", c.Embedding.RequestsPerSecond)
	}
	if c.Embedding.Workers < 0 {
		return fmt.Errorf("embedding.workers must not be negative, got %d", c.Embedding.Workers)
	}

	switch c.Store.Driver {
	case DriverBadger:
		if c.Store.Path == "" && !c.Store.InMemory {
			return errors.New("store.path is required for the badger driver")
		}
	case DriverPgvector:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the pgvector driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverBadger, DriverPgvector, c.Store.Driver)
	}

	if c.Smoke.TopK <= 0 {
		return fmt.Errorf("smoke.top_k must be positive, got %d", c.Smoke.TopK)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
		// ok
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// AIConfig builds the transport configuration. Provider presets supply the
// host, model, dimension and API key unless the file overrides them.
func (c *Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(c.Embedding.Provider),
		ai.WithRequestTimeout(c.Embedding.RequestTimeout),
		ai.WithMaxInFlight(c.Embedding.MaxInFlight),
		ai.WithRequestsPerSecond(c.Embedding.RequestsPerSecond),
	}
	if c.Embedding.Host != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.Embedding.Host))
	}
	if c.Embedding.Model != "" {
		opts = append(opts, ai.WithEmbeddingModel(c.Embedding.Model))
	}
	if c.Embedding.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(c.Embedding.APIKey))
	}
	if c.Embedding.Dimension > 0 {
		opts = append(opts, ai.WithDimension(c.Embedding.Dimension))
	}
	return ai.NewConfig(opts...)
}

// SmokeQueries returns the queries to run after ingestion and false when
// the smoke test is disabled. An empty list means the built-in queries.
func (c *Config) SmokeQueries() ([]string, bool) {
	if c.Smoke.Disabled {
		return nil, false
	}
	return c.Smoke.Queries, true
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
