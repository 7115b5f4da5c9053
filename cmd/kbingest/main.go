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


package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/kbingest/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "kbingest",
		Usage: "Build and query vector collections from a knowledge base directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"KBINGEST_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Replace a collection with the embedded contents of a source directory",
				Action: ingestCommand,
				Flags:  append(ingestFlags(), sharedFlags()...),
			},
			{
				Name:      "query",
				Usage:     "Search a collection for text similar to a query",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags:     append(queryFlags(), sharedFlags()...),
			},
		},
	}
}

// sharedFlags override the embedding and store sections of the config file.
func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "collection",
			Aliases: []string{"n"},
			Usage:   "Target collection name",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider (ollama, openai)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Vector store driver (badger, pgvector)",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.StringFlag{
			Name:    "dsn",
			Usage:   "PostgreSQL connection string for the pgvector store",
			EnvVars: []string{"KBINGEST_DSN"},
		},
	}
}

func ingestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Knowledge base directory",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of concurrent embedding workers",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N chunks (0 disables progress output)",
			Value: 10,
		},
		&cli.BoolFlag{
			Name:  "no-smoke",
			Usage: "Skip the smoke queries after ingestion",
		},
		&cli.StringFlag{
			Name:  "metrics-textfile",
			Usage: "Write Prometheus metrics to this file after the run",
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "top-k",
			Aliases: []string{"k"},
			Usage:   "Maximum number of results",
			Value:   5,
		},
		&cli.Float64Flag{
			Name:  "min-score",
			Usage: "Drop results below this cosine similarity",
			Value: -1,
		},
	}
}

// setup loads the configuration file and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") || cfg.Logging.Level == "" {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") || cfg.Logging.Format == "" {
		cfg.Logging.Format = c.String("log-format")
	}

	logger, err := newLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = &cfg
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	// Get log level and normalize to lowercase
	levelStr := strings.ToLower(level)

	// Map string to slog.Level
	var lvl slog.Level
	switch levelStr {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", format)
	}
}

// configFrom returns the configuration loaded by setup, or the defaults
// when setup did not run.
func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}
