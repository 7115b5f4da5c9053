package main

import (
	"github.com/poiesic/kbingest/config"
	"github.com/urfave/cli/v2"
)

// applySharedFlags copies explicitly set command line flags over cfg.
func applySharedFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("collection") {
		cfg.Collection = c.String("collection")
	}
	if c.IsSet("provider") {
		cfg.Embedding.Provider = c.String("provider")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("dimension") {
		cfg.Embedding.Dimension = c.Int("dimension")
	}
	if c.IsSet("store") {
		cfg.Store.Driver = c.String("store")
	}
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}
	if c.IsSet("dsn") {
		cfg.Store.DSN = c.String("dsn")
	}
}

func applyIngestFlags(c *cli.Context, cfg *config.Config) {
	applySharedFlags(c, cfg)
	if c.IsSet("source") {
		cfg.Source = c.String("source")
	}
	if c.IsSet("workers") {
		cfg.Embedding.Workers = c.Int("workers")
	}
	if c.Bool("no-smoke") {
		cfg.Smoke.Disabled = true
	}
	if c.IsSet("metrics-textfile") {
		cfg.Metrics.Textfile = c.String("metrics-textfile")
	}
}
