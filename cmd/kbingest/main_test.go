package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/kbingest/config"
	"github.com/poiesic/kbingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// fakeOllama serves /api/tags and fixed 4-dimensional embeddings.
func fakeOllama(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var embeds atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[]}`))
		case "/api/embeddings":
			embeds.Add(1)
			var req struct {
				Prompt string `json:"prompt"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			v := float64(len(req.Prompt)%7 + 1)
			json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{v, 1, 0.5, 0.25}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &embeds
}

func knowledgeDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range map[string]string{
		"产品/price.txt":    "iPhone 17 Pro Max 售价 9999 元起。",
		"售后/returns.txt":  "支持七天无理由退货。",
		"物流/shipping.txt": "下单后 48 小时内发货。",
	} {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func findFlag[T cli.Flag](t *testing.T, flags []cli.Flag, name string) T {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(T); ok && flag.Names()[0] == name {
			return f
		}
	}
	t.Fatalf("flag %q not found", name)
	var zero T
	return zero
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level defaults to info", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, app.Flags, "log-level")
		assert.Equal(t, "info", f.Value)
		assert.Equal(t, []string{"l"}, f.Aliases)
	})

	t.Run("config reads KBINGEST_CONFIG", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, app.Flags, "config")
		assert.Empty(t, f.Value)
		assert.Equal(t, []string{"KBINGEST_CONFIG"}, f.EnvVars)
	})

	t.Run("ingest report-interval defaults to 10", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, app.Command("ingest").Flags, "report-interval")
		assert.Equal(t, 10, f.Value)
	})

	t.Run("embedding-host has no default value", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, app.Command("ingest").Flags, "embedding-host")
		assert.Empty(t, f.Value, "the provider preset supplies the host")
	})

	t.Run("query top-k defaults to 5", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, app.Command("query").Flags, "top-k")
		assert.Equal(t, 5, f.Value)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "DEBUG", "json")
	require.NoError(t, err)
	logger.Debug("hello", "chunks", 3)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"chunks":3`)

	buf.Reset()
	logger, err = newLogger(&buf, "warn", "text")
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	_, err = newLogger(&buf, "trace", "text")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = newLogger(&buf, "info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}

func TestSetup_InvalidLogLevel(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	err := newApp().Run([]string{"kbingest", "--log-level", "verbose", "query", "x"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestIngestAndQuery(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	srv, embeds := fakeOllama(t)
	db := filepath.Join(t.TempDir(), "vectordb")
	promFile := filepath.Join(t.TempDir(), "kbingest.prom")

	err := newApp().Run([]string{"kbingest", "--log-level", "error", "ingest",
		"--source", knowledgeDir(t),
		"--collection", "iphone17_knowledge",
		"--embedding-host", srv.URL,
		"--dimension", "4",
		"--db", db,
		"--report-interval", "0",
		"--no-smoke",
		"--metrics-textfile", promFile,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), embeds.Load())

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "kbingest_documents_loaded_total 3")
	assert.Contains(t, string(prom), `kbingest_runs_total{result="success"} 1`)

	err = newApp().Run([]string{"kbingest", "--log-level", "error", "query",
		"--collection", "iphone17_knowledge",
		"--embedding-host", srv.URL,
		"--dimension", "4",
		"--db", db,
		"--top-k", "2",
		"什么时候发货",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), embeds.Load())
}

func TestIngest_NothingToIngestSucceeds(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	srv, embeds := fakeOllama(t)

	err := newApp().Run([]string{"kbingest", "--log-level", "error", "ingest",
		"--source", t.TempDir(),
		"--embedding-host", srv.URL,
		"--db", filepath.Join(t.TempDir(), "vectordb"),
	})
	require.NoError(t, err)
	assert.Zero(t, embeds.Load())
}

func TestIngest_UnreachableServiceFails(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newApp().Run([]string{"kbingest", "--log-level", "error", "ingest",
		"--source", knowledgeDir(t),
		"--embedding-host", url,
		"--db", filepath.Join(t.TempDir(), "vectordb"),
		"--report-interval", "0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion failed")
	assert.Contains(t, err.Error(), "embedding transport unavailable")
}

func TestQuery_RequiresText(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	err := newApp().Run([]string{"kbingest", "query", "--db", filepath.Join(t.TempDir(), "vectordb")})
	assert.ErrorContains(t, err, "query text is required")
}

func TestConfigFrom_Defaults(t *testing.T) {
	app := newApp()
	ctx := cli.NewContext(app, nil, nil)
	cfg := configFrom(ctx)
	assert.Equal(t, "iphone17_knowledge", cfg.Collection)
	assert.Equal(t, config.DriverBadger, cfg.Store.Driver)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &core.Summary{
		Collection:      "iphone17_knowledge",
		DocumentsLoaded: 3,
		ChunksCreated:   5,
		DuplicateChunks: 1,
		ChunksEmbedded:  4,
		ChunksDegraded:  1,
		RowsPersisted:   5,
		Elapsed:         1500 * time.Millisecond,
	})
	out := buf.String()
	assert.Contains(t, out, "Chunks:      5 (1 duplicate)")
	assert.Contains(t, out, "Degraded:    1")
	assert.Contains(t, out, "Elapsed:     1.5s")
}
