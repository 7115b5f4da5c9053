package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/kbingest/core"
)

// DefaultExtensions lists the file extensions loaded when none are configured.
var DefaultExtensions = []string{".txt"}

// Loader reads knowledge documents from a directory tree.
type Loader struct {
	extensions map[string]struct{}
	exclude    []string
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithExtensions sets the file extensions to load. Matching is case-insensitive
// and a leading dot is optional.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) error {
		if len(exts) == 0 {
			return ErrNoExtensions
		}
		l.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.extensions[ext] = struct{}{}
		}
		if len(l.extensions) == 0 {
			return ErrNoExtensions
		}
		return nil
	}
}

// WithExclude sets glob patterns for paths to skip. A pattern containing
// "**" matches any path containing the rest of the pattern.
func WithExclude(patterns ...string) Option {
	return func(l *Loader) error {
		l.exclude = append(l.exclude[:0], patterns...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// New creates a Loader.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		logger: slog.Default(),
	}
	if err := WithExtensions(DefaultExtensions...)(l); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "loader")
	return l, nil
}

// Load walks root recursively and returns one Document per non-empty
// matching file, in lexical walk order.
//
// Files that cannot be read or are not valid UTF-8 are logged and skipped,
// as are unreadable subdirectories. A missing or unreadable root is an error.
func (l *Loader) Load(ctx context.Context, root string) ([]core.Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, root)
	}

	var (
		docs    []core.Document
		skipped int
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("%w: %w", ErrSourceUnavailable, walkErr)
			}
			l.logger.Warn("skipping unreadable path", "path", path, "err", walkErr)
			skipped++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && l.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.matches(path) || l.excluded(path) {
			return nil
		}

		doc, err := readDocument(path)
		if err != nil {
			l.logger.Warn("skipping file", "path", path, "err", err)
			skipped++
			return nil
		}
		if doc == nil {
			l.logger.Debug("skipping empty file", "path", path)
			return nil
		}
		docs = append(docs, *doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("loaded documents", "root", root, "documents", len(docs), "skipped", skipped)
	return docs, nil
}

func (l *Loader) matches(path string) bool {
	_, ok := l.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (l *Loader) excluded(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range l.exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)
		if strings.Contains(pattern, "**") {
			trimmed := strings.ReplaceAll(pattern, "**", "")
			if trimmed != "" && strings.Contains(normalized, trimmed) {
				return true
			}
		}
		if ok, _ := filepath.Match(pattern, normalized); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// readDocument returns nil without error for files that are empty after trimming.
func readDocument(path string) (*core.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &SkippedFileError{Path: path, Err: err}
	}
	if !utf8.Valid(raw) {
		return nil, &SkippedFileError{Path: path, Err: ErrInvalidEncoding}
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return nil, nil
	}
	doc := &core.Document{
		Content:  content,
		Source:   filepath.Base(path),
		Category: filepath.Base(filepath.Dir(path)),
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, &SkippedFileError{Path: path, Err: err}
	}
	return doc, nil
}
