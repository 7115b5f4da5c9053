package pgvector

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/poiesic/kbingest/storage"
)

//go:embed schema.sql
var schema string

const bootstrapTimeout = 30 * time.Second

// Store implements storage.VectorStore on PostgreSQL.
type Store struct {
	db     *sql.DB
	ownsDB bool
	logger *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Open connects to dsn, verifies the connection and ensures the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("pgvector: dsn is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	s, err := NewStore(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewStore wraps an existing handle opened with the pgx driver. The caller
// keeps ownership of db.
func NewStore(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("pgvector: db required")
	}
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "pgvector-store")

	ctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return s, nil
}

// Close closes the connection pool for stores created by Open.
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// CreateCollection registers an empty collection.
func (s *Store) CreateCollection(ctx context.Context, name string) (storage.Collection, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO kb_collections (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, q, name)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrCollectionExists, name)
	}
	s.logger.Debug("created collection", "collection", name)
	return &collection{store: s, name: name}, nil
}

// GetCollection opens an existing collection.
func (s *Store) GetCollection(ctx context.Context, name string) (storage.Collection, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := exists(ctx, s.db, name); err != nil {
		return nil, err
	}
	return &collection{store: s, name: name}, nil
}

// DeleteCollection removes a collection and, by cascade, its rows.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kb_collections WHERE name = $1`, name)
	return err
}

// Promote replaces to with from in one transaction.
func (s *Store) Promote(ctx context.Context, from, to string) error {
	if err := checkName(from); err != nil {
		return err
	}
	if err := checkName(to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: cannot promote %s onto itself", storage.ErrInvalidCollectionName, from)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT name FROM kb_collections WHERE name = $1 FOR UPDATE`, from).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, from)
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_collections WHERE name = $1`, to); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE kb_collections SET name = $2 WHERE name = $1`, from, to); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("promoted collection", "from", from, "to", to)
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, name string) error {
	var found string
	err := q.QueryRowContext(ctx, `SELECT name FROM kb_collections WHERE name = $1`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
	}
	return err
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return storage.ErrInvalidCollectionName
	}
	return nil
}
