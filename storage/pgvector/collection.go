package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/storage"
)

type collection struct {
	store *Store
	name  string
}

var _ storage.Collection = (*collection)(nil)

func (c *collection) Name() string {
	return c.name
}

// Insert writes rows in a single transaction.
func (c *collection) Insert(ctx context.Context, rows []core.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := core.ValidateRows(rows); err != nil {
		return err
	}

	tx, err := c.store.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if err := exists(ctx, tx, c.name); err != nil {
		_ = tx.Rollback()
		return err
	}

	const q = `
		INSERT INTO kb_rows
			(collection, id, content, source, category, content_hash, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range rows {
		row := &rows[i]
		vec := pgvector.NewVector(row.Vector)
		if _, err := stmt.ExecContext(ctx,
			c.name, row.ID, row.Content, row.Metadata.Source, row.Metadata.Category,
			int64(row.Metadata.ContentHash), vec,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d into %s: %w", i, c.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	c.store.logger.Debug("inserted rows", "collection", c.name, "rows", len(rows))
	return nil
}

// Query orders rows by cosine distance to vector.
func (c *collection) Query(ctx context.Context, vector []float32, k int) ([]core.Match, error) {
	if k < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if err := exists(ctx, c.store.db, c.name); err != nil {
		return nil, err
	}

	const q = `
		SELECT id, content, source, category, content_hash, embedding, 1 - (embedding <=> $2)
		FROM kb_rows
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := c.store.db.QueryContext(ctx, q, c.name, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Match
	for rows.Next() {
		var (
			row   core.Row
			hash  int64
			emb   pgvector.Vector
			score float64
		)
		if err := rows.Scan(
			&row.ID, &row.Content, &row.Metadata.Source, &row.Metadata.Category, &hash, &emb, &score,
		); err != nil {
			return nil, err
		}
		row.Metadata.ContentHash = core.ID(uint64(hash))
		row.Vector = emb.Slice()
		// cosine distance is NaN for zero vectors
		if math.IsNaN(score) {
			score = 0
		}
		out = append(out, core.Match{Row: &row, Score: float32(score)})
	}
	return out, rows.Err()
}

// Count returns the number of rows in the collection.
func (c *collection) Count(ctx context.Context) (int, error) {
	if err := exists(ctx, c.store.db, c.name); err != nil {
		return 0, err
	}
	var n int
	err := c.store.db.QueryRowContext(ctx, `SELECT count(*) FROM kb_rows WHERE collection = $1`, c.name).Scan(&n)
	return n, err
}
