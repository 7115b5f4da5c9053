package badger

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/storage"
)

// collection resolves its generation on every call, so a handle taken
// before a Promote reads the promoted rows afterwards.
type collection struct {
	store *Store
	name  string
}

var _ storage.Collection = (*collection)(nil)

func (c *collection) Name() string {
	return c.name
}

// Insert writes rows through a write batch. If the batch fails, the keys
// it may have written are deleted again.
func (c *collection) Insert(ctx context.Context, rows []core.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := core.ValidateRows(rows); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	gen, err := c.store.generation(c.name)
	if err != nil {
		return err
	}

	wb := c.store.backend.NewWriteBatch()
	defer wb.Cancel()

	for i := range rows {
		if err := wb.Set(makeRowKey(gen, rows[i].ID), storage.MarshalRow(&rows[i])); err != nil {
			c.rollback(gen, rows)
			return fmt.Errorf("insert into %s: %w", c.name, err)
		}
	}
	if err := wb.Flush(); err != nil {
		c.rollback(gen, rows)
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}

	c.store.logger.Debug("inserted rows", "collection", c.name, "rows", len(rows))
	return nil
}

func (c *collection) rollback(gen uint64, rows []core.Row) {
	wb := c.store.backend.NewWriteBatch()
	defer wb.Cancel()
	for i := range rows {
		if err := wb.Delete(makeRowKey(gen, rows[i].ID)); err != nil {
			break
		}
	}
	if err := wb.Flush(); err != nil {
		c.store.logger.Warn("failed to roll back partial insert", "collection", c.name, "err", err)
	}
}

// Query scans the collection and ranks rows by cosine similarity.
func (c *collection) Query(ctx context.Context, vector []float32, k int) ([]core.Match, error) {
	if k < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	gen, err := c.store.generation(c.name)
	if err != nil {
		return nil, err
	}

	queryNorm := norm(vector)
	var results []core.Match

	err = c.store.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRowPrefix(gen)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var row *core.Row
			err := iter.Item().Value(func(val []byte) error {
				var err error
				row, err = storage.UnmarshalRow(val)
				return err
			})
			if err != nil {
				return err
			}

			results = append(results, core.Match{
				Row:   row,
				Score: cosine(vector, queryNorm, row.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(results, func(a, b core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of rows without reading values.
func (c *collection) Count(ctx context.Context) (int, error) {
	gen, err := c.store.generation(c.name)
	if err != nil {
		return 0, err
	}

	count := 0
	err = c.store.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRowPrefix(gen)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// cosine returns the cosine similarity of a and b. Zero vectors, which is
// what degraded embeddings are, score 0 against everything.
func cosine(a []float32, aNorm float64, b []float32) float32 {
	bNorm := norm(b)
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	return float32(dotProduct(a, b) / (aNorm * bNorm))
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dotProduct(v, v))
}
