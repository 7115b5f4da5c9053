package pgvector

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to the database named by KBINGEST_TEST_DSN.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("KBINGEST_TEST_DSN")
	if dsn == "" {
		t.Skip("KBINGEST_TEST_DSN not set")
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func uniqueName(t *testing.T, s *Store) string {
	t.Helper()
	name := "test-" + uuid.NewString()
	t.Cleanup(func() { s.DeleteCollection(context.Background(), name) })
	return name
}

func testRows(vectors ...[]float32) []core.Row {
	rows := make([]core.Row, len(vectors))
	for i, v := range vectors {
		rows[i] = core.Row{
			ID:      uuid.NewString(),
			Content: "chunk",
			Metadata: core.Metadata{
				Source:      "faq.txt",
				Category:    "售后",
				ContentHash: core.ID(18446744073709551615 - uint64(i)),
			},
			Vector: v,
		}
	}
	return rows
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(context.Background(), nil)
	assert.Error(t, err)
}

func TestCheckName(t *testing.T) {
	assert.ErrorIs(t, checkName(""), storage.ErrInvalidCollectionName)
	assert.ErrorIs(t, checkName("  "), storage.ErrInvalidCollectionName)
	assert.NoError(t, checkName("iphone17_knowledge"))
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	name := uniqueName(t, s)

	coll, err := s.CreateCollection(ctx, name)
	require.NoError(t, err)

	_, err = s.CreateCollection(ctx, name)
	assert.ErrorIs(t, err, storage.ErrCollectionExists)

	rows := testRows([]float32{1, 0, 0}, []float32{0, 1, 0}, []float32{0, 0, 0})
	require.NoError(t, coll.Insert(ctx, rows))

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	matches, err := coll.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, rows[0].ID, matches[0].Row.ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, rows[0].Metadata, matches[0].Row.Metadata)

	require.NoError(t, s.DeleteCollection(ctx, name))
	_, err = s.GetCollection(ctx, name)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
	assert.NoError(t, s.DeleteCollection(ctx, name))
}

func TestStore_InsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	name := uniqueName(t, s)

	coll, err := s.CreateCollection(ctx, name)
	require.NoError(t, err)

	rows := testRows([]float32{1, 0}, []float32{0, 1})
	rows[1].ID = rows[0].ID // primary key violation on the second row
	assert.Error(t, coll.Insert(ctx, rows))

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_Promote(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	target := uniqueName(t, s)
	staging := uniqueName(t, s)

	old, err := s.CreateCollection(ctx, target)
	require.NoError(t, err)
	require.NoError(t, old.Insert(ctx, testRows([]float32{1, 0}, []float32{0, 1})))

	next, err := s.CreateCollection(ctx, staging)
	require.NoError(t, err)
	require.NoError(t, next.Insert(ctx, testRows([]float32{1, 1})))

	require.NoError(t, s.Promote(ctx, staging, target))

	count, err := old.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.GetCollection(ctx, staging)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)

	err = s.Promote(ctx, staging, target)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
}
