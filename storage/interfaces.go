package storage

import (
	"context"

	"github.com/poiesic/kbingest/core"
)

// VectorStore manages named collections of embedded rows.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// CreateCollection creates an empty collection.
	// Returns ErrCollectionExists if the name is taken.
	CreateCollection(ctx context.Context, name string) (Collection, error)

	// GetCollection opens an existing collection.
	// Returns ErrCollectionNotFound if it doesn't exist.
	GetCollection(ctx context.Context, name string) (Collection, error)

	// DeleteCollection removes a collection and all of its rows.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Promote atomically replaces the collection named to with the contents
	// of the collection named from. Readers see either the old or the new
	// rows, never a mix. The from collection no longer exists afterwards.
	// Returns ErrCollectionNotFound if from doesn't exist.
	Promote(ctx context.Context, from, to string) error

	// Close closes the store and releases resources.
	Close() error
}

// Collection is a handle to one named set of rows.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Insert writes rows in one all-or-nothing operation.
	// All rows must pass core.ValidateRows.
	Insert(ctx context.Context, rows []core.Row) error

	// Query returns up to k rows ordered by cosine similarity to vector,
	// most similar first.
	Query(ctx context.Context, vector []float32, k int) ([]core.Match, error)

	// Count returns the number of rows in the collection.
	Count(ctx context.Context) (int, error)
}
