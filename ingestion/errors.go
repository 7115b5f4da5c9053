package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyCollection is returned when the target collection name is blank.
	ErrEmptyCollection = errors.New("collection name required")

	// ErrInvalidTopK is returned when the smoke query result count is not positive.
	ErrInvalidTopK = errors.New("smoke top_k must be positive")

	// ErrNothingToIngest reports that the source produced no documents or no
	// chunks. No store call was made.
	ErrNothingToIngest = errors.New("nothing to ingest")

	// ErrTransportFatal reports that the embedding service could not be used
	// at all. Nothing was persisted.
	ErrTransportFatal = errors.New("embedding transport unavailable")

	// ErrPersistenceFatal reports a vector store failure. The target
	// collection keeps its previous contents.
	ErrPersistenceFatal = errors.New("persistence failed")
)

// Pipeline stage names used in StageError and metrics.
const (
	StageLoad    = "load"
	StageSplit   = "split"
	StageEmbed   = "embed"
	StagePersist = "persist"
)

// StageError records the stage a run was in when it failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
