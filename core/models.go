package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a 64-bit content hash used to spot repeated chunk text.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is one source file read from the knowledge directory.
type Document struct {
	Content  string // trimmed file text, never empty
	Source   string // file base name
	Category string // name of the directory holding the file
}

// Chunk is a bounded slice of a Document's cleaned text.
type Chunk struct {
	Content  string
	Source   string
	Category string
}

// Metadata is the per-row descriptor persisted alongside each vector.
type Metadata struct {
	Source      string
	Category    string
	ContentHash ID
}

// Row is the unit written to a vector store collection.
type Row struct {
	ID       string // UUIDv4, unique per ingestion run
	Content  string
	Metadata Metadata
	Vector   []float32
}

// Match is a Row returned from a similarity query.
type Match struct {
	Row   *Row
	Score float32
}

// Summary describes the outcome of a single ingestion run.
type Summary struct {
	Collection      string
	DocumentsLoaded int
	ChunksCreated   int
	ChunksEmbedded  int
	ChunksDegraded  int
	DuplicateChunks int
	RowsPersisted   int
	Elapsed         time.Duration
}

// Degraded reports whether any chunk was stored with a zero vector.
func (s *Summary) Degraded() bool {
	return s.ChunksDegraded > 0
}
