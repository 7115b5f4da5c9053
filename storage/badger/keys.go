package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	collectionPrefix = "kbcol"
	rowPrefix        = "kbrow"
	generationSeq    = "kbgenseq"
)

// makeCollectionKey generates the key holding a collection's current generation.
// Format: prefix:name
func makeCollectionKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, name))
}

// makeRowPrefix generates the prefix shared by every row of one generation.
// Format: prefix:generation:
func makeRowPrefix(gen uint64) []byte {
	prefix := rowPrefix + ":"
	buf := make([]byte, len(prefix)+8+1)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], gen)
	buf[offset+8] = ':'
	return buf
}

// makeRowKey generates a key for a row within a generation.
// Format: prefix:generation:rowID
func makeRowKey(gen uint64, id string) []byte {
	return append(makeRowPrefix(gen), id...)
}

func encodeGeneration(gen uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, gen)
	return buf
}

func decodeGeneration(val []byte) (uint64, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid generation value of %d bytes", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}
