// Package chunking splits knowledge documents into bounded-size chunks.
//
// Splitting is deterministic: the same document and settings always produce
// the same chunks in the same order. Lengths are counted in Unicode code
// points, so a Chinese character and an ASCII letter both count as one.
package chunking
