package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/kbingest/core"
	"github.com/poiesic/kbingest/textclean"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 300

	// DefaultOverlap is the number of characters shared by consecutive
	// windows when a single paragraph has to be hard-split.
	DefaultOverlap = 50
)

// Splitter turns documents into bounded-size chunks.
// A Splitter is immutable after construction and safe for concurrent use.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter) error

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) error {
		if size < 1 {
			return ErrInvalidChunkSize
		}
		s.chunkSize = size
		return nil
	}
}

// WithOverlap sets the hard-split window overlap in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) error {
		s.overlap = overlap
		return nil
	}
}

// New creates a Splitter. It fails unless 0 <= overlap < chunk size.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, ErrInvalidOverlap
	}
	return s, nil
}

// ChunkSize returns the configured maximum chunk length.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured hard-split overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split divides a document into chunks.
//
// Documents whose cleaned text fits in one chunk are returned whole.
// Longer cleaned text is split into newline-delimited paragraphs which are
// greedily packed into chunks; a paragraph longer than the chunk size is
// cut into overlapping windows. Cleaning collapses newlines, so in practice
// a long document becomes a single run of windows. Chunk order follows
// paragraph order and empty chunks are never produced.
func (s *Splitter) Split(doc core.Document) []core.Chunk {
	cleaned := textclean.Clean(doc.Content)
	if cleaned == "" {
		return nil
	}
	if utf8.RuneCountInString(cleaned) <= s.chunkSize {
		return []core.Chunk{newChunk(cleaned, doc)}
	}

	texts := s.pack(strings.Split(cleaned, "\n"))
	chunks := make([]core.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, newChunk(text, doc))
	}
	return chunks
}

// SplitAll splits every document and concatenates the chunks in input order.
func (s *Splitter) SplitAll(docs []core.Document) []core.Chunk {
	var chunks []core.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.Split(doc)...)
	}
	return chunks
}

// pack greedily joins paragraphs with single spaces into texts of at most
// chunkSize runes. Oversized paragraphs are replaced by their windows.
func (s *Splitter) pack(paragraphs []string) []string {
	var (
		out    []string
		buf    strings.Builder
		bufLen int
	)
	flush := func() {
		if text := strings.TrimSpace(buf.String()); text != "" {
			out = append(out, text)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := utf8.RuneCountInString(para)

		if bufLen+paraLen <= s.chunkSize {
			buf.WriteString(para)
			buf.WriteByte(' ')
			bufLen += paraLen + 1
			continue
		}

		flush()
		if paraLen > s.chunkSize {
			out = append(out, s.windows(para)...)
			continue
		}
		buf.WriteString(para)
		buf.WriteByte(' ')
		bufLen = paraLen + 1
	}
	flush()
	return out
}

// windows hard-splits text into chunkSize-rune windows starting every
// chunkSize-overlap runes, up to the last start inside the text. The tail
// window may lie entirely within its predecessor.
func (s *Splitter) windows(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.chunkSize, len(runes))
		if window := strings.TrimSpace(string(runes[start:end])); window != "" {
			out = append(out, window)
		}
	}
	return out
}

func newChunk(content string, doc core.Document) core.Chunk {
	return core.Chunk{
		Content:  content,
		Source:   doc.Source,
		Category: doc.Category,
	}
}
