package search

import "github.com/poiesic/kbingest/textclean"

// Preview shortens text to at most n runes for log lines and terminal
// output, marking the cut with an ellipsis.
func Preview(text string, n int) string {
	if n <= 0 || textclean.Len(text) <= n {
		return text
	}
	return textclean.Truncate(text, n) + "..."
}

// IsZero reports whether every component of vector is zero, which is how
// degraded embeddings look.
func IsZero(vector []float32) bool {
	for _, v := range vector {
		if v != 0 {
			return false
		}
	}
	return true
}
