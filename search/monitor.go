package search

import "github.com/poiesic/kbingest/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(collection, query string)
	AfterEmbedding(vector []float32)
	Finish(results []core.Match)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)          {}
func (n *noopMonitor) AfterEmbedding(_ []float32) {}
func (n *noopMonitor) Finish(_ []core.Match)      {}
