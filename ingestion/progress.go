package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker tracks and reports embedding progress.
// Observe matches embedding.ProgressFunc, so a tracker can be handed to
// embedding.WithProgress directly.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N chunks
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress towards total.
func (p *ProgressTracker) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start(total)
}

func (p *ProgressTracker) start(total int) {
	p.startTime = time.Now()
	p.started = true
	p.total = total
	p.current = 0
	p.lastReported = 0
}

// Observe records that done of total chunks have completed. The first call
// starts the tracker and the call reaching total finishes it.
func (p *ProgressTracker) Observe(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.total != total {
		p.start(total)
	}
	// Completions can arrive out of order from the worker pool
	if done <= p.current {
		return
	}
	p.current = min(done, p.total)

	if p.current == p.total {
		p.finish()
		return
	}
	// Report if we've crossed a report interval
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish marks the operation as complete and prints final progress.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finish()
}

func (p *ProgressTracker) finish() {
	if !p.started {
		return
	}
	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer) // Print newline after final progress
	p.started = false
}

// Elapsed returns the time elapsed since tracking started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startTime.IsZero() {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f chunks/s",
		p.current, p.total, percentage, rate)
}
