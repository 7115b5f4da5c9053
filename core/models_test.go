package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "退货政策是什么",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "iPhone 17 Pro Max ships in three colors and supports a 7 day return window",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestSummary_Degraded(t *testing.T) {
	s := &Summary{ChunksEmbedded: 10}
	if s.Degraded() {
		t.Errorf("Summary.Degraded() = true for a run with no degraded chunks")
	}
	s.ChunksDegraded = 1
	if !s.Degraded() {
		t.Errorf("Summary.Degraded() = false with one degraded chunk")
	}
}
