package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{Content: "发货时间为下单后 3 天", Source: "shipping.txt", Category: "policy"},
			wantErr: nil,
		},
		{
			name:    "valid document without category",
			doc:     &Document{Content: "text", Source: "a.txt"},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "whitespace content",
			doc:     &Document{Content: "  \n\t ", Source: "a.txt"},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "missing source",
			doc:     &Document{Content: "text"},
			wantErr: ErrEmptySource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	if err := ValidateChunk(&Chunk{Content: "x"}); err != nil {
		t.Errorf("ValidateChunk() unexpected error = %v", err)
	}
	if err := ValidateChunk(&Chunk{}); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("ValidateChunk() error = %v, want %v", err, ErrEmptyContent)
	}
	if err := ValidateChunk(nil); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("ValidateChunk() error = %v, want %v", err, ErrInvalidChunk)
	}
}

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name    string
		row     *Row
		wantErr error
	}{
		{
			name:    "valid row",
			row:     &Row{ID: "a", Content: "text", Vector: []float32{0.1, 0.2}},
			wantErr: nil,
		},
		{
			name:    "zero vector is still valid",
			row:     &Row{ID: "a", Content: "text", Vector: make([]float32, 4)},
			wantErr: nil,
		},
		{
			name:    "nil row",
			row:     nil,
			wantErr: ErrInvalidRow,
		},
		{
			name:    "missing id",
			row:     &Row{Content: "text", Vector: []float32{1}},
			wantErr: ErrEmptyID,
		},
		{
			name:    "missing content",
			row:     &Row{ID: "a", Vector: []float32{1}},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "missing vector",
			row:     &Row{ID: "a", Content: "text"},
			wantErr: ErrEmptyVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRow(tt.row)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRow() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRow() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRows_DimensionMismatch(t *testing.T) {
	rows := []Row{
		{ID: "a", Content: "one", Vector: []float32{1, 2, 3}},
		{ID: "b", Content: "two", Vector: []float32{1, 2}},
	}
	err := ValidateRows(rows)
	if !errors.Is(err, ErrInvalidRow) {
		t.Errorf("ValidateRows() error = %v, want %v", err, ErrInvalidRow)
	}

	if err := ValidateRows(rows[:1]); err != nil {
		t.Errorf("ValidateRows() unexpected error = %v", err)
	}
	if err := ValidateRows(nil); err != nil {
		t.Errorf("ValidateRows() unexpected error for empty input = %v", err)
	}
}
