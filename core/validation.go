// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be empty or whitespace only
//   - Source must not be empty
//
// Category may be empty when a file sits directly in a filesystem root.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}
	if doc.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySource)
	}
	return nil
}

// ValidateChunk validates a Chunk produced by a splitter.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	return nil
}

// ValidateRow validates a Row before it is handed to a vector store.
//
// Validation rules:
//   - ID must be set
//   - Content must not be empty
//   - Vector must not be empty (zero vectors are allowed)
func ValidateRow(row *Row) error {
	if row == nil {
		return fmt.Errorf("%w: row is nil", ErrInvalidRow)
	}
	if row.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRow, ErrEmptyID)
	}
	if row.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRow, ErrEmptyContent)
	}
	if len(row.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRow, ErrEmptyVector)
	}
	return nil
}

// ValidateRows validates every row and enforces a single vector dimension.
func ValidateRows(rows []Row) error {
	dim := -1
	for i := range rows {
		row := &rows[i]
		if err := ValidateRow(row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if dim == -1 {
			dim = len(row.Vector)
			continue
		}
		if len(row.Vector) != dim {
			return fmt.Errorf("%w: row %d has dimension %d, expected %d", ErrInvalidRow, i, len(row.Vector), dim)
		}
	}
	return nil
}
