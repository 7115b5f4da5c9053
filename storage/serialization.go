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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/kbingest/core"
)

// rowVersion prefixes every encoded row so the layout can change later.
const rowVersion = 1

// RowSize returns the encoded length of row.
func RowSize(row *core.Row) int {
	size := varint.Int.Size(rowVersion)
	size += ord.String.Size(row.ID)
	size += ord.String.Size(row.Content)
	size += ord.String.Size(row.Metadata.Source)
	size += ord.String.Size(row.Metadata.Category)
	size += varint.Uint64.Size(uint64(row.Metadata.ContentHash))
	size += varint.Int.Size(len(row.Vector))
	for _, v := range row.Vector {
		size += raw.Float32.Size(v)
	}
	return size
}

// MarshalRow serializes a Row to bytes.
func MarshalRow(row *core.Row) []byte {
	buf := make([]byte, RowSize(row))
	n := varint.Int.Marshal(rowVersion, buf)
	n += ord.String.Marshal(row.ID, buf[n:])
	n += ord.String.Marshal(row.Content, buf[n:])
	n += ord.String.Marshal(row.Metadata.Source, buf[n:])
	n += ord.String.Marshal(row.Metadata.Category, buf[n:])
	n += varint.Uint64.Marshal(uint64(row.Metadata.ContentHash), buf[n:])
	n += varint.Int.Marshal(len(row.Vector), buf[n:])
	for _, v := range row.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalRow deserializes a Row from bytes.
func UnmarshalRow(data []byte) (*core.Row, error) {
	var (
		row core.Row
		n   int
	)
	version, m, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, wrapDecode(err)
	}
	if version != rowVersion {
		return nil, fmt.Errorf("%w: unknown row version %d", ErrSerializationFailed, version)
	}
	n += m

	strs := []*string{&row.ID, &row.Content, &row.Metadata.Source, &row.Metadata.Category}
	for _, s := range strs {
		*s, m, err = ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, wrapDecode(err)
		}
		n += m
	}

	hash, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, wrapDecode(err)
	}
	row.Metadata.ContentHash = core.ID(hash)
	n += m

	length, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, wrapDecode(err)
	}
	n += m
	// each float32 takes 4 bytes
	if length < 0 || length > (len(data)-n)/4 {
		return nil, ErrTruncatedData
	}

	row.Vector = make([]float32, length)
	for i := range row.Vector {
		row.Vector[i], m, err = raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, wrapDecode(err)
		}
		n += m
	}
	return &row, nil
}

func wrapDecode(err error) error {
	return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}
