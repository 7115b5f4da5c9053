package storage

import (
	"testing"

	"github.com/poiesic/kbingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRow(t *testing.T) {
	row := &core.Row{
		ID:      "4b0f4ad8-0c9b-4d58-9a43-5a0b6f0b8f51",
		Content: "iPhone 17 Pro Max 起售价 9999 元",
		Metadata: core.Metadata{
			Source:      "pricing.txt",
			Category:    "产品",
			ContentHash: core.IDFromContent("iPhone 17 Pro Max 起售价 9999 元"),
		},
		Vector: []float32{0.25, -1.5, 3e-8, 0},
	}

	data := MarshalRow(row)
	assert.Len(t, data, RowSize(row))

	decoded, err := UnmarshalRow(data)
	require.NoError(t, err)
	assert.Equal(t, row, decoded)
}

func TestUnmarshalRow_EmptyVector(t *testing.T) {
	row := &core.Row{ID: "x", Content: "y", Vector: []float32{}}

	decoded, err := UnmarshalRow(MarshalRow(row))
	require.NoError(t, err)
	assert.Empty(t, decoded.Vector)
	assert.Equal(t, "x", decoded.ID)
}

func TestUnmarshalRow_Invalid(t *testing.T) {
	full := MarshalRow(&core.Row{ID: "id", Content: "content", Vector: []float32{1, 2, 3}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"unknown version", []byte{0x7f}},
		{"truncated strings", full[:4]},
		{"truncated vector", full[:len(full)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRow(tt.data)
			assert.Error(t, err)
		})
	}
}
