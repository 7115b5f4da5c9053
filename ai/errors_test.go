package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantServer bool
	}{
		{"500", &StatusError{Code: 500, Body: "input too long"}, true},
		{"503 wrapped", fmt.Errorf("ollama: %w", &StatusError{Code: 503}), true},
		{"404", &StatusError{Code: 404, Body: "model not found"}, false},
		{"429", &StatusError{Code: 429}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantServer, IsServerError(tt.err))
		})
	}
}

func TestStatusError_Message(t *testing.T) {
	assert.Equal(t, "embedding request failed: status 500", (&StatusError{Code: 500}).Error())
	assert.Equal(t, "embedding request failed: status 404: model not found",
		(&StatusError{Code: 404, Body: "model not found"}).Error())
}

func TestIsUnreachable(t *testing.T) {
	assert.True(t, IsUnreachable(fmt.Errorf("%w: dial tcp: connection refused", ErrUnreachable)))
	assert.False(t, IsUnreachable(&StatusError{Code: 500}))
}
