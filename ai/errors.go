package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable wraps connection-level failures: refused connections,
	// DNS errors, closed sockets. The request never produced an HTTP status.
	ErrUnreachable = errors.New("embedding host unreachable")

	// ErrEmptyEmbedding is returned when a service answers with no vector.
	ErrEmptyEmbedding = errors.New("embedding response returned empty vector")
)

// StatusError is returned when the embedding service answers with a
// non-success HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("embedding request failed: status %d", e.Code)
	}
	return fmt.Sprintf("embedding request failed: status %d: %s", e.Code, e.Body)
}

// IsServerError reports whether the status is in the 5xx range.
func (e *StatusError) IsServerError() bool {
	return e.Code >= 500 && e.Code <= 599
}

// IsServerError reports whether err carries a 5xx StatusError.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.IsServerError()
}

// IsUnreachable reports whether err is a connection-level failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
