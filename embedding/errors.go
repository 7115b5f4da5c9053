package embedding

import "errors"

var (
	// ErrTransportRequired is returned when NewClient is given a nil transport.
	ErrTransportRequired = errors.New("embedding transport required")

	// ErrInvalidMaxAttempts is returned when max attempts is less than 1.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")

	// ErrInvalidDimension is returned when the dimension is less than 1.
	ErrInvalidDimension = errors.New("embedding dimension must be at least 1")

	// ErrDimensionMismatch is returned when a service answers with a vector
	// of the wrong length. It counts as an ordinary failed try.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnsupportedProvider is returned by NewTransport for unknown providers.
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
)
