package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when the root directory cannot be read.
	ErrSourceUnavailable = errors.New("source directory unavailable")

	// ErrNoExtensions is returned when an empty extension set is configured.
	ErrNoExtensions = errors.New("at least one file extension is required")

	// ErrInvalidEncoding marks files that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")

	// ErrSkippedFile is matched by every SkippedFileError.
	ErrSkippedFile = errors.New("file skipped")
)

// SkippedFileError describes a single file the loader could not use.
type SkippedFileError struct {
	Path string
	Err  error
}

func (e *SkippedFileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *SkippedFileError) Unwrap() []error {
	return []error{ErrSkippedFile, e.Err}
}
