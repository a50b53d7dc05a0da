package cdn

import "errors"

var (
	// ErrInvalidInput is returned before any effect when a required field is empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFetchFailed is returned when a remote source cannot be downloaded.
	ErrFetchFailed = errors.New("failed to fetch url")
)
