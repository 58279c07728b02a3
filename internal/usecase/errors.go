package usecase

import "errors"

var (
	// ErrEmptyContent is returned before any provider call when the source
	// text is empty or whitespace. It is the caller's fault and not retried.
	ErrEmptyContent = errors.New("empty content")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)
