package server

import "errors"

var (
	// ErrEmptyDocument reports an upload with no extractable text.
	ErrEmptyDocument = errors.New("server: document is empty or could not be parsed")

	// ErrBusy reports that every analysis slot is taken.
	ErrBusy = errors.New("server: too many concurrent analyses")

	// ErrMissingField reports a multipart form without a required field.
	ErrMissingField = errors.New("server: missing form field")
)
