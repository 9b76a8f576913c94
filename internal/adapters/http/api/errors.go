package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrNotFound = errors.New("resource not found")
)
