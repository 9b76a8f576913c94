package dbprobe

import "errors"

// Sentinel kinds for probe failures. Callers map these to status strings.
var (
	// ErrModuleMissing means no database capability is wired into the process.
	// Open signals that with a nil Provider instead; custom Provider
	// implementations return it from Acquire when their backend is absent.
	ErrModuleMissing = errors.New("database module not found")
	// ErrNotInitialized means the capability exists but has no handle yet.
	ErrNotInitialized = errors.New("database handle not initialized")
	// ErrUnsupportedScheme means DATABASE_URL names a backend this build cannot open.
	ErrUnsupportedScheme = errors.New("unsupported database scheme")
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("database provider closed")
)
