package mockdata

import "errors"

// Sentinel kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrUnknownPreset  = errors.New("unknown preset")
	ErrShape          = errors.New("payload violates catalog contract")
)
