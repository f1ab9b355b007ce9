package core

import "errors"

// Error kinds surfaced by introspection and export. Callers wrap them with
// context; errors.Is recovers the kind.
var (
	ErrConfig       = errors.New("invalid configuration")
	ErrConnectivity = errors.New("database unavailable")
	ErrNotFound     = errors.New("not found")
	ErrCatalogShape = errors.New("catalog shape mismatch")
	ErrIO           = errors.New("i/o failure")
)
