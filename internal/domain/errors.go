package domain

import "errors"

var (
	// ErrModelUnavailable means the embedding model cannot be loaded or reached.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrStorageUnavailable means the persistence path cannot be read or written.
	ErrStorageUnavailable = errors.New("index storage unavailable")
	// ErrIndexNotFound means nothing has been persisted yet.
	ErrIndexNotFound = errors.New("index not found")
	// ErrCorruptIndex means persisted data failed validation.
	ErrCorruptIndex = errors.New("index corrupt")
	// ErrVersionMismatch means the persisted index was built for another model or corpus.
	ErrVersionMismatch = errors.New("index version mismatch")
	// ErrDimensionMismatch means a vector does not match the index width.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidQuery means the caller sent a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownCategory means a category label is outside the closed set.
	ErrUnknownCategory = errors.New("unknown category")
)

// IsRebuildable reports whether a load error means "build a fresh index"
// rather than an I/O failure that needs operator attention.
func IsRebuildable(err error) bool {
	return errors.Is(err, ErrIndexNotFound) ||
		errors.Is(err, ErrCorruptIndex) ||
		errors.Is(err, ErrVersionMismatch)
}
