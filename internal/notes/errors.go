package notes

import "errors"

var (
	// ErrPersistence reports that the storage backend failed to read or
	// write the collection.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedData reports a stored blob that could not be decoded.
	ErrMalformedData = errors.New("malformed persisted data")

	// ErrEmptyContent is returned by Create for empty content unless the
	// store allows it.
	ErrEmptyContent = errors.New("note content is empty")
)
