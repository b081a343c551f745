package storage

import "errors"

var (
	// ErrEmptyCollection indicates a repository was constructed without a
	// collection name.
	ErrEmptyCollection = errors.New("collection name required")

	// ErrEmptyThreadID indicates a conversation operation without a thread id.
	ErrEmptyThreadID = errors.New("thread id required")
)
