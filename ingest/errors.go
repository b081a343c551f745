package ingest

import "errors"

var (
	// ErrAdapterRequired is returned when an index adapter is not provided.
	ErrAdapterRequired = errors.New("index adapter required")

	// ErrLoaderRequired is returned when a loader is not provided.
	ErrLoaderRequired = errors.New("loader required")

	// ErrSplitterRequired is returned when a splitter is not provided.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrEmptyURL is returned when a document URL is empty.
	ErrEmptyURL = errors.New("document url required")

	// ErrUnsupportedFileType is returned when a document's extension is not
	// one of .txt, .md or .pdf.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFetchFailed is returned when a document could not be fetched.
	ErrFetchFailed = errors.New("document fetch failed")
)
