package ingest

import "errors"

var (
	// ErrRedactorRequired is returned when a Pipeline is constructed
	// without a redactor.
	ErrRedactorRequired = errors.New("redactor is required")

	// ErrChunkerRequired is returned when a Pipeline is constructed
	// without a chunker.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrEmbedderRequired is returned when a Pipeline is constructed
	// without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexRequired is returned when a Pipeline is constructed
	// without an index.
	ErrIndexRequired = errors.New("index is required")

	// ErrEmptyDocID is returned when a document is submitted without an ID.
	ErrEmptyDocID = errors.New("document id is empty")
)
