package rag

import "errors"

// Pipeline failure modes surfaced to the transport layer. Extraction
// failures carry documents.ErrUnparsable; anything else wrapping an index
// or embedder error is a transient infrastructure failure.
var (
	// ErrEmptyDocument indicates the document parsed but contained no text.
	ErrEmptyDocument = errors.New("no text content found in document")

	// ErrEmptyQuery indicates a blank query after trimming.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrSessionNotFound indicates a query or status check against a
	// session that does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found or expired")
)
