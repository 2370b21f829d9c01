// Package index defines the per-session vector collection contract.
// Collections are keyed by session ID; no operation on one session's
// collection can observe or mutate another session's records.
package index

import (
	"context"

	"github.com/docquery-ai/server/internal/documents"
)

// Record pairs one chunk's text and location with its embedding.
// IDs are per-session sequence numbers assigned on insert.
type Record struct {
	ID        int
	Text      string
	Page      int
	BBox      documents.BBox
	Embedding []float32
}

// Result is one ranked query hit. Distance is cosine distance; results are
// ordered by ascending distance with the sequence number as tie-break, so
// ordering is deterministic for identical contents and query vector.
type Result struct {
	Record
	Distance float64
}

// Index is a per-session nearest-neighbor store.
type Index interface {
	// Create establishes a fresh, empty collection for the session. An
	// existing collection is replaced; old contents are gone before new
	// ones become visible.
	Create(ctx context.Context, sessionID string) error

	// Add appends one record per block, pairing each block with its
	// embedding. len(blocks) must equal len(embeddings). A missing
	// collection is created first.
	Add(ctx context.Context, sessionID string, blocks []documents.TextBlock, embeddings [][]float32) error

	// Query returns up to topK records ranked by ascending cosine
	// distance. A session with no collection yields an empty result,
	// not an error.
	Query(ctx context.Context, sessionID string, embedding []float32, topK int) ([]Result, error)

	// Has reports whether a collection exists for the session.
	Has(ctx context.Context, sessionID string) (bool, error)

	// Delete removes the session's collection. Deleting a collection
	// that does not exist is not an error; the return value reports
	// whether anything was removed.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// ListSessions enumerates session IDs with a collection.
	ListSessions(ctx context.Context) ([]string, error)
}
