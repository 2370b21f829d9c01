package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/index"
)

// Vector index methods; *DB satisfies index.Index. A collection is the set
// of chunk rows sharing a session_id, anchored by a collections row so that
// an empty collection is distinguishable from a missing one.
var _ index.Index = (*DB)(nil)

// Create replaces any existing collection with a fresh empty one. The swap
// runs in one transaction, so readers see either the old contents or none.
func (db *DB) Create(ctx context.Context, sessionID string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM collections WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO collections (session_id) VALUES ($1)`, sessionID); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit collection swap: %w", err)
	}
	return nil
}

// Add appends one record per block, creating the collection if needed
func (db *DB) Add(ctx context.Context, sessionID string, blocks []documents.TextBlock, vectors [][]float32) error {
	if len(blocks) != len(vectors) {
		return fmt.Errorf("blocks and embeddings length mismatch: %d != %d", len(blocks), len(vectors))
	}
	if len(blocks) == 0 {
		return nil
	}

	if _, err := db.pool.Exec(ctx,
		`INSERT INTO collections (session_id) VALUES ($1) ON CONFLICT (session_id) DO NOTHING`,
		sessionID,
	); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	var next int
	if err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM chunks WHERE session_id = $1`,
		sessionID,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to determine next sequence: %w", err)
	}

	batch := &pgx.Batch{}
	for i, block := range blocks {
		batch.Queue(
			`INSERT INTO chunks (session_id, seq, content, page, bbox_x0, bbox_y0, bbox_x1, bbox_y1, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sessionID, next+i, block.Text, block.Page,
			block.BBox.X0, block.BBox.Y0, block.BBox.X1, block.BBox.Y1,
			pgvector.NewVector(vectors[i]),
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(blocks); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	return nil
}

// Query returns up to topK records ranked by ascending cosine distance,
// with the sequence number breaking ties for deterministic ordering.
// A session with no collection yields an empty result.
func (db *DB) Query(ctx context.Context, sessionID string, embedding []float32, topK int) ([]index.Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(embedding)
	rows, err := db.pool.Query(ctx,
		`SELECT seq, content, page, bbox_x0, bbox_y0, bbox_x1, bbox_y1, embedding, embedding <=> $2
		 FROM chunks
		 WHERE session_id = $1
		 ORDER BY embedding <=> $2, seq
		 LIMIT $3`,
		sessionID, vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []index.Result
	for rows.Next() {
		var res index.Result
		var emb pgvector.Vector
		if err := rows.Scan(
			&res.ID, &res.Text, &res.Page,
			&res.BBox.X0, &res.BBox.Y0, &res.BBox.X1, &res.BBox.Y1,
			&emb, &res.Distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		res.Embedding = emb.Slice()
		results = append(results, res)
	}
	return results, rows.Err()
}

// Has reports whether a collection exists for the session
func (db *DB) Has(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE session_id = $1)`,
		sessionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}
	return exists, nil
}

// Delete removes the collection and its chunks; reports whether anything
// existed. Deleting a missing collection is not an error.
func (db *DB) Delete(ctx context.Context, sessionID string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM collections WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete collection: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSessions enumerates session IDs with a collection
func (db *DB) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT session_id FROM collections ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
