package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/embeddings"
)

// Memory is an in-process Index using brute-force cosine ranking. It backs
// single-process deployments and tests; the pgvector implementation in
// internal/db is the durable path. The collection map has its own lock so
// operations on different sessions never serialize on record access.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemory creates an empty in-memory index
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*collection)}
}

// Create replaces any existing collection with a fresh empty one
func (m *Memory) Create(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[sessionID] = &collection{}
	return nil
}

// Add appends records, creating the collection if needed
func (m *Memory) Add(_ context.Context, sessionID string, blocks []documents.TextBlock, vectors [][]float32) error {
	if len(blocks) != len(vectors) {
		return fmt.Errorf("blocks and embeddings length mismatch: %d != %d", len(blocks), len(vectors))
	}

	m.mu.Lock()
	col, ok := m.collections[sessionID]
	if !ok {
		col = &collection{}
		m.collections[sessionID] = col
	}
	m.mu.Unlock()

	col.mu.Lock()
	defer col.mu.Unlock()
	for i, block := range blocks {
		col.records = append(col.records, Record{
			ID:        len(col.records),
			Text:      block.Text,
			Page:      block.Page,
			BBox:      block.BBox,
			Embedding: vectors[i],
		})
	}
	return nil
}

// Query ranks the session's records by cosine distance
func (m *Memory) Query(_ context.Context, sessionID string, embedding []float32, topK int) ([]Result, error) {
	m.mu.RLock()
	col, ok := m.collections[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if topK <= 0 {
		return nil, nil
	}

	col.mu.RLock()
	results := make([]Result, 0, len(col.records))
	for _, rec := range col.records {
		results = append(results, Result{
			Record:   rec,
			Distance: 1 - embeddings.Similarity(rec.Embedding, embedding),
		})
	}
	col.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Has reports whether the session has a collection
func (m *Memory) Has(_ context.Context, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[sessionID]
	return ok, nil
}

// Delete removes the session's collection if present
func (m *Memory) Delete(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.collections[sessionID]
	delete(m.collections, sessionID)
	return ok, nil
}

// ListSessions enumerates sessions with a collection
func (m *Memory) ListSessions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.collections))
	for id := range m.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
