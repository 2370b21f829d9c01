// Package rag composes the per-session retrieval pipeline: extraction,
// chunking, embedding and indexing on ingestion; retrieval with citation
// formatting on query. All collaborators are injected once at startup.
package rag

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/embeddings"
	"github.com/docquery-ai/server/internal/index"
	"github.com/docquery-ai/server/internal/session"
)

// DefaultTopK is the default number of chunks retrieved per query.
const DefaultTopK = 3

// Service runs the ingestion and query pipelines for one process
type Service struct {
	extractor documents.Extractor
	chunker   *documents.Chunker
	embedder  embeddings.Embedder
	index     index.Index
	registry  session.Registry
	files     *FileStore
	composer  Composer
	topK      int
}

// NewService creates the retrieval service
func NewService(
	extractor documents.Extractor,
	chunker *documents.Chunker,
	embedder embeddings.Embedder,
	idx index.Index,
	registry session.Registry,
	files *FileStore,
	composer Composer,
	topK int,
) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     idx,
		registry:  registry,
		files:     files,
		composer:  composer,
		topK:      topK,
	}
}

// IngestResult summarizes a successful upload
type IngestResult struct {
	SessionID  string
	PageCount  int
	BlockCount int
	Pages      []documents.PageDimensions
}

// Ingest runs the upload pipeline: store the document, extract located
// blocks, chunk, embed, index, and register the session. If any step after
// the document is written fails, the file and any partially created
// collection are removed before the error is surfaced.
func (s *Service) Ingest(ctx context.Context, documentName string, data []byte) (*IngestResult, error) {
	sessionID := uuid.NewString()

	path, err := s.files.Save(sessionID, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	result, err := s.ingest(ctx, sessionID, documentName, path)
	if err != nil {
		// rollback must outlive the request's context: the session is not
		// registered yet, so anything left behind is invisible to the sweeper
		cleanupCtx := context.WithoutCancel(ctx)
		if _, derr := s.index.Delete(cleanupCtx, sessionID); derr != nil {
			log.Printf("ingest: failed to roll back collection for %s: %v", sessionID, derr)
		}
		if rerr := s.files.Remove(sessionID); rerr != nil {
			log.Printf("ingest: failed to roll back document for %s: %v", sessionID, rerr)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) ingest(ctx context.Context, sessionID, documentName, path string) (*IngestResult, error) {
	blocks, pages, err := s.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, ErrEmptyDocument
	}

	chunks := s.chunker.Chunk(blocks)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := s.index.Create(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	if err := s.index.Add(ctx, sessionID, chunks, vectors); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	if err := s.registry.Register(ctx, sessionID, documentName); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	dims := make([]documents.PageDimensions, 0, len(pages))
	for _, d := range pages {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i].Page < dims[j].Page })

	return &IngestResult{
		SessionID:  sessionID,
		PageCount:  len(pages),
		BlockCount: len(chunks),
		Pages:      dims,
	}, nil
}

// QueryResult carries the composed answer and its citations
type QueryResult struct {
	Answer    string
	Citations []Citation
}

// Query runs the retrieval pipeline for one question. Zero retrieved
// results produce a well-formed "no relevant information" answer with an
// empty citation list, not an error.
func (s *Service) Query(ctx context.Context, sessionID, query string) (*QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ok, err := s.index.Has(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	if err := s.registry.Touch(ctx, sessionID); err != nil {
		// The collection exists, so keep serving; the stores reconverge
		// on the next register or sweep.
		log.Printf("query: failed to touch session %s: %v", sessionID, err)
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.index.Query(ctx, sessionID, vec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if len(results) == 0 {
		return &QueryResult{
			Answer:    "I couldn't find any relevant information in the document for your query.",
			Citations: []Citation{},
		}, nil
	}

	citations := make([]Citation, 0, len(results))
	for i, res := range results {
		citations = append(citations, Citation{
			ID:   i + 1,
			Text: res.Text,
			Page: res.Page,
			BBox: res.BBox,
		})
	}

	answer, err := s.composer.Compose(ctx, query, citations)
	if err != nil {
		return nil, fmt.Errorf("failed to compose answer: %w", err)
	}

	return &QueryResult{Answer: answer, Citations: citations}, nil
}

// Status reports whether the session is active, refreshing its access time
func (s *Service) Status(ctx context.Context, sessionID string) error {
	ok, err := s.index.Has(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	if err := s.registry.Touch(ctx, sessionID); err != nil {
		log.Printf("status: failed to touch session %s: %v", sessionID, err)
	}
	return nil
}

// DocumentPath returns the stored document's location for page rendering
func (s *Service) DocumentPath(sessionID string) string {
	return s.files.Path(sessionID)
}

// Reclaim tears down one session's state: collection, stored document,
// registry row, in that order. Every step is idempotent; the registry row
// goes last so a partial failure leaves the session visible for retry.
// Satisfies session.Reclaimer.
func (s *Service) Reclaim(ctx context.Context, sessionID string) error {
	if _, err := s.index.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if err := s.files.Remove(sessionID); err != nil {
		return err
	}
	if err := s.registry.Remove(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to remove session row: %w", err)
	}
	return nil
}
