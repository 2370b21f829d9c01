// Package server is the thin HTTP transport over the retrieval service.
// Handlers validate and marshal; all pipeline behavior lives in rag.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/rag"
	"github.com/docquery-ai/server/internal/session"
)

// DefaultMaxUploadBytes caps upload size at 1 MiB.
const DefaultMaxUploadBytes = 1 << 20

// Server exposes the retrieval pipeline over HTTP
type Server struct {
	svc            *rag.Service
	renderer       documents.PageRenderer
	registry       session.Registry
	maxUploadBytes int64
}

// New creates the HTTP server
func New(svc *rag.Service, renderer documents.PageRenderer, registry session.Registry, maxUploadBytes int64) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		svc:            svc,
		renderer:       renderer,
		registry:       registry,
		maxUploadBytes: maxUploadBytes,
	}
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/session/{id}", s.handleStatus)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/session/{id}/page/{page}", s.handlePage)
	return mux
}

type pageDimensionResponse struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type uploadResponse struct {
	SessionID      string                  `json:"session_id"`
	Message        string                  `json:"message"`
	PageCount      int                     `json:"page_count"`
	BlockCount     int                     `json:"block_count"`
	PageDimensions []pageDimensionResponse `json:"page_dimensions"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type chatResponse struct {
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.registry.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"service":         "docquery",
		"active_sessions": count,
	})
}

// handleUpload validates the upload before any processing begins: file
// type, emptiness and the size cap are all enforced here, so a rejected
// request never leaves a stored document behind.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+(64<<10))
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %d bytes", s.maxUploadBytes))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/pdf" {
		writeError(w, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if int64(len(data)) > s.maxUploadBytes {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %d bytes", s.maxUploadBytes))
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "File is empty")
		return
	}

	result, err := s.svc.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrEmptyDocument):
			writeError(w, http.StatusBadRequest, "No text content found in PDF")
		case errors.Is(err, documents.ErrUnparsable):
			writeError(w, http.StatusBadRequest, "Failed to parse PDF")
		default:
			log.Printf("upload: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to process PDF")
		}
		return
	}

	dims := make([]pageDimensionResponse, 0, len(result.Pages))
	for _, d := range result.Pages {
		dims = append(dims, pageDimensionResponse{Page: d.Page, Width: d.Width, Height: d.Height})
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		SessionID:      result.SessionID,
		Message:        "PDF processed successfully",
		PageCount:      result.PageCount,
		BlockCount:     result.BlockCount,
		PageDimensions: dims,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.svc.Query(r.Context(), req.SessionID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "Query cannot be empty")
		case errors.Is(err, rag.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "Session not found. Please upload a PDF first.")
		default:
			log.Printf("chat: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to answer query")
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Answer: result.Answer, Citations: result.Citations})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := s.svc.Status(r.Context(), sessionID); err != nil {
		if errors.Is(err, rag.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found or expired")
			return
		}
		log.Printf("status: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to check session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "status": "active"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := s.svc.Reclaim(r.Context(), sessionID); err != nil {
		log.Printf("delete: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "status": "deleted"})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	if err := s.svc.Status(r.Context(), sessionID); err != nil {
		if errors.Is(err, rag.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found or expired")
			return
		}
		log.Printf("page: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to check session")
		return
	}

	png, err := s.renderer.RenderPage(s.svc.DocumentPath(sessionID), page)
	if err != nil {
		if errors.Is(err, documents.ErrPageOutOfRange) {
			writeError(w, http.StatusNotFound, "Page not found")
			return
		}
		log.Printf("page: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
