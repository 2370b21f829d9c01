package rag

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps a copy of each uploaded document on disk for the lifetime
// of its session, at a path derived from the session id. The copy feeds
// page rendering and is removed with the rest of the session's state.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Init creates the storage directory
func (s *FileStore) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// Path returns the deterministic location of a session's document
func (s *FileStore) Path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".pdf")
}

// Save writes the uploaded bytes and returns their path
func (s *FileStore) Save(sessionID string, data []byte) (string, error) {
	path := s.Path(sessionID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}
	return path, nil
}

// Remove deletes the session's document; a missing file is not an error
func (s *FileStore) Remove(sessionID string) error {
	if err := os.Remove(s.Path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// Exists reports whether the session's document is on disk
func (s *FileStore) Exists(sessionID string) bool {
	_, err := os.Stat(s.Path(sessionID))
	return err == nil
}
