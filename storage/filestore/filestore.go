// Package filestore persists storage keys as a single JSON object on disk so
// client sessions survive a process restart without an external service.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-journal-auth/storage"
)

var _ storage.Storage = (*Store)(nil)

// Store keeps a copy of the file in memory and rewrites the whole file on every change.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries map[string]string
}

// New opens (or creates) the JSON file at path
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("[filestore.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("[filestore.New] create folder: %w", err)
	}

	s := &Store{path: path, entries: make(map[string]string)}

	blob, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("[filestore.New] read %s: %w", path, err)
	}

	if len(blob) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(blob, &s.entries); err != nil {
		return nil, fmt.Errorf("[filestore.New] decode %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.entries[key]
	s.entries[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.entries[key] = previous
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.entries[key]
	if !existed {
		return nil
	}
	delete(s.entries, key)
	if err := s.flush(); err != nil {
		s.entries[key] = previous
		return err
	}
	return nil
}

// flush writes to a temp file in the same folder and renames it over the target.
// Callers hold s.mu.
func (s *Store) flush() error {
	blob, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("[filestore] encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("[filestore] create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[filestore] write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[filestore] close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[filestore] replace %s: %w", s.path, err)
	}
	return nil
}
