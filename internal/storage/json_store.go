// Package storage persists in-memory state as a JSON snapshot on local disk.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore reads and writes one snapshot file. Writes go through a temp file
// and a rename so a crash never leaves a half-written snapshot behind.
type JSONStore struct {
	mu       sync.Mutex
	filePath string
}

func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONStore{filePath: filepath.Join(dataDir, filename)}, nil
}

func (s *JSONStore) Path() string {
	return s.filePath
}

// Load decodes the snapshot into v. It reports false when no snapshot exists yet.
func (s *JSONStore) Load(v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return false, fmt.Errorf("decode %s: %w", s.filePath, err)
	}
	return true, nil
}

func (s *JSONStore) Save(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.filePath)
}
