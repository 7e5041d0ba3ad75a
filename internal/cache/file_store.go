package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the name of the record file inside the data directory.
const FileName = "cache.json"

// FileStore keeps the record as a JSON file.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore returns a store writing into dir. The directory is created on
// the first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the record file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load reads the record. ErrNotFound is returned when the file doesn't exist.
func (s *FileStore) Load() (CacheInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CacheInfo{}, ErrNotFound
		}
		return CacheInfo{}, fmt.Errorf("failed to read cache file: %w", err)
	}
	return decode(data)
}

// Save writes the record, replacing the file atomically.
func (s *FileStore) Save(info CacheInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func decode(data []byte) (CacheInfo, error) {
	var info CacheInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return CacheInfo{}, fmt.Errorf("failed to parse cache record: %w", err)
	}
	return info, nil
}
