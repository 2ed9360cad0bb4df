// ABOUTME: File-backed Storage: every key lives in one JSON document inside a private directory
// ABOUTME: Each write replaces the whole document through a temp file and one rename

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the document FileStorage keeps inside its directory.
const FileName = "session.json"

// FileStorage keeps all keys in a single 0600 JSON file under one directory. A Set
// either replaces the file with every entry applied or leaves it as it was.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileStorage creates the directory (0700) if needed.
func NewFileStorage(dir string, logger *slog.Logger) (*FileStorage, error) {
	if dir == "" {
		return nil, errors.New("file storage directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	logger.Debug("file storage ready", "dir", dir)
	return &FileStorage{path: filepath.Join(dir, FileName), logger: logger}, nil
}

// load reads the document. A missing file is an empty one.
func (s *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", FileName, err)
	}
	return values, nil
}

func (s *FileStorage) Get(_ context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set merges entries into the document and writes it back in one rename.
func (s *FileStorage) Set(_ context.Context, entries map[string]string) error {
	for k := range entries {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		values[k] = v
	}
	return s.replace(values)
}

func (s *FileStorage) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	removed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", FileName, err)
		}
		return nil
	}
	return s.replace(values)
}

func (s *FileStorage) Close() error { return nil }

// replace writes values to a temp file and renames it over the document.
func (s *FileStorage) replace(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions on %s: %w", FileName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", FileName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", FileName, err)
	}
	s.logger.Debug("session file written", "keys", len(values))
	return nil
}
