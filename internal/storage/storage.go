// ABOUTME: Durable key-value storage interface for the console session
// ABOUTME: Holds the token and serialized user profile across process restarts

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/workshop/kgconsole/internal/config"
)

// ErrNotFound is returned by Get when a key has no value
var ErrNotFound = errors.New("not found")

// ErrInvalidKey is returned when a key contains characters a backend cannot store
var ErrInvalidKey = errors.New("invalid key")

// Storage is a small durable key-value store. Reads reflect the last completed write.
type Storage interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes all entries. Backends apply them as one unit where they can.
	Set(ctx context.Context, entries map[string]string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateKey rejects keys that are empty or could escape a file backend's directory.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// sortedKeys returns map keys in a stable order so writes are deterministic.
func sortedKeys(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "storage", "driver", cfg.Driver)

	switch cfg.Driver {
	case config.StorageDriverFile, "":
		return NewFileStorage(cfg.Path, logger)
	case config.StorageDriverSQLite:
		return NewSQLiteStorage(cfg.Path, logger)
	case config.StorageDriverRedis:
		return NewRedisStorage(ctx, RedisOptions{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: cfg.RedisPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Memory is an in-process Storage.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, entries map[string]string) error {
	for k := range entries {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.values[k] = v
	}
	m.writes++
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Writes returns how many Set calls have completed.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
