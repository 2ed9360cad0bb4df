// ABOUTME: Redis implementation of Storage using go-redis
// ABOUTME: Keys are namespaced with a prefix; multi-key writes use MULTI/EXEC

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures NewRedisStorage
type RedisOptions struct {
	Addr   string
	DB     int
	Prefix string
	// Client, when set, is used instead of dialing Addr. It is not closed by Close.
	Client redis.UniversalClient
}

// RedisStorage implements Storage on a Redis server, for consoles that share a session
// across hosts.
type RedisStorage struct {
	rdb    redis.UniversalClient
	prefix string
	owned  bool
	logger *slog.Logger
}

// NewRedisStorage connects and pings the server.
func NewRedisStorage(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &RedisStorage{prefix: opts.Prefix, logger: logger}
	if opts.Client != nil {
		s.rdb = opts.Client
	} else {
		if opts.Addr == "" {
			return nil, errors.New("redis address is required")
		}
		s.rdb = redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB})
		s.owned = true
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.rdb.Ping(pingCtx).Err(); err != nil {
		if s.owned {
			s.rdb.Close()
		}
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Debug("redis storage ready", "addr", opts.Addr, "prefix", opts.Prefix)
	return s, nil
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStorage) Set(ctx context.Context, entries map[string]string) error {
	for k := range entries {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range sortedKeys(entries) {
			pipe.Set(ctx, s.key(k), entries[k], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing session keys: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("deleting session keys: %w", err)
	}
	return nil
}

// Close closes the client if this storage dialed it.
func (s *RedisStorage) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}
