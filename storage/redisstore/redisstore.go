// Package redisstore keeps storage keys in Redis so several server instances can
// share client sessions.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/storage"
)

// ErrRedisUnavailable is returned when a Redis command fails for a reason other than a missing key.
// It matches autherrors.ErrStorageUnavailable.
var ErrRedisUnavailable = fmt.Errorf("redis: %w", autherrors.ErrStorageUnavailable)

var _ storage.Storage = (*Store)(nil)

// Store maps each storage key to a plain Redis string under prefix.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a store on an existing client. An empty prefix stores keys as-is.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix != "" {
		prefix += ":"
	}
	return &Store{redis: client, prefix: prefix}
}

// Ping checks the server is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrRedisUnavailable, key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrRedisUnavailable, key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrRedisUnavailable, key, err)
	}
	return nil
}
