package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis-backed blob store.
type RedisOptions struct {
	Addr string
	DB   int
	// Prefix is prepended to every key, e.g. "routine:".
	Prefix string
}

type redisBlobStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBlobStore creates a BlobStore that keeps each key as a Redis string.
func NewRedisBlobStore(opts RedisOptions) BlobStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	return &redisBlobStore{rdb: rdb, prefix: opts.Prefix}
}

func (s *redisBlobStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading blob %s from redis: %w", key, err)
	}
	return val, true, nil
}

func (s *redisBlobStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("writing blob %s to redis: %w", key, err)
	}
	return nil
}

func (s *redisBlobStore) Close() error {
	return s.rdb.Close()
}
