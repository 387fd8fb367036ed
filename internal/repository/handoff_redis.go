package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizrunner/internal/config"
)

// RedisHandoffRepository keeps handoff payloads in Redis with a TTL.
type RedisHandoffRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisHandoffRepository creates a new RedisHandoffRepository.
func NewRedisHandoffRepository(rdb *redis.Client, ttl time.Duration) *RedisHandoffRepository {
	return &RedisHandoffRepository{rdb: rdb, ttl: ttl}
}

// Put stores payload under a new id.
func (r *RedisHandoffRepository) Put(ctx context.Context, payload []byte) (string, error) {
	id := newHandoffID()
	if err := r.rdb.Set(ctx, config.CacheKey.HandoffKey(id), payload, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("store handoff: %w", err)
	}
	return id, nil
}

// Take atomically reads and deletes the payload.
func (r *RedisHandoffRepository) Take(ctx context.Context, id string) ([]byte, error) {
	id, err := parseHandoffID(id)
	if err != nil {
		return nil, err
	}

	payload, err := r.rdb.GetDel(ctx, config.CacheKey.HandoffKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrHandoffNotFound
		}
		return nil, fmt.Errorf("take handoff: %w", err)
	}
	return payload, nil
}
