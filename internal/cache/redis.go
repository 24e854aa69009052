package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/scene-lint/internal/report"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when no report is stored under the key
var ErrCacheMiss = errors.New("report cache miss")

const keyPrefix = "scene-lint:report:"

// Store keeps finished reports keyed by an input digest
type Store interface {
	Get(ctx context.Context, key string) (*report.Report, error)
	Put(ctx context.Context, key string, r *report.Report) error
	Close() error
}

// RedisStore implements Store on Redis
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Debug("Connected to Redis for report cache", "addr", opt.Addr)

	return &RedisStore{
		client: rdb,
		logger: logger,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*report.Report, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Debug("Report cache miss", "key", key)
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var r report.Report
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	s.logger.Debug("Report cache hit", "key", key)
	return &r, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	s.logger.Debug("Report cached", "key", key, "ttl", s.ttl)
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}
