// Package redis implements ports.RunStore on Redis, for deployments where
// the serve-mode dashboard endpoints must survive orchestrator restarts.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/gantry/pkg/domain"
)

// Store persists run records as JSON values plus a ZSET recency index.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for run records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for run records.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "gantry:run:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the run record.
func (s *Store) Save(ctx context.Context, result *domain.RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(result.RunID), data, s.ttl)

	// Recency index: score by start time so List can return newest first.
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(result.Started.UnixNano()),
		Member: result.RunID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a run record.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunResult, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result domain.RunResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &result, nil
}

// List returns run IDs, most recent first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	runs, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
