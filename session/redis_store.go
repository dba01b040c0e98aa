// Package session persists editing sessions (version history snapshots) in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lyricsync-api-go/circuitbreaker"
	"lyricsync-api-go/versions"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found or expired")

const defaultTTL = 24 * time.Hour

// RedisStore keeps one JSON snapshot per session id with a sliding TTL
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(redisURL string, ttl time.Duration, breaker *circuitbreaker.CircuitBreaker) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl, breaker), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
// A nil breaker gets a default one.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, breaker *circuitbreaker.CircuitBreaker) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.Config{Name: "Redis"})
	}
	return &RedisStore{
		client:  client,
		prefix:  "session:",
		ttl:     ttl,
		breaker: breaker,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save writes the snapshot and refreshes the TTL
func (s *RedisStore) Save(ctx context.Context, id string, snap versions.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.breaker.Execute(func() error {
		return s.client.Set(ctx, s.key(id), data, s.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the snapshot for id, or ErrNotFound
func (s *RedisStore) Load(ctx context.Context, id string) (versions.Snapshot, error) {
	var data []byte
	err := s.breaker.Execute(func() error {
		var err error
		data, err = s.client.Get(ctx, s.key(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			// A missing key is an answer, not a backend failure
			return nil
		}
		return err
	})
	if err != nil {
		return versions.Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return versions.Snapshot{}, ErrNotFound
	}

	var snap versions.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return versions.Snapshot{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return snap, nil
}

// Delete removes a session; deleting a missing session is not an error
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	err := s.breaker.Execute(func() error {
		return s.client.Del(ctx, s.key(id)).Err()
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Persister binds Save to one session id for versions.WithPersister
func (s *RedisStore) Persister(ctx context.Context, id string) versions.Persister {
	return versions.PersisterFunc(func(snap versions.Snapshot) error {
		return s.Save(ctx, id, snap)
	})
}

// Breaker exposes the circuit breaker guarding Redis calls
func (s *RedisStore) Breaker() *circuitbreaker.CircuitBreaker {
	return s.breaker
}

// TTL returns how long an untouched session lives
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
