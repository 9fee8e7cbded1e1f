// Package redisstore keeps user preferences in Redis, one hash per user.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	// TTL expires a user's preferences after this long without writes. Zero keeps them forever.
	TTL time.Duration
}

// Store implements preferences.Store.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewClient creates a Redis client from cfg.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// New wraps client. An empty prefix defaults to "staffdesk".
func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "staffdesk"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Ping tests the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":prefs:" + userID
}

// Get returns the stored value of key for userID.
func (s *Store) Get(ctx context.Context, userID, key string) (json.RawMessage, bool, error) {
	raw, err := s.client.HGet(ctx, s.userKey(userID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return json.RawMessage(raw), true, nil
}

// Set stores value under key for userID and refreshes the TTL.
func (s *Store) Set(ctx context.Context, userID, key string, value json.RawMessage) error {
	hash := s.userKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, []byte(value))
		if s.ttl > 0 {
			pipe.Expire(ctx, hash, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

// Delete removes key for userID.
func (s *Store) Delete(ctx context.Context, userID, key string) error {
	if err := s.client.HDel(ctx, s.userKey(userID), key).Err(); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}
