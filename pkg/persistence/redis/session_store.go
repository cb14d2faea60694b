// Package redis provides the Redis-backed session store used in
// production. Idle expiry rides on key TTLs refreshed at every save.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botfluent/botfluent/pkg/persistence"
)

const keyPrefix = "botfluent:session:"

// SessionStore implements persistence.SessionStore on Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionStore connects to Redis. Every saved session lives for ttl
// after its last save.
func NewSessionStore(ctx context.Context, logger *slog.Logger, redisURL string, ttl time.Duration) (*SessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &SessionStore{
		client: client,
		ttl:    ttl,
		logger: logger.With("module", "persistence.redis"),
	}, nil
}

// SaveSession writes the record and refreshes its TTL.
func (s *SessionStore) SaveSession(ctx context.Context, record *persistence.SessionRecord) error {
	record.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", record.ID, err)
	}

	err = s.client.Set(ctx, keyPrefix+record.ID, payload, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", record.ID, err)
	}

	return nil
}

// SessionByID loads a record. An expired key reads as not found.
func (s *SessionStore) SessionByID(ctx context.Context, id string) (*persistence.SessionRecord, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var record persistence.SessionRecord

	err = json.Unmarshal(payload, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}

	return &record, nil
}

// DeleteSession removes a record. Deleting a missing record is not an
// error.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	err := s.client.Del(ctx, keyPrefix+id).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}

	return nil
}

// ExpireIdle is a no-op: the per-key TTL already drops idle sessions.
func (s *SessionStore) ExpireIdle(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

// Close closes the Redis connection.
func (s *SessionStore) Close(_ context.Context) error {
	err := s.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}

	return nil
}
