package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// DefaultSessionTTL applies to sessions saved without an expiry.
const DefaultSessionTTL = time.Hour

// Store keeps sessions in Redis as JSON values.
// Each key carries a TTL matching the session expiry, so Redis evicts
// expired sessions on its own.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis session store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// Save stores a session, resetting its TTL to the time left until ExpiresAt
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	ttl := DefaultSessionTTL
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return domain.ErrSessionNotFound
		}
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, SessionKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}

	return &sess, nil
}

// Delete removes a session
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count returns the number of session keys currently held
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, SessionPattern(), 0).Iterator()
	for iter.Next(ctx) {
		if _, err := ExtractSessionID(iter.Val()); err == nil {
			n++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Ping checks that Redis answers
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
