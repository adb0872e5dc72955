// Package session keeps search sessions between the search and probe
// requests that act on them.
package session

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// Store persists sessions until they expire.
//
// Get returns a copy; callers mutate it and Save it back.
// Unknown and expired sessions yield domain.ErrSessionNotFound.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Locker is implemented by stores shared between processes. TryLock claims
// name for at most ttl; ok is false when another holder has it. unlock is
// safe to call after the lock expired.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(), ok bool, err error)
}
