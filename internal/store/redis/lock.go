package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unlockTimeout = 2 * time.Second

// unlockScript deletes the lock only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock takes the probe lock of a session with SET NX, so replicas sharing
// this Redis never probe the same session at once.
func (s *Store) TryLock(ctx context.Context, id string, ttl time.Duration) (func(), bool, error) {
	key := LockKey(id)
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to take lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
		defer cancel()
		_ = unlockScript.Run(uctx, s.client, []string{key}, token).Err()
	}
	return unlock, true, nil
}
