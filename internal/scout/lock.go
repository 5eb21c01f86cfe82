package scout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards against two concurrent runs for the same user racing on the
// dedup reference sets (both would read the same "existing" set before
// either writes).
type Locker interface {
	// Acquire returns false when another run already holds the lock.
	Acquire(ctx context.Context, userID, runID string) (bool, error)
	Release(ctx context.Context, userID string)
}

// runLockTTL bounds how long a crashed run can hold its lock.
const runLockTTL = 15 * time.Minute

// RedisLock is a per-user advisory lock on SETNX.
type RedisLock struct {
	rdb *redis.Client
}

// NewRedisLock constructs a RedisLock.
func NewRedisLock(rdb *redis.Client) *RedisLock {
	return &RedisLock{rdb: rdb}
}

func lockKey(userID string) string {
	return fmt.Sprintf("scout:run-lock:%s", userID)
}

// Acquire implements Locker.
func (l *RedisLock) Acquire(ctx context.Context, userID, runID string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(userID), runID, runLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return ok, nil
}

// Release implements Locker. Best-effort: an expired lock is already gone.
func (l *RedisLock) Release(ctx context.Context, userID string) {
	l.rdb.Del(ctx, lockKey(userID))
}
