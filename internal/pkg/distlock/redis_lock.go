package distlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces lock keys in a Redis shared with the dashboard cache
// and session store.
const KeyPrefix = "adlens:lock:"

// ErrNotHeld is returned by Extend when the lock expired or another holder
// took it.
var ErrNotHeld = errors.New("distlock: lock not held")

// ownerOp runs ARGV[2] ("del" or "pexpire") only while KEYS[1] still holds
// the caller's token.
var ownerOp = redis.NewScript(`
if redis.call("get", KEYS[1]) ~= ARGV[1] then
	return 0
end
if ARGV[2] == "del" then
	return redis.call("del", KEYS[1])
end
return redis.call("pexpire", KEYS[1], ARGV[3])
`)

var _ Extender = (*RedisLock)(nil)

// RedisLock is a SET NX PX lock tagged with a per-instance token.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock returns an unacquired lock on KeyPrefix+key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: KeyPrefix + key, token: uuid.NewString(), ttl: ttl}
}

// Acquire reports whether the lock was free and is now held.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release deletes the key if this instance still holds it. Releasing a lock
// held by someone else is a no-op.
func (l *RedisLock) Release(ctx context.Context) error {
	if _, err := l.owned(ctx, "del", 0); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// Extend resets the TTL of a held lock.
func (l *RedisLock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := l.owned(ctx, "pexpire", ttl)
	if err != nil {
		return fmt.Errorf("extend %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func (l *RedisLock) owned(ctx context.Context, op string, ttl time.Duration) (int64, error) {
	return ownerOp.Run(ctx, l.client, []string{l.key}, l.token, op, ttl.Milliseconds()).Int64()
}
