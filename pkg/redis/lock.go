package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when another holder has the lease.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lease only when the stored token is still ours,
// so a holder whose TTL lapsed cannot delete a successor's lease.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker hands out short-lived SET NX leases keyed by tracked query.
type Locker struct {
	client *Client
	prefix string
}

// NewLocker creates a new Locker. All lease keys share the prefix.
func NewLocker(client *Client, prefix string) *Locker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &Locker{client: client, prefix: prefix}
}

// WithLock runs fn while holding the named lease. When the lease is already
// held elsewhere it returns ErrLockNotAcquired without running fn. The lease
// is released on return; a lease that outlived its TTL is left to its new
// holder.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	leaseKey := l.prefix + key
	token := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, leaseKey, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		released, err := releaseScript.Run(ctx, l.client.rdb, []string{leaseKey}, token).Int64()
		if err != nil {
			l.client.logger.WithContext(ctx).WithError(err).Warnf("Failed to release lease %s", leaseKey)
			return
		}
		if released == 0 {
			l.client.logger.WithContext(ctx).Warnf("Lease %s expired before release", leaseKey)
		}
	}()

	return fn()
}
