// Package lock serializes verifications per account so the balance and
// history snapshot cannot change between evaluation and the audit write.
package lock

import (
	"context"
	"errors"
	"time"
)

var ErrLockNotAcquired = errors.New("account lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func(ctx context.Context) error

type Locker interface {
	// Acquire blocks until the lock for key is held, ctx is done or the
	// locker's wait budget runs out. ttl bounds how long a crashed holder can
	// keep the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

func AccountKey(accountID string) string {
	return "txguard:lock:account:" + accountID
}
