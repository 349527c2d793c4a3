package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when a lock stays held by someone else until the wait budget runs out.
var ErrNotAcquired = errors.New("lock not acquired")

// Release frees a held lock. Releasing an expired lock is not an error.
type Release func(ctx context.Context) error

// Locker hands out short-lived advisory locks keyed by name.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// RegistrationKey is the advisory lock name guarding seat allocation for a batch.
func RegistrationKey(batchID string) string {
	return "registration:" + batchID
}
