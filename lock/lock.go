// Package lock serializes work on a key across callers. Reorders of the same
// parent scope race at the database otherwise.
package lock

import (
	"context"
	"errors"
	"os"
	"time"
)

const (
	defaultTTL           = 30 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
)

// ErrLockLost is returned on release when the lock expired and was taken
// by another holder
var ErrLockLost = errors.New("lock lost before release")

// Release gives a held lock back
type Release func() error

// Locker defines the interface for lock implementations.
type Locker interface {
	// Initialize performs any necessary setup for the locker.
	// This may include establishing connections or creating tables.
	// Returns an error if initialization fails.
	Initialize() error

	// Acquire blocks until key is held or ctx is done.
	// Parameters:
	//   - ctx: bounds how long to wait
	//   - key: the resource to lock
	// Returns:
	//   - A Release that must be called once the work is done
	//   - ctx.Err() if the lock could not be taken in time
	Acquire(ctx context.Context, key string) (Release, error)
}

// NewFromEnv picks Redis when REDIS_HOST is set, DynamoDB when
// LOCK_DYNAMODB_TABLE is set and an in-process lock otherwise.
func NewFromEnv(ctx context.Context) (Locker, error) {
	if os.Getenv("REDIS_HOST") != "" {
		return NewRedisLocker(), nil
	}
	if table := os.Getenv("LOCK_DYNAMODB_TABLE"); table != "" {
		return NewDynamoDBLocker(ctx, table)
	}
	return NewMemoryLocker(), nil
}

// wait sleeps for d unless ctx is done first
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
