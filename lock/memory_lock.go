package lock

import (
	"context"
	"sync"
)

// MemoryLocker implements Locker within one process
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewMemoryLocker creates a new in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held: make(map[string]chan struct{}),
	}
}

// Initialize performs any necessary setup for the locker
func (l *MemoryLocker) Initialize() error {
	return nil
}

// Acquire blocks until key is free or ctx is done
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Release, error) {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return l.releaser(key, done), nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-released:
		}
	}
}

func (l *MemoryLocker) releaser(key string, done chan struct{}) Release {
	var once sync.Once
	return func() error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, key)
			close(done)
		})
		return nil
	}
}
