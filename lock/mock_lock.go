package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrMockLock is returned when the mock locker is configured to fail
var ErrMockLock = errors.New("mock lock failed")

// MockLocker is a locker that can be used for testing. It never blocks.
type MockLocker struct {
	mu           sync.Mutex
	AcquireCalls int
	ReleaseCalls int
	InitCalls    int
	Keys         []string
	ShouldFail   bool
}

// NewMockLocker creates a new mock locker
func NewMockLocker() *MockLocker {
	return &MockLocker{}
}

// Initialize performs any necessary setup for the locker
func (l *MockLocker) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.InitCalls++
	if l.ShouldFail {
		return ErrMockLock
	}
	return nil
}

// Acquire records key and hands back a counting release
func (l *MockLocker) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.AcquireCalls++
	if l.ShouldFail {
		return nil, ErrMockLock
	}
	l.Keys = append(l.Keys, key)
	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.ReleaseCalls++
		return nil
	}, nil
}

// GetCallCounts returns the number of times each method was called
func (l *MockLocker) GetCallCounts() (acquire, release, init int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.AcquireCalls, l.ReleaseCalls, l.InitCalls
}

// SetShouldFail makes the mock locker fail all operations
func (l *MockLocker) SetShouldFail(shouldFail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ShouldFail = shouldFail
}
