package mocks

import (
	"context"
	"sync"
)

// MockLocker records lease activity and can be scripted to fail.
type MockLocker struct {
	mu         sync.Mutex
	AcquireErr error
	Acquired   []string
	Released   []string
}

// NewMockLocker creates an empty recording locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{}
}

// Acquire records the key and returns a release func that records again.
func (l *MockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.AcquireErr != nil {
		return nil, l.AcquireErr
	}
	l.Acquired = append(l.Acquired, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.Released = append(l.Released, key)
	}, nil
}
