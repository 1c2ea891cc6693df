package storage

import (
	"context"
	"sync"
)

// StubLock is an in-process FileLock for tests. It can pretend another
// process holds the cache file, or that the lock file cannot be opened
// (read-only or disabled storage).
type StubLock struct {
	mu   sync.Mutex
	held bool

	// HeldElsewhere makes Acquire fail with ErrLockBusy
	HeldElsewhere bool
	// Err, when set, is returned from every Acquire
	Err error

	Acquires int
	Releases int
}

// Acquire implements FileLock.Acquire
func (s *StubLock) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Acquires++
	switch {
	case s.Err != nil:
		return s.Err
	case s.HeldElsewhere || s.held:
		return ErrLockBusy
	case ctx.Err() != nil:
		return ctx.Err()
	}
	s.held = true
	return nil
}

// Release implements FileLock.Release
func (s *StubLock) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Releases++
	s.held = false
	return nil
}

// Held reports whether this process currently holds the lock
func (s *StubLock) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// StubLockFactory hands out one StubLock per lock path. Settings on the
// factory apply to locks it creates afterwards.
type StubLockFactory struct {
	mu    sync.Mutex
	locks map[string]*StubLock

	HeldElsewhere bool
	Err           error
}

// NewStubLockFactory creates a factory whose locks always succeed
func NewStubLockFactory() *StubLockFactory {
	return &StubLockFactory{locks: make(map[string]*StubLock)}
}

// New implements FileLockFactory.New
func (f *StubLockFactory) New(path string) FileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lock, ok := f.locks[path]; ok {
		return lock
	}
	lock := &StubLock{HeldElsewhere: f.HeldElsewhere, Err: f.Err}
	f.locks[path] = lock
	return lock
}

// Lock returns the stub created for path, or nil
func (f *StubLockFactory) Lock(path string) *StubLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks[path]
}
