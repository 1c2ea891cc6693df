package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockBusy is returned when another process keeps the cache file locked
// past the wait deadline
var ErrLockBusy = errors.New("cache file is locked by another process")

// FileLock guards the cache file against other processes sharing it
type FileLock interface {
	// Acquire blocks until the lock is held, ctx is done or the lock
	// cannot be taken at all
	Acquire(ctx context.Context) error

	// Release gives the lock back
	Release() error
}

// FileLockFactory creates the lock for a cache file's lock path
type FileLockFactory interface {
	New(path string) FileLock
}

// flockLock is a FileLock over an OS advisory lock, polled until free
type flockLock struct {
	lock *flock.Flock
	poll time.Duration
}

func (l *flockLock) Acquire(ctx context.Context) error {
	locked, err := l.lock.TryLockContext(ctx, l.poll)
	if locked {
		return nil
	}
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", l.lock.Path(), ErrLockBusy)
	}
	return fmt.Errorf("lock %s: %w", l.lock.Path(), err)
}

func (l *flockLock) Release() error {
	return l.lock.Unlock()
}

// FlockFactory is the default factory, backed by gofrs/flock
type FlockFactory struct {
	// Poll is the retry interval while another process holds the lock
	Poll time.Duration
}

// New implements FileLockFactory.New
func (f FlockFactory) New(path string) FileLock {
	poll := f.Poll
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}
	return &flockLock{lock: flock.New(path), poll: poll}
}
