package storage

import "sync"

// PartitionLocks serializes read-modify-write cycles per user partition.
// Operations on different users run concurrently; operations that span
// every partition (ClearAll) exclude all of them.
type PartitionLocks struct {
	all sync.RWMutex

	mu    sync.Mutex
	users map[string]*sync.RWMutex
}

// NewPartitionLocks creates an empty lock set
func NewPartitionLocks() *PartitionLocks {
	return &PartitionLocks{users: make(map[string]*sync.RWMutex)}
}

func (l *PartitionLocks) user(userID string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.users[userID]
	if !ok {
		m = &sync.RWMutex{}
		l.users[userID] = m
	}
	return m
}

// Read runs fn sharing userID's partition with other readers
func (l *PartitionLocks) Read(userID string, fn func()) {
	l.all.RLock()
	defer l.all.RUnlock()
	m := l.user(userID)
	m.RLock()
	defer m.RUnlock()
	fn()
}

// Write runs fn holding userID's partition exclusively
func (l *PartitionLocks) Write(userID string, fn func()) {
	l.all.RLock()
	defer l.all.RUnlock()
	m := l.user(userID)
	m.Lock()
	defer m.Unlock()
	fn()
}

// WriteAll runs fn with every partition locked
func (l *PartitionLocks) WriteAll(fn func()) {
	l.all.Lock()
	defer l.all.Unlock()
	fn()
}
