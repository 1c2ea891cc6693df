package storage

import (
	"sync"
)

// Memory is an in-process Backend. It is the default for tests and for
// callers that only need the cache for the life of the process.
//
// ReadError and WriteError, when set, are returned from every Read and
// Write so tests can simulate a broken or full store.
type Memory struct {
	mu         sync.RWMutex
	partitions map[string]map[Kind][]byte

	ReadError  error
	WriteError error
}

// NewMemory creates an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{
		partitions: make(map[string]map[Kind][]byte),
	}
}

// Read implements Backend.Read
func (m *Memory) Read(userID string, kind Kind) ([]byte, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if m.ReadError != nil {
		return nil, m.ReadError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.partitions[userID][kind]
	if !ok {
		return nil, notFound(userID, kind)
	}

	// Return a copy so callers cannot mutate stored bytes
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write implements Backend.Write
func (m *Memory) Write(userID string, kind Kind, data []byte) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if m.WriteError != nil {
		return m.WriteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	partition, ok := m.partitions[userID]
	if !ok {
		partition = make(map[Kind][]byte)
		m.partitions[userID] = partition
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	partition[kind] = stored
	return nil
}

// Clear implements Backend.Clear
func (m *Memory) Clear(userID string) error {
	if err := checkUser(userID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.partitions, userID)
	return nil
}

// ClearAll implements Backend.ClearAll
func (m *Memory) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitions = make(map[string]map[Kind][]byte)
	return nil
}

// Close implements Backend.Close
func (m *Memory) Close() error {
	return nil
}

// Put stores raw bytes without validation, for seeding corrupt payloads in tests
func (m *Memory) Put(userID string, kind Kind, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	partition, ok := m.partitions[userID]
	if !ok {
		partition = make(map[Kind][]byte)
		m.partitions[userID] = partition
	}
	partition[kind] = data
}

// Users returns the ids of every user with a stored partition
func (m *Memory) Users() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]string, 0, len(m.partitions))
	for user := range m.partitions {
		users = append(users, user)
	}
	return users
}
