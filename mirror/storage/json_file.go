package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONFileOption configures a JSONFile backend
type JSONFileOption func(*JSONFile)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) JSONFileOption {
	return func(s *JSONFile) {
		s.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) JSONFileOption {
	return func(s *JSONFile) {
		s.lockFactory = factory
	}
}

// WithTimeFunc sets the clock used for document metadata
func WithTimeFunc(fn func() time.Time) JSONFileOption {
	return func(s *JSONFile) {
		s.timeFunc = fn
	}
}

// WithLockTimeout bounds how long a call waits for another process to
// release the cache file
func WithLockTimeout(d time.Duration) JSONFileOption {
	return func(s *JSONFile) {
		s.lockTimeout = d
	}
}

const defaultLockTimeout = 3 * time.Second

// errCorrupt marks a cache file that exists but cannot be parsed
var errCorrupt = errors.New("cache file is corrupt")

// jsonDocument is the on-disk layout: one document holding every partition
type jsonDocument struct {
	Metadata   Metadata                            `json:"metadata"`
	Partitions map[string]map[Kind]json.RawMessage `json:"partitions"`
}

// JSONFile is a Backend persisting all partitions in a single JSON file.
// Every call re-reads the file under an OS file lock, so several processes
// can share one cache file. Writes go to a temp file that is renamed into
// place, so a crash never leaves a half-written cache behind.
// Payloads must be valid JSON.
type JSONFile struct {
	filePath    string
	mu          sync.Mutex
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	timeFunc    func() time.Time
	lockTimeout time.Duration
}

// NewJSONFile creates a JSON file backend at filePath. The parent directory
// is created on first use and the file itself on first write.
func NewJSONFile(filePath string, opts ...JSONFileOption) *JSONFile {
	s := &JSONFile{
		filePath:    filePath,
		timeFunc:    time.Now,
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Set defaults for dependencies not provided via options
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	s.fileLock = s.lockFactory.New(filePath + ".lock")
	return s
}

// Path returns the cache file location
func (s *JSONFile) Path() string {
	return s.filePath
}

// Read implements Backend.Read
func (s *JSONFile) Read(userID string, kind Kind) ([]byte, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}

	var payload json.RawMessage
	err := s.withLock(func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		data, ok := doc.Partitions[userID][kind]
		if !ok {
			return notFound(userID, kind)
		}
		payload = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The file is indented for readability; hand back the compact form
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", errCorrupt, userID, kind, err)
	}
	return buf.Bytes(), nil
}

// Write implements Backend.Write
func (s *JSONFile) Write(userID string, kind Kind, data []byte) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("refusing to store %s for user %q: payload is not valid JSON", kind, userID)
	}

	return s.withLock(func() error {
		doc, err := s.loadForWrite()
		if err != nil {
			return err
		}

		partition, ok := doc.Partitions[userID]
		if !ok {
			partition = make(map[Kind]json.RawMessage)
			doc.Partitions[userID] = partition
		}
		stored := make(json.RawMessage, len(data))
		copy(stored, data)
		partition[kind] = stored

		return s.save(doc)
	})
}

// Clear implements Backend.Clear
func (s *JSONFile) Clear(userID string) error {
	if err := checkUser(userID); err != nil {
		return err
	}

	return s.withLock(func() error {
		doc, err := s.loadForWrite()
		if err != nil {
			return err
		}
		if _, ok := doc.Partitions[userID]; !ok {
			return nil
		}
		delete(doc.Partitions, userID)
		return s.save(doc)
	})
}

// ClearAll implements Backend.ClearAll
func (s *JSONFile) ClearAll() error {
	return s.withLock(func() error {
		return s.save(s.emptyDocument())
	})
}

// Close implements Backend.Close. The file lock is only held during calls.
func (s *JSONFile) Close() error {
	return nil
}

// withLock runs fn holding both the in-process mutex and the file lock
func (s *JSONFile) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The lock file lives next to the cache file, so the directory must exist first
	if dir := filepath.Dir(s.filePath); dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	if err := s.fileLock.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = s.fileLock.Release() }()

	return fn()
}

func (s *JSONFile) emptyDocument() *jsonDocument {
	now := s.timeFunc()
	return &jsonDocument{
		Metadata: Metadata{
			Version:   formatVersion,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Partitions: make(map[string]map[Kind]json.RawMessage),
	}
}

// load reads the cache file. Caller must hold the lock.
func (s *JSONFile) load() (*jsonDocument, error) {
	if _, err := s.fs.Stat(s.filePath); errors.Is(err, os.ErrNotExist) {
		return s.emptyDocument(), nil
	}

	data, err := s.fs.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Empty file is OK
	if len(data) == 0 {
		return s.emptyDocument(), nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorrupt, s.filePath, err)
	}
	if doc.Partitions == nil {
		doc.Partitions = make(map[string]map[Kind]json.RawMessage)
	}
	return &doc, nil
}

// loadForWrite is load, except a corrupt file is replaced by an empty
// document. Its contents are unrecoverable either way.
func (s *JSONFile) loadForWrite() (*jsonDocument, error) {
	doc, err := s.load()
	if errors.Is(err, errCorrupt) {
		return s.emptyDocument(), nil
	}
	return doc, err
}

// save writes doc atomically. Caller must hold the lock.
func (s *JSONFile) save(doc *jsonDocument) error {
	doc.Metadata.UpdatedAt = s.timeFunc()
	if doc.Metadata.Version == "" {
		doc.Metadata.Version = formatVersion
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := s.fs.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Rename is atomic on most filesystems
	if err := s.fs.Rename(tmpFile, s.filePath); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
