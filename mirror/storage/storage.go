// Package storage provides the persistence layer for the task mirror.
//
// Data is laid out as a two-level map: user id, then collection kind, then
// the serialized collection. Backends never interpret the payload; the
// cache above them owns encoding, normalization and failure handling.
package storage

import (
	"errors"
	"fmt"
	"time"
)

// Kind names one collection inside a user's partition
type Kind string

const (
	// KindTasks holds the user's normalized task collection
	KindTasks Kind = "tasks"
	// KindProjects holds the user's project collection
	KindProjects Kind = "projects"
	// KindLastSync holds the epoch-millisecond time of the last full write
	KindLastSync Kind = "last_sync"
)

// Kinds lists every collection a partition may hold
var Kinds = []Kind{KindTasks, KindProjects, KindLastSync}

// ErrNotFound is returned by Read when a partition holds no such collection
var ErrNotFound = errors.New("collection not found")

// ErrEmptyUser is returned when an operation is attempted without a user id
var ErrEmptyUser = errors.New("user id is required")

// Backend defines the low-level persistence interface. Each call reads or
// writes one whole collection, which matches how the cache uses it: load the
// collection, modify it in memory, write it back.
type Backend interface {
	// Read returns the stored payload or ErrNotFound
	Read(userID string, kind Kind) ([]byte, error)

	// Write replaces the stored payload
	Write(userID string, kind Kind, data []byte) error

	// Clear removes every collection in the user's partition
	Clear(userID string) error

	// ClearAll removes every partition
	ClearAll() error

	// Close releases any resources held by the backend
	Close() error
}

// Metadata describes a persisted document of partitions
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// formatVersion is written into every file-backed store
const formatVersion = "1.0"

func checkUser(userID string) error {
	if userID == "" {
		return ErrEmptyUser
	}
	return nil
}

func notFound(userID string, kind Kind) error {
	return fmt.Errorf("%s for user %q: %w", kind, userID, ErrNotFound)
}
