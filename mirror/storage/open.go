package storage

import (
	"fmt"
	"strings"
)

// Backend type names accepted by Open
const (
	TypeMemory = "memory"
	TypeJSON   = "json"
	TypeSQLite = "sqlite"
)

// BackendTypes lists every name Open understands
var BackendTypes = []string{TypeJSON, TypeSQLite, TypeMemory}

// Open creates a backend by type name. path is ignored for memory.
func Open(backendType, path string) (Backend, error) {
	switch strings.ToLower(backendType) {
	case TypeMemory:
		return NewMemory(), nil
	case TypeJSON, "":
		if path == "" {
			return nil, fmt.Errorf("json backend requires a path")
		}
		return NewJSONFile(path), nil
	case TypeSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		db, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (expected one of %s)", backendType, strings.Join(BackendTypes, ", "))
	}
}
