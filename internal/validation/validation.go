package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyUserID is returned for operations without a partition key
var ErrEmptyUserID = errors.New("user id cannot be empty")

// Known configuration values
var (
	BackendTypes  = []string{"memory", "json", "sqlite"}
	OutputFormats = []string{"table", "json", "yaml"}
	MergePolicies = []string{"last-write-wins", "lww", "server-authority", "server"}
)

// Config holds the settings the CLI resolves from flags, env and files
type Config struct {
	Backend string
	Path    string
	User    string
	Format  string
	TTL     time.Duration
	Policy  string
}

// UserID checks that a partition key was supplied
func UserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}
	return nil
}

// Validate checks the configuration for consistency
func Validate(cfg Config) error {
	backend := strings.ToLower(cfg.Backend)
	if !oneOf(backend, BackendTypes) {
		return fmt.Errorf("unknown backend %q (expected one of %s)", cfg.Backend, strings.Join(BackendTypes, ", "))
	}

	// Only the memory backend can run without a file
	if backend != "memory" && cfg.Path == "" {
		return fmt.Errorf("backend %s requires a path", backend)
	}

	if cfg.Format != "" && !oneOf(strings.ToLower(cfg.Format), OutputFormats) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", cfg.Format, strings.Join(OutputFormats, ", "))
	}

	if cfg.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", cfg.TTL)
	}

	if cfg.Policy != "" && !oneOf(strings.ToLower(cfg.Policy), MergePolicies) {
		return fmt.Errorf("unknown merge policy %q", cfg.Policy)
	}

	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
