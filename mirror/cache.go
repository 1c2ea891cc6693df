package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/taskmirror/internal/validation"
	"github.com/arthur-debert/taskmirror/mirror/storage"
)

// DefaultTTL is how long a full sync stays fresh before a refetch is due
const DefaultTTL = 5 * time.Minute

// MergePolicy selects how MergeWithCache resolves a record present both in
// the cache and in a fresh server response.
type MergePolicy int

const (
	// LastWriteWins keeps whichever copy has the strictly later timestamp,
	// preferring the cached copy on ties.
	LastWriteWins MergePolicy = iota

	// ServerAuthority marks local writes provisional and lets the next
	// server record replace them regardless of timestamps.
	ServerAuthority
)

// String returns the policy name used in configuration
func (p MergePolicy) String() string {
	switch p {
	case ServerAuthority:
		return "server-authority"
	default:
		return "last-write-wins"
	}
}

// ParseMergePolicy resolves a policy name from configuration
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-write-wins", "lww":
		return LastWriteWins, nil
	case "server-authority", "server":
		return ServerAuthority, nil
	}
	return LastWriteWins, fmt.Errorf("unknown merge policy %q", s)
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger used to report degraded operations
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the time source used for defaults, last-sync and freshness
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTL sets how long a sync stays fresh
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithMergePolicy sets the conflict policy used by MergeWithCache
func WithMergePolicy(policy MergePolicy) Option {
	return func(c *Cache) {
		c.policy = policy
	}
}

// Cache is the local mirror of one or more users' tasks and projects.
// It is safe for concurrent use: every operation holds its user's partition
// lock, so two operations on one partition never interleave their
// read-modify-write cycles.
type Cache struct {
	backend storage.Backend
	locks   *storage.PartitionLocks
	logger  *slog.Logger
	now     func() time.Time
	ttl     time.Duration
	policy  MergePolicy
}

// New creates a cache on top of backend
func New(backend storage.Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		locks:   storage.NewPartitionLocks(),
		logger:  slog.Default(),
		now:     time.Now,
		ttl:     DefaultTTL,
		policy:  LastWriteWins,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the configured merge policy
func (c *Cache) Policy() MergePolicy {
	return c.policy
}

// Close releases the storage backend
func (c *Cache) Close() error {
	return c.backend.Close()
}

// ClearCache removes every collection stored for userID.
// Called on sign-out so the next session on this device starts clean.
func (c *Cache) ClearCache(userID string) {
	c.locks.Write(userID, func() {
		if !c.checkUser(userID, "clear cache") {
			return
		}
		if err := c.backend.Clear(userID); err != nil {
			c.logger.Error("failed to clear cache", "user", userID, "error", err)
		}
	})
}

// ClearAll removes every user's partition
func (c *Cache) ClearAll() {
	c.locks.WriteAll(func() {
		if err := c.backend.ClearAll(); err != nil {
			c.logger.Error("failed to clear all partitions", "error", err)
		}
	})
}

// LastSync returns when userID's collections were last written in full
func (c *Cache) LastSync(userID string) (time.Time, bool) {
	var (
		at time.Time
		ok bool
	)
	c.locks.Read(userID, func() {
		at, ok = c.lastSyncLocked(userID)
	})
	return at, ok
}

// IsFresh reports whether userID's last sync is within the TTL.
// A stale or missing sync means a full refetch is due.
func (c *Cache) IsFresh(userID string) bool {
	at, ok := c.LastSync(userID)
	if !ok {
		return false
	}
	return c.now().Sub(at) < c.ttl
}

// checkUser logs and rejects operations without a partition key
func (c *Cache) checkUser(userID, op string) bool {
	if err := validation.UserID(userID); err != nil {
		c.logger.Error("cache operation rejected", "op", op, "error", err)
		return false
	}
	return true
}

// readCollection loads a stored JSON array as individual raw elements.
// Missing collections, read failures and parse failures all read as empty.
func (c *Cache) readCollection(userID string, kind storage.Kind) []json.RawMessage {
	data, err := c.backend.Read(userID, kind)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		c.logger.Error("error reading from cache", "user", userID, "kind", kind, "error", err)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Error("error parsing cached collection", "user", userID, "kind", kind, "error", err)
		return nil
	}
	return items
}

// writeCollection stores v and, on success, stamps the last-sync marker
func (c *Cache) writeCollection(userID string, kind storage.Kind, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}
	if err := c.backend.Write(userID, kind, data); err != nil {
		return fmt.Errorf("saving %s: %w", kind, err)
	}

	stamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	marker, _ := json.Marshal(stamp)
	if err := c.backend.Write(userID, storage.KindLastSync, marker); err != nil {
		c.logger.Warn("failed to record last sync", "user", userID, "error", err)
	}
	return nil
}

func (c *Cache) lastSyncLocked(userID string) (time.Time, bool) {
	if validation.UserID(userID) != nil {
		return time.Time{}, false
	}
	data, err := c.backend.Read(userID, storage.KindLastSync)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Error("error reading last sync", "user", userID, "error", err)
		}
		return time.Time{}, false
	}

	// Stored as a string of epoch milliseconds; accept a bare number too
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Error("error parsing last sync", "user", userID, "error", err)
		return time.Time{}, false
	}
	var ms int64
	switch v := raw.(type) {
	case string:
		ms, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.logger.Error("error parsing last sync", "user", userID, "error", err)
			return time.Time{}, false
		}
	case float64:
		ms = int64(v)
	default:
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
