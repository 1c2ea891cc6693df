package mirror

import (
	"time"

	"github.com/arthur-debert/taskmirror/types"
)

// MergeWithCache reconciles freshly fetched tasks with userID's cache and
// persists the result.
//
// For an id the cache already holds, the fresh record replaces the cached one
// only if its timestamp is strictly later (see the package documentation for
// the ServerAuthority variant). Unknown ids are appended in arrival order.
// Fresh records that cannot be normalized are skipped.
func (c *Cache) MergeWithCache(fresh []types.RawTask, userID string) []types.Task {
	var out []types.Task
	c.locks.Write(userID, func() {
		out = c.mergeLocked(fresh, userID)
	})
	return out
}

func (c *Cache) mergeLocked(fresh []types.RawTask, userID string) []types.Task {
	tasks := c.getTasksLocked(userID)
	if !c.checkUser(userID, "merge") {
		return tasks
	}

	index := make(map[types.ID]int, len(tasks))
	for i, t := range tasks {
		index[t.TaskID] = i
	}

	now := c.now()
	replaced, appended := 0, 0
	for _, raw := range fresh {
		incoming, err := CleanTask(raw, now)
		if err != nil {
			c.logger.Debug("skipping fresh task", "user", userID, "error", err)
			continue
		}
		// Server records are never provisional
		incoming.Provisional = false

		i, ok := index[incoming.TaskID]
		if !ok {
			index[incoming.TaskID] = len(tasks)
			tasks = append(tasks, incoming)
			appended++
			continue
		}

		if c.shouldReplace(tasks[i], raw) {
			tasks[i] = incoming
			replaced++
		}
	}

	c.logger.Debug("merged fresh tasks", "user", userID, "fresh", len(fresh), "replaced", replaced, "appended", appended)
	return c.setTasksLocked(tasks, userID)
}

// shouldReplace decides whether a fresh record beats the cached copy.
// The fresh stamp comes from the raw record so a response missing both
// timestamps never wins on the strength of a defaulted "now".
func (c *Cache) shouldReplace(cached types.Task, fresh types.RawTask) bool {
	if c.policy == ServerAuthority && cached.Provisional {
		return true
	}
	freshAt := RecordTime(deref(fresh.UpdatedAt), deref(fresh.CreatedAt))
	cachedAt := RecordTime(cached.UpdatedAt, cached.CreatedAt)
	return freshAt > cachedAt
}

// timestampLayouts are tried in order when reading record timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 timestamp as epoch milliseconds.
// Timestamps without a zone are taken as UTC.
func ParseTimestamp(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// RecordTime returns a record's ordering time in epoch milliseconds: its
// update time, else its creation time, else zero so it sorts oldest.
func RecordTime(updatedAt, createdAt string) int64 {
	if ms, ok := ParseTimestamp(updatedAt); ok {
		return ms
	}
	if ms, ok := ParseTimestamp(createdAt); ok {
		return ms
	}
	return 0
}
