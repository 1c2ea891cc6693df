// Package mirror keeps a durable, per-user local copy of task and project
// state for the task board.
//
//	Overview
//
// The remote API is the source of truth, but the board must render instantly
// after a restart, survive flaky connections and show optimistic edits before
// the server confirms them. Cache holds the last known state for each user in
// a storage.Backend and reconciles it with whatever the server sends next.
//
//	Partitions
//
// Every operation takes the user id explicitly. Data is stored under
// (user id, collection) pairs and no operation ever reads or writes another
// user's partition. ClearCache drops one user's partition on sign-out.
//
//	Normalization
//
// Records arrive as types.RawTask: ids may be numbers or strings, fields may
// be missing or hold the wrong type. CleanTask turns a raw record into a
// types.Task where every field holds a valid value: unknown statuses become
// BACKLOG, unknown priorities MEDIUM, missing timestamps the current time.
// A record without an id cannot be normalized and CleanTask returns
// ErrMissingTaskID; callers drop it.
//
//	Merging
//
// MergeWithCache is called with every fresh server response. For an id the
// cache already holds, the incoming record replaces the cached one only when
// its updated_at (falling back to created_at) is strictly later. Ties keep
// the cached copy, so an optimistic local edit is not clobbered by a slightly
// stale fetch. Arrival order does not matter: a late response cannot regress
// newer local state.
//
// With the ServerAuthority policy, local writes are marked provisional and
// the next server record for that id always replaces them, whatever the
// timestamps say. Use it when client and server clocks cannot be trusted to
// agree.
//
//	Failure handling
//
// The cache is best-effort and never fails its caller. Storage read errors
// and corrupt payloads read as an empty collection; write errors are logged
// and the operation returns the data it would have stored.
package mirror
