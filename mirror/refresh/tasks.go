package refresh

import (
	"context"
	"fmt"

	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/types"
)

const (
	collectionTasks    = "tasks"
	collectionProjects = "projects"
)

// RefreshTasks returns userID's tasks, fetching and merging a fresh copy
// from the API when the cache is stale. Unless force is set, a fresh cache
// or a fetch within the minimum interval short-circuits to the cached tasks.
//
// When the fetch fails the cached tasks are returned along with the error.
func (r *Refresher) RefreshTasks(ctx context.Context, userID string, force bool) ([]types.Task, error) {
	key := fetchKey(userID, collectionTasks)
	if !force && (r.cache.IsFresh(userID) || r.throttled(key)) {
		return r.cache.GetTasks(userID), nil
	}

	v, err, shared := r.fetch(key, func() (interface{}, error) {
		fresh, err := callAPI(ctx, r, "fetch tasks", func(ctx context.Context) ([]types.RawTask, error) {
			return r.api.FetchTasks(ctx, userID)
		})
		if err != nil {
			return nil, err
		}
		return r.cache.MergeWithCache(fresh, userID), nil
	})
	if err != nil {
		r.logger.Warn("task refresh failed, serving cache", "user", userID, "error", err)
		return r.cache.GetTasks(userID), err
	}

	r.logger.Debug("tasks refreshed", "user", userID, "shared", shared)
	return v.([]types.Task), nil
}

// CreateTask adds task to the cache straight away under a provisional id,
// then creates it through the API. On success the provisional record is
// swapped for the server's. On failure it is removed again, or restored to
// its previous state when the caller reused an id the cache already held.
func (r *Refresher) CreateTask(ctx context.Context, userID string, task types.RawTask) (types.Task, error) {
	stamp := mirror.Timestamp(r.now())
	local := task
	if local.ID().IsZero() {
		local.TaskID = types.IDPtr(r.newID())
	}
	if local.CreatedAt == nil {
		local.CreatedAt = types.StringPtr(stamp)
	}
	if local.UpdatedAt == nil {
		local.UpdatedAt = types.StringPtr(stamp)
	}
	tempID := local.ID()

	previous, existed := r.cache.Task(tempID, userID)
	r.cache.AddTask(local, userID)

	// The server assigns the id unless the caller chose one
	request := local
	request.TaskID = task.TaskID
	request.Provisional = nil

	created, err := callAPI(ctx, r, "create task", func(ctx context.Context) (types.RawTask, error) {
		return r.api.CreateTask(ctx, userID, request)
	})
	if err != nil {
		r.logger.Warn("create failed, rolling back", "user", userID, "task_id", tempID, "existed", existed, "error", err)
		if existed {
			r.cache.UpdateTask(previous.Raw(), userID)
		} else {
			r.cache.DeleteTask(tempID, userID)
		}
		return types.Task{}, err
	}

	base := local
	if existed {
		base = previous.Raw().Overlay(local)
	}
	confirmed := base.Overlay(created)
	confirmed.Provisional = nil
	r.cache.DeleteTask(tempID, userID)
	r.cache.MergeWithCache([]types.RawTask{confirmed}, userID)

	out, ok := r.cache.Task(confirmed.ID(), userID)
	if !ok {
		// The cache could not persist it; hand back the normalized record anyway
		return mirror.CleanTask(confirmed, r.now())
	}
	return out, nil
}

// MoveTask changes a task's status, the drag-and-drop transition on the
// board. The cache is updated first; the previous record is restored when
// the API rejects the move.
func (r *Refresher) MoveTask(ctx context.Context, userID string, taskID types.ID, status string) (types.Task, error) {
	target, ok := types.ParseStatus(status)
	if !ok {
		return types.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	previous, ok := r.cache.Task(taskID, userID)
	if !ok {
		return types.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if previous.Status == target {
		return previous, nil
	}

	patch := types.RawTask{
		TaskID:    &taskID,
		Status:    types.StringPtr(string(target)),
		UpdatedAt: types.StringPtr(mirror.Timestamp(r.now())),
	}
	r.cache.UpdateTask(patch, userID)

	updated, err := callAPI(ctx, r, "move task", func(ctx context.Context) (types.RawTask, error) {
		return r.api.UpdateTask(ctx, userID, patch)
	})
	if err != nil {
		r.logger.Warn("move failed, reverting", "user", userID, "task_id", taskID, "status", target, "error", err)
		r.cache.UpdateTask(previous.Raw(), userID)
		return previous, err
	}

	r.cache.UpdateTask(patch.Overlay(updated), userID)
	out, _ := r.cache.Task(taskID, userID)
	return out, nil
}

// UpdateTask sends patch to the API and applies it, with any fields the
// server returns, to the cached task
func (r *Refresher) UpdateTask(ctx context.Context, userID string, patch types.RawTask) (types.Task, error) {
	id := patch.ID()
	if _, ok := r.cache.Task(id, userID); !ok {
		return types.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if patch.UpdatedAt == nil {
		patch.UpdatedAt = types.StringPtr(mirror.Timestamp(r.now()))
	}

	updated, err := callAPI(ctx, r, "update task", func(ctx context.Context) (types.RawTask, error) {
		return r.api.UpdateTask(ctx, userID, patch)
	})
	if err != nil {
		return types.Task{}, err
	}

	r.cache.UpdateTask(patch.Overlay(updated), userID)
	out, _ := r.cache.Task(id, userID)
	return out, nil
}

// AddComment appends a comment to a task's thread
func (r *Refresher) AddComment(ctx context.Context, userID string, taskID types.ID, author, text string) (types.Task, error) {
	task, ok := r.cache.Task(taskID, userID)
	if !ok {
		return types.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}

	comments := make([]types.Comment, len(task.Comments), len(task.Comments)+1)
	copy(comments, task.Comments)
	comments = append(comments, types.Comment{
		ID:        types.ID(r.newID()),
		User:      author,
		Text:      text,
		Timestamp: mirror.Timestamp(r.now()),
	})

	return r.UpdateTask(ctx, userID, types.RawTask{TaskID: &taskID, Comments: comments})
}

// DeleteTask deletes a task through the API, then from the cache
func (r *Refresher) DeleteTask(ctx context.Context, userID string, taskID types.ID) error {
	err := callAPINoResult(ctx, r, "delete task", func(ctx context.Context) error {
		return r.api.DeleteTask(ctx, userID, taskID)
	})
	if err != nil {
		return err
	}
	r.cache.DeleteTask(taskID, userID)
	return nil
}
