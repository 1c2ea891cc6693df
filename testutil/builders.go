package testutil

import "github.com/arthur-debert/taskmirror/types"

// TaskOption sets a field on a RawTask built by NewTask
type TaskOption func(*types.RawTask)

// NewTask builds an inbound task with an id, a project and a name
func NewTask(id, projectID string, opts ...TaskOption) types.RawTask {
	task := types.RawTask{
		TaskID:    types.IDPtr(id),
		ProjectID: types.IDPtr(projectID),
		Name:      types.StringPtr("task " + id),
	}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// WithName sets the task name
func WithName(name string) TaskOption {
	return func(t *types.RawTask) { t.Name = types.StringPtr(name) }
}

// WithStatus sets the raw status string
func WithStatus(status string) TaskOption {
	return func(t *types.RawTask) { t.Status = types.StringPtr(status) }
}

// WithPriority sets the raw priority string
func WithPriority(priority string) TaskOption {
	return func(t *types.RawTask) { t.Priority = types.StringPtr(priority) }
}

// WithUpdatedAt sets updated_at
func WithUpdatedAt(ts string) TaskOption {
	return func(t *types.RawTask) { t.UpdatedAt = types.StringPtr(ts) }
}

// WithCreatedAt sets created_at
func WithCreatedAt(ts string) TaskOption {
	return func(t *types.RawTask) { t.CreatedAt = types.StringPtr(ts) }
}

// WithAssignee sets both assignee fields
func WithAssignee(userID, username string) TaskOption {
	return func(t *types.RawTask) {
		t.AssignedTo = types.StringPtr(userID)
		t.AssigneeUsername = types.StringPtr(username)
	}
}

// WithoutID clears the task id
func WithoutID() TaskOption {
	return func(t *types.RawTask) { t.TaskID = nil }
}

// Patch builds a partial update carrying only the id and the given fields
func Patch(id string, opts ...TaskOption) types.RawTask {
	task := types.RawTask{TaskID: types.IDPtr(id)}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// NewProject builds an inbound project
func NewProject(id, name string) types.RawProject {
	return types.RawProject{
		ProjectID: types.IDPtr(id),
		Name:      types.StringPtr(name),
	}
}
