package mirror

import (
	"errors"
	"fmt"
	"time"

	"github.com/arthur-debert/taskmirror/types"
)

var (
	// ErrMissingTaskID is returned when a raw task carries no usable id
	ErrMissingTaskID = errors.New("task has no task_id")
	// ErrMissingProjectID is returned when a raw project carries no usable id
	ErrMissingProjectID = errors.New("project has no project_id")
)

// NormalizationError describes a record that could not be normalized
type NormalizationError struct {
	Kind  string // "task" or "project"
	Field string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// isoMillis matches the ISO-8601 form the API uses (millisecond precision, UTC)
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats a time the way stored records carry it
func Timestamp(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// CleanTask normalizes a raw task. Every field is coerced to its documented
// type and default; the only failure is a record with no id.
// Normalizing an already normalized task returns it unchanged.
func CleanTask(raw types.RawTask, now time.Time) (types.Task, error) {
	id := raw.ID().String()
	if id == "" {
		return types.Task{}, &NormalizationError{Kind: "task", Field: "task_id", Err: ErrMissingTaskID}
	}

	stamp := Timestamp(now)
	task := types.Task{
		TaskID:           types.ID(id),
		ProjectID:        derefID(raw.ProjectID),
		Name:             deref(raw.Name),
		Description:      deref(raw.Description),
		Status:           types.StatusBacklog,
		AssignedTo:       nonEmpty(raw.AssignedTo),
		AssigneeUsername: nonEmpty(raw.AssigneeUsername),
		CreatorUsername:  deref(raw.CreatorUsername),
		Priority:         types.PriorityMedium,
		Comments:         []types.Comment{},
		CreatedAt:        stamp,
		UpdatedAt:        stamp,
	}

	if raw.Status != nil {
		if st, ok := types.ParseStatus(*raw.Status); ok {
			task.Status = st
		}
	}
	if raw.Priority != nil {
		if p, ok := types.ParsePriority(*raw.Priority); ok {
			task.Priority = p
		}
	}
	if raw.Comments != nil {
		task.Comments = make([]types.Comment, len(raw.Comments))
		copy(task.Comments, raw.Comments)
	}
	if v := deref(raw.CreatedAt); v != "" {
		task.CreatedAt = v
	}
	if v := deref(raw.UpdatedAt); v != "" {
		task.UpdatedAt = v
	}
	if raw.Provisional != nil {
		task.Provisional = *raw.Provisional
	}

	return task, nil
}

// CleanProject normalizes a raw project. Members is never nil afterwards.
func CleanProject(raw types.RawProject) (types.Project, error) {
	id := raw.ID().String()
	if id == "" {
		return types.Project{}, &NormalizationError{Kind: "project", Field: "project_id", Err: ErrMissingProjectID}
	}

	project := types.Project{
		ProjectID:   types.ID(id),
		Name:        deref(raw.Name),
		Description: deref(raw.Description),
		Members:     []types.Member{},
		Role:        deref(raw.Role),
	}
	if raw.Members != nil {
		project.Members = make([]types.Member, len(raw.Members))
		copy(project.Members, raw.Members)
	}
	return project, nil
}

// RemoveDuplicateTasks keeps the first occurrence of every task id,
// preserving order. Tasks without an id are dropped.
func RemoveDuplicateTasks(tasks []types.Task) []types.Task {
	seen := make(map[types.ID]bool, len(tasks))
	out := make([]types.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.TaskID.IsZero() || seen[task.TaskID] {
			continue
		}
		seen[task.TaskID] = true
		out = append(out, task)
	}
	return out
}

func removeDuplicateProjects(projects []types.Project) []types.Project {
	seen := make(map[types.ID]bool, len(projects))
	out := make([]types.Project, 0, len(projects))
	for _, project := range projects {
		if project.ProjectID.IsZero() || seen[project.ProjectID] {
			continue
		}
		seen[project.ProjectID] = true
		out = append(out, project)
	}
	return out
}

// cleanTasks normalizes a batch, dropping records that fail
func cleanTasks(raws []types.RawTask, now time.Time) []types.Task {
	tasks := make([]types.Task, 0, len(raws))
	for _, raw := range raws {
		task, err := CleanTask(raw, now)
		if err != nil {
			continue
		}
		tasks = append(tasks, task)
	}
	return RemoveDuplicateTasks(tasks)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefID(id *types.ID) types.ID {
	if id == nil {
		return ""
	}
	return *id
}

// nonEmpty maps missing and empty strings to nil
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
