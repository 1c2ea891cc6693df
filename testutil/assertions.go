package testutil

import (
	"testing"

	"github.com/arthur-debert/taskmirror/types"
)

// AssertTaskCount checks that the slice contains the expected number of tasks
func AssertTaskCount(t *testing.T, tasks []types.Task, expected int, context ...string) {
	t.Helper()
	if len(tasks) != expected {
		ctx := ""
		if len(context) > 0 {
			ctx = " " + context[0]
		}
		t.Errorf("expected %d tasks%s, got %d", expected, ctx, len(tasks))
	}
}

// AssertTaskExists verifies that a task with the given id is in the slice
func AssertTaskExists(t *testing.T, tasks []types.Task, id types.ID) {
	t.Helper()
	if _, ok := FindTask(tasks, id); !ok {
		t.Errorf("task %s not found in results", id)
	}
}

// AssertTaskNotExists verifies that no task with the given id is in the slice
func AssertTaskNotExists(t *testing.T, tasks []types.Task, id types.ID) {
	t.Helper()
	if _, ok := FindTask(tasks, id); ok {
		t.Errorf("task %s should not be in results", id)
	}
}

// AssertTaskIDs verifies the exact ids and their order
func AssertTaskIDs(t *testing.T, tasks []types.Task, expected ...types.ID) {
	t.Helper()
	if len(tasks) != len(expected) {
		t.Errorf("expected %d tasks %v, got %d %v", len(expected), expected, len(tasks), TaskIDs(tasks))
		return
	}
	for i, task := range tasks {
		if task.TaskID != expected[i] {
			t.Errorf("position %d: expected task %s, got %s (all: %v)", i, expected[i], task.TaskID, TaskIDs(tasks))
		}
	}
}

// AssertUniqueIDs verifies that no task id occurs twice
func AssertUniqueIDs(t *testing.T, tasks []types.Task) {
	t.Helper()
	seen := make(map[types.ID]bool, len(tasks))
	for _, task := range tasks {
		if seen[task.TaskID] {
			t.Errorf("task id %s occurs more than once", task.TaskID)
		}
		seen[task.TaskID] = true
	}
}

// AssertTaskStatus verifies the status of the task with the given id
func AssertTaskStatus(t *testing.T, tasks []types.Task, id types.ID, status types.Status) {
	t.Helper()
	task, ok := FindTask(tasks, id)
	if !ok {
		t.Errorf("task %s not found in results", id)
		return
	}
	if task.Status != status {
		t.Errorf("task %s: expected status %s, got %s", id, status, task.Status)
	}
}

// AssertTaskName verifies the name of the task with the given id
func AssertTaskName(t *testing.T, tasks []types.Task, id types.ID, name string) {
	t.Helper()
	task, ok := FindTask(tasks, id)
	if !ok {
		t.Errorf("task %s not found in results", id)
		return
	}
	if task.Name != name {
		t.Errorf("task %s: expected name %q, got %q", id, name, task.Name)
	}
}

// AssertNormalized verifies the guarantees every task read from the cache carries
func AssertNormalized(t *testing.T, tasks []types.Task) {
	t.Helper()
	for _, task := range tasks {
		if task.TaskID.IsZero() {
			t.Errorf("task without id in results")
		}
		if !task.Status.Valid() {
			t.Errorf("task %s: invalid status %q", task.TaskID, task.Status)
		}
		if _, ok := types.ParsePriority(string(task.Priority)); !ok {
			t.Errorf("task %s: invalid priority %q", task.TaskID, task.Priority)
		}
		if task.Comments == nil {
			t.Errorf("task %s: comments is nil", task.TaskID)
		}
		if task.CreatedAt == "" || task.UpdatedAt == "" {
			t.Errorf("task %s: missing timestamps", task.TaskID)
		}
	}
}

// AssertProjectIDs verifies the exact project ids and their order
func AssertProjectIDs(t *testing.T, projects []types.Project, expected ...types.ID) {
	t.Helper()
	got := make([]types.ID, len(projects))
	for i, p := range projects {
		got[i] = p.ProjectID
	}
	if len(got) != len(expected) {
		t.Errorf("expected projects %v, got %v", expected, got)
		return
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("expected projects %v, got %v", expected, got)
			return
		}
	}
}

// FindTask returns the task with the given id
func FindTask(tasks []types.Task, id types.ID) (types.Task, bool) {
	for _, task := range tasks {
		if task.TaskID == id {
			return task, true
		}
	}
	return types.Task{}, false
}

// TaskIDs lists the ids of tasks in order
func TaskIDs(tasks []types.Task) []types.ID {
	ids := make([]types.ID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.TaskID
	}
	return ids
}
