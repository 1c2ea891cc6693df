package mirror

import (
	"errors"
	"sort"

	"github.com/arthur-debert/taskmirror/types"
)

// Errors returned by ValidateTask
var (
	ErrTaskNoProject = errors.New("task has no project_id")
	ErrTaskNoName    = errors.New("task has no name")
)

// Columns holds a project's tasks keyed by board column.
// Every status is present, possibly with an empty slice.
type Columns map[types.Status][]types.Task

// Count returns the number of tasks across all columns
func (c Columns) Count() int {
	n := 0
	for _, tasks := range c {
		n += len(tasks)
	}
	return n
}

// Board returns projectID's tasks grouped into status columns, each column
// ordered by SortTasks.
func (c *Cache) Board(userID string, projectID types.ID) Columns {
	columns := GroupByStatus(c.GetTasks(userID), projectID)
	for status, tasks := range columns {
		columns[status] = SortTasks(tasks)
	}
	return columns
}

// GroupByStatus buckets the tasks of projectID by status. An empty project
// id yields empty columns.
func GroupByStatus(tasks []types.Task, projectID types.ID) Columns {
	columns := make(Columns, len(types.Statuses))
	for _, status := range types.Statuses {
		columns[status] = []types.Task{}
	}
	if projectID.IsZero() {
		return columns
	}

	for _, task := range tasks {
		if task.ProjectID != projectID {
			continue
		}
		status := task.Status
		if !status.Valid() {
			status = types.StatusBacklog
		}
		columns[status] = append(columns[status], task)
	}
	return columns
}

// SortTasks orders tasks by priority (HIGH first), then most recently
// updated first. Tasks without an id are dropped. The input is not modified.
func SortTasks(tasks []types.Task) []types.Task {
	sorted := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.TaskID.IsZero() {
			sorted = append(sorted, t)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
			return wa > wb
		}
		return RecordTime(a.UpdatedAt, a.CreatedAt) > RecordTime(b.UpdatedAt, b.CreatedAt)
	})
	return sorted
}

// ValidateTask reports whether a task is complete enough to show on a board
func ValidateTask(task types.Task) error {
	switch {
	case task.TaskID.IsZero():
		return ErrMissingTaskID
	case task.ProjectID.IsZero():
		return ErrTaskNoProject
	case task.Name == "":
		return ErrTaskNoName
	case !task.Status.Valid():
		return errors.New("task has an unknown status")
	}
	return nil
}
