package mirror

import (
	"encoding/json"

	"github.com/arthur-debert/taskmirror/mirror/storage"
	"github.com/arthur-debert/taskmirror/types"
)

// GetTasks returns userID's cached tasks, normalized and de-duplicated.
// Elements that fail to decode or normalize are dropped; a missing or
// unreadable collection yields an empty slice.
func (c *Cache) GetTasks(userID string) []types.Task {
	var tasks []types.Task
	c.locks.Read(userID, func() {
		tasks = c.getTasksLocked(userID)
	})
	return tasks
}

// SetTasks normalizes and de-duplicates tasks, stores them as userID's whole
// task collection and records the sync time. When the write fails the
// cleaned tasks are still returned, just not persisted.
func (c *Cache) SetTasks(tasks []types.RawTask, userID string) []types.Task {
	var out []types.Task
	c.locks.Write(userID, func() {
		out = c.setTasksLocked(cleanTasks(tasks, c.now()), userID)
	})
	return out
}

// UpdateTask shallow-merges the supplied fields of task onto the cached task
// with the same id. An id the cache does not hold is refused, so a stale
// update cannot resurrect a deleted task.
func (c *Cache) UpdateTask(task types.RawTask, userID string) []types.Task {
	var out []types.Task
	c.locks.Write(userID, func() {
		out = c.updateTaskLocked(task, userID)
	})
	return out
}

// AddTask appends a new task. A task whose id is already cached is treated
// as an update instead, so repeating an insert is harmless.
func (c *Cache) AddTask(task types.RawTask, userID string) []types.Task {
	var out []types.Task
	c.locks.Write(userID, func() {
		out = c.addTaskLocked(task, userID)
	})
	return out
}

// DeleteTask removes the task with taskID
func (c *Cache) DeleteTask(taskID types.ID, userID string) []types.Task {
	var out []types.Task
	c.locks.Write(userID, func() {
		tasks := c.getTasksLocked(userID)
		kept := make([]types.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.TaskID != taskID {
				kept = append(kept, t)
			}
		}
		out = c.setTasksLocked(kept, userID)
	})
	return out
}

// DeleteProjectTasks removes every task belonging to projectID
func (c *Cache) DeleteProjectTasks(projectID types.ID, userID string) []types.Task {
	var out []types.Task
	c.locks.Write(userID, func() {
		out = c.deleteProjectTasksLocked(projectID, userID)
	})
	return out
}

// Task returns the cached task with taskID
func (c *Cache) Task(taskID types.ID, userID string) (types.Task, bool) {
	for _, t := range c.GetTasks(userID) {
		if t.TaskID == taskID {
			return t, true
		}
	}
	return types.Task{}, false
}

func (c *Cache) getTasksLocked(userID string) []types.Task {
	if !c.checkUser(userID, "get tasks") {
		return []types.Task{}
	}

	items := c.readCollection(userID, storage.KindTasks)
	now := c.now()
	tasks := make([]types.Task, 0, len(items))
	for _, item := range items {
		var raw types.RawTask
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		task, err := CleanTask(raw, now)
		if err != nil {
			continue
		}
		tasks = append(tasks, task)
	}
	return RemoveDuplicateTasks(tasks)
}

// setTasksLocked persists already-normalized tasks
func (c *Cache) setTasksLocked(tasks []types.Task, userID string) []types.Task {
	tasks = RemoveDuplicateTasks(tasks)
	if !c.checkUser(userID, "set tasks") {
		return tasks
	}
	if err := c.writeCollection(userID, storage.KindTasks, tasks); err != nil {
		c.logger.Error("error saving to cache", "user", userID, "kind", storage.KindTasks, "error", err)
	}
	return tasks
}

func (c *Cache) updateTaskLocked(patch types.RawTask, userID string) []types.Task {
	tasks := c.getTasksLocked(userID)
	id := patch.ID()
	if id.IsZero() {
		c.logger.Error("cannot update task without task_id", "user", userID)
		return tasks
	}

	index := -1
	for i, t := range tasks {
		if t.TaskID == id {
			index = i
			break
		}
	}
	if index == -1 {
		c.logger.Error("task not found in cache, refusing update", "user", userID, "task_id", id)
		return tasks
	}

	if c.policy == ServerAuthority {
		patch.Provisional = types.BoolPtr(true)
	}

	merged, err := CleanTask(tasks[index].Raw().Overlay(patch), c.now())
	if err != nil {
		c.logger.Error("cannot normalize updated task", "user", userID, "task_id", id, "error", err)
		return tasks
	}
	tasks[index] = merged
	return c.setTasksLocked(tasks, userID)
}

func (c *Cache) addTaskLocked(raw types.RawTask, userID string) []types.Task {
	task, err := CleanTask(raw, c.now())
	if err != nil {
		c.logger.Error("cannot add task", "user", userID, "error", err)
		return c.getTasksLocked(userID)
	}

	tasks := c.getTasksLocked(userID)
	for _, t := range tasks {
		if t.TaskID == task.TaskID {
			c.logger.Warn("task already cached, updating instead", "user", userID, "task_id", task.TaskID)
			return c.updateTaskLocked(raw, userID)
		}
	}

	if c.policy == ServerAuthority {
		task.Provisional = true
	}
	return c.setTasksLocked(append(tasks, task), userID)
}

func (c *Cache) deleteProjectTasksLocked(projectID types.ID, userID string) []types.Task {
	tasks := c.getTasksLocked(userID)
	kept := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID != projectID {
			kept = append(kept, t)
		}
	}
	return c.setTasksLocked(kept, userID)
}
