package mirror

import (
	"encoding/json"

	"github.com/arthur-debert/taskmirror/mirror/storage"
	"github.com/arthur-debert/taskmirror/types"
)

// Projects are replaced wholesale on every fetch, so unlike tasks there is
// no timestamp merge here.

// GetProjects returns userID's cached projects
func (c *Cache) GetProjects(userID string) []types.Project {
	var projects []types.Project
	c.locks.Read(userID, func() {
		projects = c.getProjectsLocked(userID)
	})
	return projects
}

// SetProjects stores projects as userID's whole project collection
func (c *Cache) SetProjects(projects []types.RawProject, userID string) []types.Project {
	var out []types.Project
	c.locks.Write(userID, func() {
		cleaned := make([]types.Project, 0, len(projects))
		for _, raw := range projects {
			p, err := CleanProject(raw)
			if err != nil {
				continue
			}
			cleaned = append(cleaned, p)
		}
		out = c.setProjectsLocked(cleaned, userID)
	})
	return out
}

// UpdateProject shallow-merges the supplied fields onto the cached project
// with the same id. Unknown ids are refused.
func (c *Cache) UpdateProject(project types.RawProject, userID string) []types.Project {
	var out []types.Project
	c.locks.Write(userID, func() {
		out = c.updateProjectLocked(project, userID)
	})
	return out
}

// AddProject appends a project, or updates it when the id is already cached
func (c *Cache) AddProject(project types.RawProject, userID string) []types.Project {
	var out []types.Project
	c.locks.Write(userID, func() {
		p, err := CleanProject(project)
		if err != nil {
			c.logger.Error("cannot add project", "user", userID, "error", err)
			out = c.getProjectsLocked(userID)
			return
		}

		projects := c.getProjectsLocked(userID)
		for _, existing := range projects {
			if existing.ProjectID == p.ProjectID {
				c.logger.Warn("project already cached, updating instead", "user", userID, "project_id", p.ProjectID)
				out = c.updateProjectLocked(project, userID)
				return
			}
		}
		out = c.setProjectsLocked(append(projects, p), userID)
	})
	return out
}

// DeleteProject removes the project and every task that belongs to it
func (c *Cache) DeleteProject(projectID types.ID, userID string) []types.Project {
	var out []types.Project
	c.locks.Write(userID, func() {
		projects := c.getProjectsLocked(userID)
		kept := make([]types.Project, 0, len(projects))
		for _, p := range projects {
			if p.ProjectID != projectID {
				kept = append(kept, p)
			}
		}
		out = c.setProjectsLocked(kept, userID)
		c.deleteProjectTasksLocked(projectID, userID)
	})
	return out
}

// Project returns the cached project with projectID
func (c *Cache) Project(projectID types.ID, userID string) (types.Project, bool) {
	for _, p := range c.GetProjects(userID) {
		if p.ProjectID == projectID {
			return p, true
		}
	}
	return types.Project{}, false
}

func (c *Cache) getProjectsLocked(userID string) []types.Project {
	if !c.checkUser(userID, "get projects") {
		return []types.Project{}
	}

	items := c.readCollection(userID, storage.KindProjects)
	projects := make([]types.Project, 0, len(items))
	for _, item := range items {
		var raw types.RawProject
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		p, err := CleanProject(raw)
		if err != nil {
			continue
		}
		projects = append(projects, p)
	}
	return removeDuplicateProjects(projects)
}

func (c *Cache) setProjectsLocked(projects []types.Project, userID string) []types.Project {
	projects = removeDuplicateProjects(projects)
	if !c.checkUser(userID, "set projects") {
		return projects
	}
	if err := c.writeCollection(userID, storage.KindProjects, projects); err != nil {
		c.logger.Error("error saving to cache", "user", userID, "kind", storage.KindProjects, "error", err)
	}
	return projects
}

func (c *Cache) updateProjectLocked(patch types.RawProject, userID string) []types.Project {
	projects := c.getProjectsLocked(userID)
	id := patch.ID()
	for i, p := range projects {
		if p.ProjectID != id || id.IsZero() {
			continue
		}
		merged, err := CleanProject(p.Raw().Overlay(patch))
		if err != nil {
			c.logger.Error("cannot normalize updated project", "user", userID, "project_id", id, "error", err)
			return projects
		}
		projects[i] = merged
		return c.setProjectsLocked(projects, userID)
	}

	c.logger.Error("project not found in cache, refusing update", "user", userID, "project_id", id)
	return projects
}
