package refresh

import (
	"context"
	"fmt"

	"github.com/arthur-debert/taskmirror/types"
)

// RefreshProjects returns userID's projects, replacing the cached
// collection with a fresh fetch when the cache is stale. Gating matches
// RefreshTasks.
func (r *Refresher) RefreshProjects(ctx context.Context, userID string, force bool) ([]types.Project, error) {
	key := fetchKey(userID, collectionProjects)
	if !force && (r.cache.IsFresh(userID) || r.throttled(key)) {
		return r.cache.GetProjects(userID), nil
	}

	v, err, _ := r.fetch(key, func() (interface{}, error) {
		fresh, err := callAPI(ctx, r, "fetch projects", func(ctx context.Context) ([]types.RawProject, error) {
			return r.api.FetchProjects(ctx, userID)
		})
		if err != nil {
			return nil, err
		}
		return r.cache.SetProjects(fresh, userID), nil
	})
	if err != nil {
		r.logger.Warn("project refresh failed, serving cache", "user", userID, "error", err)
		return r.cache.GetProjects(userID), err
	}
	return v.([]types.Project), nil
}

// CreateProject creates a project through the API and caches the result
func (r *Refresher) CreateProject(ctx context.Context, userID string, project types.RawProject) (types.Project, error) {
	created, err := callAPI(ctx, r, "create project", func(ctx context.Context) (types.RawProject, error) {
		return r.api.CreateProject(ctx, userID, project)
	})
	if err != nil {
		return types.Project{}, err
	}

	record := project.Overlay(created)
	if record.ID().IsZero() {
		return types.Project{}, fmt.Errorf("create project: server returned no project_id")
	}
	r.cache.AddProject(record, userID)
	out, _ := r.cache.Project(record.ID(), userID)
	return out, nil
}

// UpdateProject updates a project through the API, then in the cache
func (r *Refresher) UpdateProject(ctx context.Context, userID string, patch types.RawProject) (types.Project, error) {
	id := patch.ID()
	if _, ok := r.cache.Project(id, userID); !ok {
		return types.Project{}, fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}

	updated, err := callAPI(ctx, r, "update project", func(ctx context.Context) (types.RawProject, error) {
		return r.api.UpdateProject(ctx, userID, patch)
	})
	if err != nil {
		return types.Project{}, err
	}

	r.cache.UpdateProject(patch.Overlay(updated), userID)
	out, _ := r.cache.Project(id, userID)
	return out, nil
}

// DeleteProject deletes a project through the API, then removes it and its
// tasks from the cache
func (r *Refresher) DeleteProject(ctx context.Context, userID string, projectID types.ID) error {
	err := callAPINoResult(ctx, r, "delete project", func(ctx context.Context) error {
		return r.api.DeleteProject(ctx, userID, projectID)
	})
	if err != nil {
		return err
	}
	r.cache.DeleteProject(projectID, userID)
	return nil
}

// SearchUsers looks up users to invite. An empty query matches nobody.
func (r *Refresher) SearchUsers(ctx context.Context, userID, query string) ([]types.User, error) {
	if query == "" {
		return []types.User{}, nil
	}
	return callAPI(ctx, r, "search users", func(ctx context.Context) ([]types.User, error) {
		return r.api.SearchUsers(ctx, userID, query)
	})
}

// PendingInvites lists the invitations waiting for userID
func (r *Refresher) PendingInvites(ctx context.Context, userID string) ([]types.Invite, error) {
	return callAPI(ctx, r, "pending invites", func(ctx context.Context) ([]types.Invite, error) {
		return r.api.PendingInvites(ctx, userID)
	})
}

// SendInvite invites another user to a project
func (r *Refresher) SendInvite(ctx context.Context, userID string, projectID types.ID, invitee string) error {
	return callAPINoResult(ctx, r, "send invite", func(ctx context.Context) error {
		return r.api.SendInvite(ctx, userID, projectID, invitee)
	})
}

// RespondToInvite accepts or rejects an invitation. Accepting refetches
// projects and tasks so the new project shows up immediately.
func (r *Refresher) RespondToInvite(ctx context.Context, userID string, projectID types.ID, status types.InviteStatus) error {
	if status != types.InviteAccepted && status != types.InviteRejected {
		return fmt.Errorf("invalid invite response %q", status)
	}

	err := callAPINoResult(ctx, r, "respond to invite", func(ctx context.Context) error {
		return r.api.RespondToInvite(ctx, userID, projectID, status)
	})
	if err != nil {
		return err
	}

	if status == types.InviteAccepted {
		if _, err := r.RefreshProjects(ctx, userID, true); err != nil {
			return err
		}
		if _, err := r.RefreshTasks(ctx, userID, true); err != nil {
			return err
		}
	}
	return nil
}
