package refresh_test

import (
	"context"
	"errors"
	"sync"

	"github.com/arthur-debert/taskmirror/types"
)

var errServer = errors.New("server error")

// fakeAPI is an in-memory API. Errors set in errs are returned by the
// method of the same name; hooks run at the start of a call.
type fakeAPI struct {
	mu sync.Mutex

	projects []types.RawProject
	tasks    []types.RawTask
	users    []types.User
	invites  []types.Invite

	errs  map[string]error
	calls map[string]int
	hooks map[string]func()

	// created is returned from CreateTask, merged over the request
	created    types.RawTask
	lastCreate types.RawTask
	sent       []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		errs:  make(map[string]error),
		calls: make(map[string]int),
		hooks: make(map[string]func()),
	}
}

func (f *fakeAPI) enter(method string) error {
	f.mu.Lock()
	f.calls[method]++
	hook := f.hooks[method]
	err := f.errs[method]
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (f *fakeAPI) setErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeAPI) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) FetchProjects(ctx context.Context, userID string) ([]types.RawProject, error) {
	if err := f.enter("FetchProjects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.RawProject(nil), f.projects...), nil
}

func (f *fakeAPI) FetchTasks(ctx context.Context, userID string) ([]types.RawTask, error) {
	if err := f.enter("FetchTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.RawTask(nil), f.tasks...), nil
}

func (f *fakeAPI) CreateProject(ctx context.Context, userID string, project types.RawProject) (types.RawProject, error) {
	if err := f.enter("CreateProject"); err != nil {
		return types.RawProject{}, err
	}
	if project.ProjectID == nil {
		project.ProjectID = types.IDPtr("srv-project")
	}
	return project, nil
}

func (f *fakeAPI) UpdateProject(ctx context.Context, userID string, project types.RawProject) (types.RawProject, error) {
	if err := f.enter("UpdateProject"); err != nil {
		return types.RawProject{}, err
	}
	return project, nil
}

func (f *fakeAPI) DeleteProject(ctx context.Context, userID string, projectID types.ID) error {
	return f.enter("DeleteProject")
}

func (f *fakeAPI) CreateTask(ctx context.Context, userID string, task types.RawTask) (types.RawTask, error) {
	if err := f.enter("CreateTask"); err != nil {
		return types.RawTask{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCreate = task
	return task.Overlay(f.created), nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, userID string, task types.RawTask) (types.RawTask, error) {
	if err := f.enter("UpdateTask"); err != nil {
		return types.RawTask{}, err
	}
	return task, nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, userID string, taskID types.ID) error {
	return f.enter("DeleteTask")
}

func (f *fakeAPI) SearchUsers(ctx context.Context, userID, query string) ([]types.User, error) {
	if err := f.enter("SearchUsers"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeAPI) PendingInvites(ctx context.Context, userID string) ([]types.Invite, error) {
	if err := f.enter("PendingInvites"); err != nil {
		return nil, err
	}
	return f.invites, nil
}

func (f *fakeAPI) SendInvite(ctx context.Context, userID string, projectID types.ID, invitee string) error {
	if err := f.enter("SendInvite"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, invitee)
	return nil
}

func (f *fakeAPI) RespondToInvite(ctx context.Context, userID string, projectID types.ID, status types.InviteStatus) error {
	return f.enter("RespondToInvite")
}
