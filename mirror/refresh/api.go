package refresh

import (
	"context"
	"errors"

	"github.com/arthur-debert/taskmirror/types"
)

var (
	// ErrUnavailable is returned while the API circuit breaker is open
	ErrUnavailable = errors.New("api unavailable")

	// ErrUnknownTask is returned for operations on a task the cache does not hold
	ErrUnknownTask = errors.New("unknown task")

	// ErrUnknownProject is returned for operations on a project the cache does not hold
	ErrUnknownProject = errors.New("unknown project")

	// ErrInvalidStatus is returned when a move targets a status outside the board
	ErrInvalidStatus = errors.New("invalid status")
)

// API is the remote task service the cache mirrors. Implementations own the
// transport; every call is made on behalf of userID.
type API interface {
	FetchProjects(ctx context.Context, userID string) ([]types.RawProject, error)
	// FetchTasks returns the tasks of every project the user belongs to
	FetchTasks(ctx context.Context, userID string) ([]types.RawTask, error)

	CreateProject(ctx context.Context, userID string, project types.RawProject) (types.RawProject, error)
	UpdateProject(ctx context.Context, userID string, project types.RawProject) (types.RawProject, error)
	DeleteProject(ctx context.Context, userID string, projectID types.ID) error

	CreateTask(ctx context.Context, userID string, task types.RawTask) (types.RawTask, error)
	UpdateTask(ctx context.Context, userID string, task types.RawTask) (types.RawTask, error)
	DeleteTask(ctx context.Context, userID string, taskID types.ID) error

	SearchUsers(ctx context.Context, userID, query string) ([]types.User, error)
	PendingInvites(ctx context.Context, userID string) ([]types.Invite, error)
	SendInvite(ctx context.Context, userID string, projectID types.ID, invitee string) error
	RespondToInvite(ctx context.Context, userID string, projectID types.ID, status types.InviteStatus) error
}
