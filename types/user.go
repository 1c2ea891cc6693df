package types

// User is a user search result, used when inviting members to a project
type User struct {
	UserID   ID     `json:"user_id" yaml:"user_id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
}

// InviteStatus is the answer a user gives to a project invitation
type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteRejected InviteStatus = "REJECTED"
)

// Invite is a pending invitation for the current user to join a project
type Invite struct {
	ProjectID       ID           `json:"project_id" yaml:"project_id"`
	ProjectName     string       `json:"project_name" yaml:"project_name"`
	InviterUsername string       `json:"inviter_username" yaml:"inviter_username"`
	Status          InviteStatus `json:"status" yaml:"status"`
	CreatedAt       string       `json:"created_at" yaml:"created_at"`
}
