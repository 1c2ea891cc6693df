package types

// Member is one user's membership in a project
type Member struct {
	UserID   ID     `json:"user_id" yaml:"user_id"`
	Username string `json:"username" yaml:"username"`
	Status   string `json:"status" yaml:"status"`
	JoinedAt string `json:"joined_at" yaml:"joined_at"`
}

// Project is a cached project as returned by the projects endpoint.
// Role is the caller's own membership role.
type Project struct {
	ProjectID   ID       `json:"project_id" yaml:"project_id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Members     []Member `json:"members" yaml:"members"`
	Role        string   `json:"role" yaml:"role"`
}

// RawProject is the inbound project shape. Nil fields are "not supplied".
type RawProject struct {
	ProjectID   *ID      `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Name        *string  `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Members     []Member `json:"members,omitempty" yaml:"members,omitempty"`
	Role        *string  `json:"role,omitempty" yaml:"role,omitempty"`
}

// ID returns the supplied project id, or an empty ID when none was given
func (r RawProject) ID() ID {
	if r.ProjectID == nil {
		return ""
	}
	return *r.ProjectID
}

// Raw converts a project back into an inbound record with every field present
func (p Project) Raw() RawProject {
	projectID := p.ProjectID
	members := make([]Member, len(p.Members))
	copy(members, p.Members)
	return RawProject{
		ProjectID:   &projectID,
		Name:        StringPtr(p.Name),
		Description: StringPtr(p.Description),
		Members:     members,
		Role:        StringPtr(p.Role),
	}
}

// Overlay applies every supplied field of patch on top of r
func (r RawProject) Overlay(patch RawProject) RawProject {
	out := r
	if patch.ProjectID != nil {
		out.ProjectID = patch.ProjectID
	}
	if patch.Name != nil {
		out.Name = patch.Name
	}
	if patch.Description != nil {
		out.Description = patch.Description
	}
	if patch.Members != nil {
		out.Members = patch.Members
	}
	if patch.Role != nil {
		out.Role = patch.Role
	}
	return out
}
