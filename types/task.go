package types

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Comment is a single entry in a task's discussion thread
type Comment struct {
	ID        ID     `json:"id" yaml:"id"`
	User      string `json:"user" yaml:"user"`
	Text      string `json:"text" yaml:"text"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Task is the normalized task shape the cache guarantees on read.
// Every field is populated: enums hold a valid value, timestamps are never
// empty and Comments is never nil.
type Task struct {
	TaskID           ID        `json:"task_id" yaml:"task_id"`
	ProjectID        ID        `json:"project_id" yaml:"project_id"`
	Name             string    `json:"name" yaml:"name"`
	Description      string    `json:"description" yaml:"description"`
	Status           Status    `json:"status" yaml:"status"`
	AssignedTo       *string   `json:"assigned_to" yaml:"assigned_to"`
	AssigneeUsername *string   `json:"assignee_username" yaml:"assignee_username"`
	CreatorUsername  string    `json:"creator_username" yaml:"creator_username"`
	Priority         Priority  `json:"priority" yaml:"priority"`
	Comments         []Comment `json:"comments" yaml:"comments"`
	CreatedAt        string    `json:"created_at" yaml:"created_at"`
	UpdatedAt        string    `json:"updated_at" yaml:"updated_at"`

	// Provisional marks a locally-originated write that has not yet been
	// confirmed by a server response.
	Provisional bool `json:"provisional,omitempty" yaml:"provisional,omitempty"`
}

// RawTask is the inbound task shape: API responses, optimistic UI edits and
// partial updates. A nil field means "not supplied"; normalization fills it
// with a default and a shallow merge leaves the existing value alone.
// An explicit null on an assignee field decodes to an empty string, which
// clears the assignee when overlaid.
type RawTask struct {
	TaskID           *ID       `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	ProjectID        *ID       `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Name             *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description      *string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status           *string   `json:"status,omitempty" yaml:"status,omitempty"`
	AssignedTo       *string   `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	AssigneeUsername *string   `json:"assignee_username,omitempty" yaml:"assignee_username,omitempty"`
	CreatorUsername  *string   `json:"creator_username,omitempty" yaml:"creator_username,omitempty"`
	Priority         *string   `json:"priority,omitempty" yaml:"priority,omitempty"`
	Comments         []Comment `json:"comments,omitempty" yaml:"comments,omitempty"`
	CreatedAt        *string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt        *string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Provisional      *bool     `json:"provisional,omitempty" yaml:"provisional,omitempty"`
}

// ID returns the supplied task id, or an empty ID when none was given
func (r RawTask) ID() ID {
	if r.TaskID == nil {
		return ""
	}
	return *r.TaskID
}

// Raw converts a normalized task back into an inbound record with every
// field present. Normalizing the result yields the same task.
func (t Task) Raw() RawTask {
	taskID := t.TaskID
	projectID := t.ProjectID
	status := string(t.Status)
	priority := string(t.Priority)
	comments := make([]Comment, len(t.Comments))
	copy(comments, t.Comments)

	raw := RawTask{
		TaskID:           &taskID,
		ProjectID:        &projectID,
		Name:             StringPtr(t.Name),
		Description:      StringPtr(t.Description),
		Status:           &status,
		AssignedTo:       StringPtr(derefOrEmpty(t.AssignedTo)),
		AssigneeUsername: StringPtr(derefOrEmpty(t.AssigneeUsername)),
		CreatorUsername:  StringPtr(t.CreatorUsername),
		Priority:         &priority,
		Comments:         comments,
		CreatedAt:        StringPtr(t.CreatedAt),
		UpdatedAt:        StringPtr(t.UpdatedAt),
	}
	if t.Provisional {
		raw.Provisional = BoolPtr(true)
	}
	return raw
}

// Overlay applies every supplied field of patch on top of r and returns the
// result. Fields patch leaves nil keep r's value, matching a shallow
// object merge where the newer fields win.
func (r RawTask) Overlay(patch RawTask) RawTask {
	out := r
	if patch.TaskID != nil {
		out.TaskID = patch.TaskID
	}
	if patch.ProjectID != nil {
		out.ProjectID = patch.ProjectID
	}
	if patch.Name != nil {
		out.Name = patch.Name
	}
	if patch.Description != nil {
		out.Description = patch.Description
	}
	if patch.Status != nil {
		out.Status = patch.Status
	}
	if patch.AssignedTo != nil {
		out.AssignedTo = patch.AssignedTo
	}
	if patch.AssigneeUsername != nil {
		out.AssigneeUsername = patch.AssigneeUsername
	}
	if patch.CreatorUsername != nil {
		out.CreatorUsername = patch.CreatorUsername
	}
	if patch.Priority != nil {
		out.Priority = patch.Priority
	}
	if patch.Comments != nil {
		out.Comments = patch.Comments
	}
	if patch.CreatedAt != nil {
		out.CreatedAt = patch.CreatedAt
	}
	if patch.UpdatedAt != nil {
		out.UpdatedAt = patch.UpdatedAt
	}
	if patch.Provisional != nil {
		out.Provisional = patch.Provisional
	}
	return out
}

// UnmarshalJSON decodes a task object field by field. A field holding the
// wrong JSON type is treated as not supplied instead of failing the whole
// record, so one malformed attribute never hides an otherwise usable task.
func (r *RawTask) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("task must be a JSON object: %w", err)
	}

	out := RawTask{
		TaskID:           lenientID(fields["task_id"]),
		ProjectID:        lenientID(fields["project_id"]),
		Name:             lenientString(fields["name"]),
		Description:      lenientString(fields["description"]),
		Status:           lenientString(fields["status"]),
		AssignedTo:       nullableString(fields["assigned_to"]),
		AssigneeUsername: nullableString(fields["assignee_username"]),
		CreatorUsername:  lenientString(fields["creator_username"]),
		Priority:         lenientString(fields["priority"]),
		Comments:         lenientComments(fields["comments"]),
		CreatedAt:        lenientString(fields["created_at"]),
		UpdatedAt:        lenientString(fields["updated_at"]),
	}
	if raw, ok := fields["provisional"]; ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			out.Provisional = &b
		}
	}

	*r = out
	return nil
}

func lenientID(raw json.RawMessage) *ID {
	if raw == nil {
		return nil
	}
	var id ID
	if err := id.UnmarshalJSON(raw); err != nil || id.IsZero() {
		return nil
	}
	return &id
}

func lenientString(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		return &val
	case float64, bool:
		s := string(raw)
		return &s
	default:
		// null, objects and arrays carry no usable string
		return nil
	}
}

// UnmarshalYAML decodes a task from a yaml input file with the same lenient
// rules as UnmarshalJSON. Scalars keep their source text, so timestamps are
// not reformatted on the way through.
func (r *RawTask) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: task must be a mapping", value.Line)
	}
	data, err := json.Marshal(yamlValue(value))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return r.UnmarshalJSON(data)
}

// yamlValue converts a yaml node into plain values encoding/json accepts
func yamlValue(n *yaml.Node) interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = yamlValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		items := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, yamlValue(c))
		}
		return items
	}

	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool", "!!int", "!!float":
		var v interface{}
		if err := n.Decode(&v); err == nil {
			return v
		}
	}
	return n.Value
}

// nullableString is lenientString, except an explicit null is kept as an
// empty string so a patch can clear the field
func nullableString(raw json.RawMessage) *string {
	if string(raw) == "null" {
		return StringPtr("")
	}
	return lenientString(raw)
}

func lenientComments(raw json.RawMessage) []Comment {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}
	comments := make([]Comment, 0, len(items))
	for _, item := range items {
		var c Comment
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		comments = append(comments, c)
	}
	return comments
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
