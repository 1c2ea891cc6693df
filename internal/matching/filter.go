// Package matching selects cached tasks by field values, as in
// "status=in_progress" or "assignee=grace".
package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/taskmirror/types"
)

// Wildcard matches any value, including an empty one
const Wildcard = "*"

// Filterable task fields
const (
	FieldProject  = "project"
	FieldStatus   = "status"
	FieldPriority = "priority"
	FieldAssignee = "assignee"
	FieldCreator  = "creator"
)

var knownFields = map[string]bool{
	FieldProject:  true,
	FieldStatus:   true,
	FieldPriority: true,
	FieldAssignee: true,
	FieldCreator:  true,
}

// Fields returns the filterable field names, sorted
func Fields() []string {
	fields := make([]string, 0, len(knownFields))
	for f := range knownFields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Filter requires a task field to hold a value
type Filter struct {
	Field string
	Value string
}

// String renders the filter in field=value form
func (f Filter) String() string {
	return f.Field + "=" + f.Value
}

// ParseFilter reads a "field=value" expression. An empty value selects
// tasks where the field is unset, which only makes sense for assignee.
func ParseFilter(s string) (Filter, error) {
	field, value, ok := strings.Cut(s, "=")
	if !ok {
		return Filter{}, fmt.Errorf("invalid filter %q: expected field=value", s)
	}
	f := Filter{
		Field: strings.ToLower(strings.TrimSpace(field)),
		Value: strings.TrimSpace(value),
	}
	if !knownFields[f.Field] {
		return Filter{}, fmt.Errorf("unknown filter field %q (expected one of %s)", f.Field, strings.Join(Fields(), ", "))
	}

	// Resolve enum spellings up front so matching is a plain comparison
	switch f.Field {
	case FieldStatus:
		if f.Value != Wildcard {
			st, ok := types.ParseStatus(f.Value)
			if !ok {
				return Filter{}, fmt.Errorf("invalid status %q in filter", f.Value)
			}
			f.Value = string(st)
		}
	case FieldPriority:
		if f.Value != Wildcard {
			p, ok := types.ParsePriority(f.Value)
			if !ok {
				return Filter{}, fmt.Errorf("invalid priority %q in filter", f.Value)
			}
			f.Value = string(p)
		}
	}
	return f, nil
}

// Matcher applies a conjunction of filters
type Matcher struct {
	filters []Filter
}

// NewMatcher creates a matcher for the given filters
func NewMatcher(filters ...Filter) *Matcher {
	return &Matcher{filters: filters}
}

// ParseMatcher builds a matcher from field=value expressions
func ParseMatcher(exprs []string) (*Matcher, error) {
	filters := make([]Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return NewMatcher(filters...), nil
}

// Matches reports whether task satisfies every filter.
// No filters means everything matches.
func (m *Matcher) Matches(task types.Task) bool {
	for _, f := range m.filters {
		if f.Value == Wildcard {
			continue
		}
		if !matchField(task, f) {
			return false
		}
	}
	return true
}

// Apply returns the matching tasks in their original order
func (m *Matcher) Apply(tasks []types.Task) []types.Task {
	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if m.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func matchField(task types.Task, f Filter) bool {
	switch f.Field {
	case FieldProject:
		return task.ProjectID == types.ID(f.Value)
	case FieldStatus:
		return string(task.Status) == f.Value
	case FieldPriority:
		return string(task.Priority) == f.Value
	case FieldCreator:
		return strings.EqualFold(task.CreatorUsername, f.Value)
	case FieldAssignee:
		if f.Value == "" {
			return task.AssignedTo == nil && task.AssigneeUsername == nil
		}
		// Either the user id or the display name will do
		if task.AssignedTo != nil && *task.AssignedTo == f.Value {
			return true
		}
		return task.AssigneeUsername != nil && strings.EqualFold(*task.AssigneeUsername, f.Value)
	}
	return false
}
