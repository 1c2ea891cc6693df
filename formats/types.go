package formats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/taskmirror/types"
)

// Board is what a renderer draws: one project's tasks keyed by column
type Board struct {
	Project types.Project
	Columns map[types.Status][]types.Task
}

// BoardFormat defines how a board is rendered as text
type BoardFormat struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".txt", ".md")
	Extension string

	// Render draws the board. Columns appear in board order whether or not
	// they hold tasks.
	Render func(board Board) string
}

// registry holds all available board formats
var registry = make(map[string]*BoardFormat)

// Register adds a new board format to the registry
func Register(format *BoardFormat) error {
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}

	if !strings.HasPrefix(format.Extension, ".") {
		format.Extension = "." + format.Extension
	}

	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}

	registry[format.Name] = format
	return nil
}

// Get returns a board format by name
func Get(name string) (*BoardFormat, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return format, nil
}

// List returns all registered format names, sorted
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// title is the project heading shared by every format
func (b Board) title() string {
	name := b.Project.Name
	if name == "" {
		name = "Untitled project"
	}
	if b.Project.ProjectID.IsZero() {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, b.Project.ProjectID)
}

// assignee returns the display name of a task's assignee, if any
func assignee(task types.Task) string {
	if task.AssigneeUsername != nil && *task.AssigneeUsername != "" {
		return *task.AssigneeUsername
	}
	if task.AssignedTo != nil {
		return *task.AssignedTo
	}
	return ""
}
