// Package search finds cached tasks by text. Matches are ranked so that a
// hit in a task's name outranks one in its description or comments.
package search

import "github.com/arthur-debert/taskmirror/types"

// Searchable task fields
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldComments    = "comments"
	FieldAssignee    = "assignee"
)

// DefaultFields are searched when Options.Fields is empty
var DefaultFields = []string{FieldName, FieldDescription, FieldComments, FieldAssignee}

// Options configures search behavior
type Options struct {
	// Query is the text to look for
	Query string

	// Fields restricts which fields are searched; empty means DefaultFields
	Fields []string

	// CaseSensitive controls whether search is case-sensitive
	CaseSensitive bool

	// ExactMatch requires the entire field to match the query.
	// When false, performs substring matching.
	ExactMatch bool

	// EnableHighlight includes highlighted field text in results
	EnableHighlight bool

	// HighlightStartMarker and HighlightEndMarker wrap each match; both
	// default to "**"
	HighlightStartMarker string
	HighlightEndMarker   string

	// MaxResults limits the number of results; zero means no limit
	MaxResults int
}

// Result is a matched task with ranking metadata
type Result struct {
	Task types.Task `json:"task" yaml:"task"`

	// Score is the match relevance, 0.0 to 1.0, higher is better
	Score float64 `json:"score" yaml:"score"`

	// MatchType describes the best match found
	MatchType MatchType `json:"match_type" yaml:"match_type"`

	// MatchedFields lists all fields that contained matches
	MatchedFields []string `json:"matched_fields" yaml:"matched_fields"`

	// Highlights maps field name to text with match markers
	Highlights map[string]string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// MatchType indicates where a match was found
type MatchType string

const (
	MatchExactName          MatchType = "exact_name"
	MatchPartialName        MatchType = "partial_name"
	MatchExactDescription   MatchType = "exact_description"
	MatchPartialDescription MatchType = "partial_description"
	MatchComment            MatchType = "comment"
	MatchAssignee           MatchType = "assignee"
)

// TaskProvider supplies the tasks to search. *mirror.Cache satisfies it.
type TaskProvider interface {
	GetTasks(userID string) []types.Task
}

// matchInfo is one occurrence of the query in a field
type matchInfo struct {
	start int
	end   int
	score float64
}
