package types

import "strings"

// Status is the board column a task sits in
type Status string

const (
	StatusBacklog    Status = "BACKLOG"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInTesting  Status = "IN_TESTING"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in board column order
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusInTesting, StatusDone}

var statusDisplayNames = map[Status]string{
	StatusBacklog:    "Backlog",
	StatusInProgress: "In Progress",
	StatusInTesting:  "In Testing",
	StatusDone:       "Done",
}

// ParseStatus matches s against the fixed status set. Matching ignores case
// and surrounding whitespace and accepts dashes or spaces for underscores,
// so "in progress" and "In-Progress" both resolve to IN_PROGRESS.
func ParseStatus(s string) (Status, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, st := range Statuses {
		if string(st) == normalized {
			return st, true
		}
	}
	return "", false
}

// Valid reports whether the status is one of the fixed values
func (s Status) Valid() bool {
	_, ok := statusDisplayNames[s]
	return ok
}

// DisplayName returns the human label used for board column headings
func (s Status) DisplayName() string {
	if name, ok := statusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// Priority orders tasks within a board column
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority matches s against the fixed priority set, ignoring case
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

// Weight ranks priorities for sorting. Unknown values rank as MEDIUM.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}
