package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/taskmirror/internal/validation"
	"github.com/arthur-debert/taskmirror/types"
)

// Engine searches one user's cached tasks
type Engine struct {
	provider TaskProvider
}

// NewEngine creates a new search engine over provider
func NewEngine(provider TaskProvider) *Engine {
	return &Engine{
		provider: provider,
	}
}

// Search returns userID's tasks matching options.Query, best first. Tasks
// with equal scores keep their cache order.
func (e *Engine) Search(userID string, options Options) ([]Result, error) {
	if err := validation.UserID(userID); err != nil {
		return nil, err
	}

	fields := options.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	for _, f := range fields {
		if !isField(f) {
			return nil, fmt.Errorf("unknown search field %q (expected one of %s)", f, strings.Join(DefaultFields, ", "))
		}
	}

	if strings.TrimSpace(options.Query) == "" {
		return []Result{}, nil
	}

	results := []Result{}
	for _, task := range e.provider.GetTasks(userID) {
		if result := e.searchTask(task, fields, options); result != nil {
			results = append(results, *result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if options.MaxResults > 0 && len(results) > options.MaxResults {
		results = results[:options.MaxResults]
	}
	return results, nil
}

func isField(name string) bool {
	for _, f := range DefaultFields {
		if f == name {
			return true
		}
	}
	return false
}

// searchTask returns a result if any field of task matches
func (e *Engine) searchTask(task types.Task, fields []string, options Options) *Result {
	startMarker := options.HighlightStartMarker
	endMarker := options.HighlightEndMarker
	if startMarker == "" {
		startMarker = "**"
	}
	if endMarker == "" {
		endMarker = "**"
	}

	var result *Result
	for _, field := range fields {
		text, matchType := fieldText(task, field)
		if text == "" {
			continue
		}

		matches := e.findMatches(text, options.Query, field, options)
		if len(matches) == 0 {
			continue
		}

		if result == nil {
			result = &Result{Task: task, MatchedFields: []string{}}
			if options.EnableHighlight {
				result.Highlights = make(map[string]string)
			}
		}
		result.MatchedFields = append(result.MatchedFields, field)
		if options.EnableHighlight {
			result.Highlights[field] = highlight(text, matches, startMarker, endMarker)
		}

		for _, m := range matches {
			if m.score > result.Score {
				result.Score = m.score
				result.MatchType = matchType
				if options.ExactMatch {
					result.MatchType = exactType(matchType)
				}
			}
		}
	}
	return result
}

// fieldText extracts the searchable text of a field
func fieldText(task types.Task, field string) (string, MatchType) {
	switch field {
	case FieldName:
		return task.Name, MatchPartialName
	case FieldDescription:
		return task.Description, MatchPartialDescription
	case FieldComments:
		texts := make([]string, 0, len(task.Comments))
		for _, c := range task.Comments {
			texts = append(texts, c.Text)
		}
		return strings.Join(texts, "\n"), MatchComment
	case FieldAssignee:
		if task.AssigneeUsername != nil {
			return *task.AssigneeUsername, MatchAssignee
		}
	}
	return "", ""
}

func exactType(t MatchType) MatchType {
	switch t {
	case MatchPartialName:
		return MatchExactName
	case MatchPartialDescription:
		return MatchExactDescription
	}
	return t
}

// calculateScore computes the relevance of a match in field
func (e *Engine) calculateScore(fieldValue, query, field string) float64 {
	baseScore := 0.5
	if field == FieldName {
		baseScore = 0.8
	}

	// Same case as typed
	if strings.Contains(fieldValue, query) {
		baseScore += 0.2
	}

	if strings.HasPrefix(strings.ToLower(fieldValue), strings.ToLower(query)) {
		baseScore += 0.2
	}

	// The query covers most of the field
	if float64(len(query))/float64(len(fieldValue)) > 0.5 {
		baseScore += 0.1
	}

	if baseScore > 1.0 {
		baseScore = 1.0
	}
	return baseScore
}

// findMatches finds every non-overlapping occurrence of query in text
func (e *Engine) findMatches(text, query, field string, options Options) []matchInfo {
	searchText, searchQuery := text, query
	if !options.CaseSensitive {
		searchText = strings.ToLower(text)
		searchQuery = strings.ToLower(query)
	}

	queryLen := len(searchQuery)
	if queryLen == 0 {
		return nil
	}

	if options.ExactMatch {
		if searchText == searchQuery {
			return []matchInfo{{start: 0, end: len(text), score: 1.0}}
		}
		return nil
	}

	score := e.calculateScore(text, query, field)

	// Lowercasing can shift byte offsets outside ASCII; report one match
	// without a highlight span then
	if len(searchText) != len(text) {
		if strings.Contains(searchText, searchQuery) {
			return []matchInfo{{score: score}}
		}
		return nil
	}

	var matches []matchInfo
	for i := 0; i <= len(searchText)-queryLen; i++ {
		if searchText[i:i+queryLen] == searchQuery {
			matches = append(matches, matchInfo{start: i, end: i + queryLen, score: score})
			i += queryLen - 1
		}
	}
	return matches
}

// highlight wraps each match in markers
func highlight(text string, matches []matchInfo, startMarker, endMarker string) string {
	var builder strings.Builder
	lastEnd := 0
	for _, m := range matches {
		if m.end <= m.start {
			continue
		}
		builder.WriteString(text[lastEnd:m.start])
		builder.WriteString(startMarker)
		builder.WriteString(text[m.start:m.end])
		builder.WriteString(endMarker)
		lastEnd = m.end
	}
	builder.WriteString(text[lastEnd:])
	return builder.String()
}
