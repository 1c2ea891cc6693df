package search_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/taskmirror/internal/validation"
	"github.com/arthur-debert/taskmirror/search"
	"github.com/arthur-debert/taskmirror/testutil"
	"github.com/arthur-debert/taskmirror/types"
)

// mockProvider serves fixed tasks per user
type mockProvider struct {
	tasks map[string][]types.Task
}

func (m *mockProvider) GetTasks(userID string) []types.Task {
	return m.tasks[userID]
}

func sampleEngine() *search.Engine {
	return search.NewEngine(&mockProvider{tasks: map[string][]types.Task{
		"ada": {
			{TaskID: "desc", Name: "Plan offsite", Description: "Discuss the budget"},
			{TaskID: "name", Name: "Budget review"},
			{TaskID: "comment", Name: "Hire designer", Comments: []types.Comment{{ID: "c1", Text: "budget approved"}}},
			{TaskID: "none", Name: "Unrelated"},
		},
	}})
}

func resultIDs(results []search.Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Task.TaskID.String()
	}
	return ids
}

func TestEngineSearch(t *testing.T) {
	engine := sampleEngine()

	t.Run("ranks name over comment over description", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{Query: "budget"})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"name", "comment", "desc"}, resultIDs(results)); diff != "" {
			t.Fatalf("order mismatch (-want +got):\n%s", diff)
		}
		wantTypes := []search.MatchType{search.MatchPartialName, search.MatchComment, search.MatchPartialDescription}
		for i, r := range results {
			if r.MatchType != wantTypes[i] {
				t.Errorf("result %d: expected %s, got %s", i, wantTypes[i], r.MatchType)
			}
		}
		if results[0].Score != 1.0 {
			t.Errorf("expected name score 1.0, got %v", results[0].Score)
		}
	})

	t.Run("case sensitive", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{Query: "Budget", CaseSensitive: true})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"name"}, resultIDs(results)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("exact match", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{Query: "budget review", ExactMatch: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].MatchType != search.MatchExactName {
			t.Errorf("expected one exact name match, got %+v", results)
		}
	})

	t.Run("field restriction", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{Query: "budget", Fields: []string{search.FieldDescription}})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"desc"}, resultIDs(results)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("highlight", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{
			Query:           "get",
			Fields:          []string{search.FieldName},
			EnableHighlight: true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Fatalf("expected one result, got %d", len(results))
		}
		if got := results[0].Highlights[search.FieldName]; got != "Bud**get** review" {
			t.Errorf("unexpected highlight %q", got)
		}
	})

	t.Run("custom markers", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{
			Query:                "offsite",
			EnableHighlight:      true,
			HighlightStartMarker: "<",
			HighlightEndMarker:   ">",
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := results[0].Highlights[search.FieldName]; got != "Plan <offsite>" {
			t.Errorf("unexpected highlight %q", got)
		}
	})

	t.Run("max results", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{Query: "budget", MaxResults: 1})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"name"}, resultIDs(results)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		results, err := engine.Search("ada", search.Options{Query: "  "})
		if err != nil || len(results) != 0 {
			t.Errorf("expected no results and no error, got %v, %v", results, err)
		}
	})

	t.Run("other users see nothing", func(t *testing.T) {
		results, err := engine.Search("grace", search.Options{Query: "budget"})
		if err != nil || len(results) != 0 {
			t.Errorf("expected no results, got %v, %v", results, err)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := engine.Search("", search.Options{Query: "budget"}); !errors.Is(err, validation.ErrEmptyUserID) {
			t.Errorf("expected ErrEmptyUserID, got %v", err)
		}
		if _, err := engine.Search("ada", search.Options{Query: "budget", Fields: []string{"title"}}); err == nil {
			t.Error("expected error for unknown field")
		}
	})
}

func TestEngineSearchCache(t *testing.T) {
	cache, data := testutil.LoadBoard(t)
	engine := search.NewEngine(cache)

	results, err := engine.Search(testutil.FixtureUser, search.Options{Query: "grace"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{data.ColorPalette.TaskID.String()}, resultIDs(results)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if results[0].MatchType != search.MatchAssignee {
		t.Errorf("expected assignee match, got %s", results[0].MatchType)
	}

	results, err = engine.Search(testutil.FixtureUser, search.Options{Query: "green", Fields: []string{search.FieldComments}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{data.SetupCI.TaskID.String()}, resultIDs(results)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
