package mirror_test

import (
	"strings"
	"testing"

	"github.com/arthur-debert/taskmirror/testutil"
	"github.com/arthur-debert/taskmirror/types"
)

func TestProjects(t *testing.T) {
	t.Run("set replaces the collection", func(t *testing.T) {
		cache, _ := testutil.LoadBoard(t)
		testutil.AssertProjectIDs(t, cache.GetProjects(testutil.FixtureUser), "p1", "2")

		projects := cache.SetProjects([]types.RawProject{
			testutil.NewProject("p3", "three"),
			testutil.NewProject("p3", "dup"),
			{Name: types.StringPtr("no id")},
		}, testutil.FixtureUser)
		testutil.AssertProjectIDs(t, projects, "p3")
		testutil.AssertProjectIDs(t, cache.GetProjects(testutil.FixtureUser), "p3")
		if projects[0].Name != "three" {
			t.Errorf("expected first occurrence to win, got %q", projects[0].Name)
		}
	})

	t.Run("update merges supplied fields", func(t *testing.T) {
		cache, board := testutil.LoadBoard(t)
		projects := cache.UpdateProject(types.RawProject{
			ProjectID: types.IDPtr("p1"),
			Name:      types.StringPtr("Website 2.0"),
		}, testutil.FixtureUser)

		p, ok := cache.Project("p1", testutil.FixtureUser)
		if !ok {
			t.Fatal("project p1 missing after update")
		}
		if p.Name != "Website 2.0" {
			t.Errorf("name not updated: %q", p.Name)
		}
		if p.Description != board.Website.Description || len(p.Members) != 2 {
			t.Errorf("unsupplied fields changed: %+v", p)
		}
		testutil.AssertProjectIDs(t, projects, "p1", "2")
	})

	t.Run("update of unknown project is refused", func(t *testing.T) {
		cache, _, logs := newCache(t)
		cache.SetProjects([]types.RawProject{testutil.NewProject("p1", "one")}, "u1")
		projects := cache.UpdateProject(testutil.NewProject("ghost", "boo"), "u1")
		testutil.AssertProjectIDs(t, projects, "p1")
		if !strings.Contains(logs.String(), "refusing update") {
			t.Error("expected refused update to be logged")
		}
	})

	t.Run("add appends or updates", func(t *testing.T) {
		cache, _, _ := newCache(t)
		cache.AddProject(testutil.NewProject("p1", "one"), "u1")
		cache.AddProject(testutil.NewProject("p2", "two"), "u1")
		projects := cache.AddProject(testutil.NewProject("p1", "uno"), "u1")

		testutil.AssertProjectIDs(t, projects, "p1", "p2")
		if projects[0].Name != "uno" {
			t.Errorf("duplicate add should update, got %q", projects[0].Name)
		}
		if got := cache.AddProject(types.RawProject{}, "u1"); len(got) != 2 {
			t.Errorf("project without id should be rejected, got %d projects", len(got))
		}
	})
}

func TestDeleteProjectCascades(t *testing.T) {
	cache, board := testutil.LoadBoard(t)

	projects := cache.DeleteProject("2", testutil.FixtureUser)
	testutil.AssertProjectIDs(t, projects, "p1")

	tasks := cache.GetTasks(testutil.FixtureUser)
	for _, task := range tasks {
		if task.ProjectID == "2" {
			t.Errorf("task %s of deleted project survived", task.TaskID)
		}
	}
	testutil.AssertTaskCount(t, tasks, len(board.TasksOf("p1")))
	if _, ok := cache.Project("2", testutil.FixtureUser); ok {
		t.Error("deleted project still cached")
	}
}

func TestDeleteProjectTasks(t *testing.T) {
	cache, _ := testutil.LoadBoard(t)
	tasks := cache.DeleteProjectTasks("p1", testutil.FixtureUser)
	testutil.AssertTaskIDs(t, tasks, "t6", "t7", "8")

	// The project itself stays
	testutil.AssertProjectIDs(t, cache.GetProjects(testutil.FixtureUser), "p1", "2")
}
