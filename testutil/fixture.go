package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/mirror/storage"
	"github.com/arthur-debert/taskmirror/types"
)

// FixtureUser owns every record in the board fixture
const FixtureUser = "user-1"

// FixtureNow is the clock used by caches built from the fixture.
// It is later than every timestamp in board.json.
var FixtureNow = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

// BoardData provides typed access to the board fixture
type BoardData struct {
	// Projects
	Website types.Project // ID: "p1" - owned, two members
	Mobile  types.Project // ID: "2" - numeric id in the fixture

	// Website tasks
	LandingCopy  types.Task // "t1" - BACKLOG, HIGH
	ColorPalette types.Task // "t2" - IN_PROGRESS, assigned to grace
	SetupCI      types.Task // "t3" - DONE, LOW, one comment
	Analytics    types.Task // "t4" - BACKLOG, LOW, newest backlog entry
	BrowserCheck types.Task // "t5" - IN_TESTING, assigned to ada

	// Mobile tasks
	LoginScreen       types.Task // "t6" - IN_PROGRESS, HIGH
	PushNotifications types.Task // "t7" - no status or priority, defaults apply
	OfflineMode       types.Task // "8" - numeric id, lower-case enums

	// RawTasks and RawProjects are the records as read from the file
	RawTasks    []types.RawTask
	RawProjects []types.RawProject

	// ByID maps every task id to its normalized task
	ByID map[types.ID]types.Task
}

type fixtureData struct {
	User     string             `json:"user"`
	Projects []types.RawProject `json:"projects"`
	Tasks    []types.RawTask    `json:"tasks"`
}

// FixedClock returns a clock frozen at FixtureNow
func FixedClock() func() time.Time {
	return func() time.Time { return FixtureNow }
}

// LoadBoard loads the fixture into a fresh in-memory cache
func LoadBoard(t *testing.T, opts ...mirror.Option) (*mirror.Cache, *BoardData) {
	t.Helper()
	cache := mirror.New(storage.NewMemory(), append([]mirror.Option{mirror.WithClock(FixedClock())}, opts...)...)
	return cache, PopulateBoard(t, cache)
}

// PopulateBoard writes the fixture into cache for FixtureUser
func PopulateBoard(t *testing.T, cache *mirror.Cache) *BoardData {
	t.Helper()

	data := readFixture(t)
	projects := cache.SetProjects(data.Projects, data.User)
	tasks := cache.SetTasks(data.Tasks, data.User)
	if len(tasks) != len(data.Tasks) {
		t.Fatalf("fixture: stored %d of %d tasks", len(tasks), len(data.Tasks))
	}

	board := &BoardData{
		RawTasks:    data.Tasks,
		RawProjects: data.Projects,
		ByID:        make(map[types.ID]types.Task, len(tasks)),
	}
	for _, task := range tasks {
		board.ByID[task.TaskID] = task
	}
	for _, p := range projects {
		switch p.ProjectID {
		case "p1":
			board.Website = p
		case "2":
			board.Mobile = p
		}
	}

	board.LandingCopy = board.ByID["t1"]
	board.ColorPalette = board.ByID["t2"]
	board.SetupCI = board.ByID["t3"]
	board.Analytics = board.ByID["t4"]
	board.BrowserCheck = board.ByID["t5"]
	board.LoginScreen = board.ByID["t6"]
	board.PushNotifications = board.ByID["t7"]
	board.OfflineMode = board.ByID["8"]
	return board
}

// TasksOf returns the fixture tasks belonging to projectID, in file order
func (b *BoardData) TasksOf(projectID types.ID) []types.Task {
	var out []types.Task
	for _, raw := range b.RawTasks {
		task := b.ByID[raw.ID()]
		if task.ProjectID == projectID {
			out = append(out, task)
		}
	}
	return out
}

func readFixture(t *testing.T) fixtureData {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate fixture directory")
	}
	raw, err := os.ReadFile(filepath.Join(filepath.Dir(file), "testdata", "board.json"))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	var data fixtureData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return data
}
