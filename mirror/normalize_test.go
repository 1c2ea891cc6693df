package mirror_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/testutil"
	"github.com/arthur-debert/taskmirror/types"
)

func TestCleanTask(t *testing.T) {
	now := testutil.FixtureNow
	stamp := mirror.Timestamp(now)

	t.Run("fills defaults", func(t *testing.T) {
		task, err := mirror.CleanTask(types.RawTask{TaskID: types.IDPtr("1")}, now)
		if err != nil {
			t.Fatalf("CleanTask: %v", err)
		}
		want := types.Task{
			TaskID:    "1",
			Status:    types.StatusBacklog,
			Priority:  types.PriorityMedium,
			Comments:  []types.Comment{},
			CreatedAt: stamp,
			UpdatedAt: stamp,
		}
		if diff := cmp.Diff(want, task); diff != "" {
			t.Errorf("unexpected defaults (-want +got):\n%s", diff)
		}
		if stamp != "2024-02-01T00:00:00.000Z" {
			t.Errorf("Timestamp = %q", stamp)
		}
	})

	t.Run("coerces numeric ids", func(t *testing.T) {
		var raw types.RawTask
		if err := json.Unmarshal([]byte(`{"task_id": 17, "project_id": 4}`), &raw); err != nil {
			t.Fatal(err)
		}
		task, err := mirror.CleanTask(raw, now)
		if err != nil {
			t.Fatalf("CleanTask: %v", err)
		}
		if task.TaskID != "17" || task.ProjectID != "4" {
			t.Errorf("ids not coerced: %q %q", task.TaskID, task.ProjectID)
		}
	})

	t.Run("unknown enums fall back", func(t *testing.T) {
		task, _ := mirror.CleanTask(testutil.NewTask("1", "p", testutil.WithStatus("ARCHIVED"), testutil.WithPriority("urgent")), now)
		if task.Status != types.StatusBacklog || task.Priority != types.PriorityMedium {
			t.Errorf("got %s/%s, want BACKLOG/MEDIUM", task.Status, task.Priority)
		}
	})

	t.Run("enum spelling is normalized", func(t *testing.T) {
		task, _ := mirror.CleanTask(testutil.NewTask("1", "p", testutil.WithStatus("in-testing"), testutil.WithPriority("high")), now)
		if task.Status != types.StatusInTesting || task.Priority != types.PriorityHigh {
			t.Errorf("got %s/%s, want IN_TESTING/HIGH", task.Status, task.Priority)
		}
	})

	t.Run("missing id is an error", func(t *testing.T) {
		_, err := mirror.CleanTask(testutil.NewTask("1", "p", testutil.WithoutID()), now)
		if !errors.Is(err, mirror.ErrMissingTaskID) {
			t.Fatalf("expected ErrMissingTaskID, got %v", err)
		}
		var nerr *mirror.NormalizationError
		if !errors.As(err, &nerr) || nerr.Field != "task_id" {
			t.Errorf("expected NormalizationError on task_id, got %#v", err)
		}

		if _, err := mirror.CleanTask(types.RawTask{TaskID: types.IDPtr("")}, now); err == nil {
			t.Error("empty id should be rejected")
		}
	})

	t.Run("input comments are copied", func(t *testing.T) {
		raw := testutil.NewTask("1", "p")
		raw.Comments = []types.Comment{{ID: "c1", Text: "hi"}}
		task, _ := mirror.CleanTask(raw, now)
		raw.Comments[0].Text = "changed"
		if task.Comments[0].Text != "hi" {
			t.Error("normalized task shares the input's comment slice")
		}
	})
}

func TestCleanTaskIdempotent(t *testing.T) {
	_, board := testutil.LoadBoard(t)
	later := testutil.FixtureNow.AddDate(1, 0, 0)

	for id, task := range board.ByID {
		t.Run(string(id), func(t *testing.T) {
			again, err := mirror.CleanTask(task.Raw(), later)
			if err != nil {
				t.Fatalf("CleanTask: %v", err)
			}
			if diff := cmp.Diff(task, again); diff != "" {
				t.Errorf("normalizing twice changed the task (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestCleanProject(t *testing.T) {
	project, err := mirror.CleanProject(types.RawProject{ProjectID: types.IDPtr("p1")})
	if err != nil {
		t.Fatalf("CleanProject: %v", err)
	}
	if project.Members == nil {
		t.Error("Members should never be nil")
	}

	if _, err := mirror.CleanProject(types.RawProject{Name: types.StringPtr("nameless")}); !errors.Is(err, mirror.ErrMissingProjectID) {
		t.Errorf("expected ErrMissingProjectID, got %v", err)
	}
}

func TestRemoveDuplicateTasks(t *testing.T) {
	tasks := []types.Task{
		{TaskID: "1", Name: "first 1"},
		{TaskID: "2", Name: "first 2"},
		{TaskID: "", Name: "no id"},
		{TaskID: "1", Name: "second 1"},
		{TaskID: "3", Name: "first 3"},
		{TaskID: "2", Name: "second 2"},
	}

	got := mirror.RemoveDuplicateTasks(tasks)
	testutil.AssertTaskIDs(t, got, "1", "2", "3")
	testutil.AssertUniqueIDs(t, got)
	testutil.AssertTaskName(t, got, "1", "first 1")
	testutil.AssertTaskName(t, got, "2", "first 2")

	if len(tasks) != 6 {
		t.Error("input slice was modified")
	}
	if out := mirror.RemoveDuplicateTasks(nil); out == nil || len(out) != 0 {
		t.Errorf("RemoveDuplicateTasks(nil) = %#v, want empty slice", out)
	}
}
