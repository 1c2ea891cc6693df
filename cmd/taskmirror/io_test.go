package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/taskmirror/types"
)

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ext     string
		wantIDs []string
		wantErr bool
	}{
		{name: "json list", input: `[{"task_id": "a"}, {"task_id": 7}]`, ext: ".json", wantIDs: []string{"a", "7"}},
		{name: "json object", input: `{"task_id": "a", "name": "one"}`, ext: ".json", wantIDs: []string{"a"}},
		{name: "yaml list", input: "- task_id: a\n- task_id: 7\n", ext: ".yaml", wantIDs: []string{"a", "7"}},
		{name: "yaml object", input: "task_id: 42\nname: answer\n", ext: ".yml", wantIDs: []string{"42"}},
		{name: "stdin json", input: `[{"task_id": "a"}]`, ext: "", wantIDs: []string{"a"}},
		{name: "stdin yaml", input: "task_id: b\n", ext: "", wantIDs: []string{"b"}},
		{name: "empty", input: "  \n", ext: ".json", wantErr: true},
		{name: "malformed json", input: `[{"task_id": }]`, ext: ".json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := decodeRecords[types.RawTask]([]byte(tt.input), tt.ext)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d records", len(records))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.ID().String()
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRecordsNullAssignee(t *testing.T) {
	inputs := map[string]string{
		".json": `{"task_id": "t2", "assigned_to": null}`,
		".yaml": "task_id: t2\nassigned_to: null\n",
	}
	for ext, input := range inputs {
		t.Run(ext, func(t *testing.T) {
			records, err := decodeRecords[types.RawTask]([]byte(input), ext)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("expected one record, got %d", len(records))
			}
			if records[0].AssignedTo == nil || *records[0].AssignedTo != "" {
				t.Errorf("expected null assignee to be supplied as empty, got %v", records[0].AssignedTo)
			}
		})
	}
}

func TestReadInput(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		data, ext, err := readInput("-", strings.NewReader(`{"task_id": "a"}`))
		if err != nil {
			t.Fatal(err)
		}
		if ext != "" || string(data) != `{"task_id": "a"}` {
			t.Errorf("unexpected stdin read: %q %q", ext, data)
		}
	})

	t.Run("extension is lowercased", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "TASKS.YAML", "task_id: a\n")
		_, ext, err := readInput(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		if ext != ".yaml" {
			t.Errorf("expected .yaml, got %q", ext)
		}
	})

	t.Run("missing flag", func(t *testing.T) {
		if _, _, err := readInput("", nil); err == nil {
			t.Error("expected error without a path")
		}
	})
}

func TestOutputResult(t *testing.T) {
	assignee := "grace"
	tasks := []types.Task{
		{TaskID: "t1", ProjectID: "p1", Name: "Draft", Status: types.StatusBacklog, Priority: types.PriorityHigh, UpdatedAt: "2024-01-03T00:00:00.000Z"},
		{TaskID: "t2", ProjectID: "p1", Name: "Palette", Status: types.StatusDone, Priority: types.PriorityLow, AssigneeUsername: &assignee},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputResult(&buf, "table", tasks, taskTable(tasks)); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and two rows, got:\n%s", buf.String())
		}
		if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[2], "grace") || !strings.Contains(lines[1], "-") {
			t.Errorf("unexpected table:\n%s", buf.String())
		}
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputResult(&buf, "table", []types.Task{}, taskTable(nil)); err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(buf.String()) != "No tasks." {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputResult(&buf, "yaml", tasks, nil); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "- task_id: t1") || !strings.Contains(out, "assignee_username: grace") {
			t.Errorf("unexpected yaml:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputResult(&buf, "json", tasks[:1], nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), `"task_id": "t1"`) {
			t.Errorf("unexpected json:\n%s", buf.String())
		}
	})
}
