package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/taskmirror/types"
)

// readInput loads a JSON or YAML file. "-" reads stdin.
func readInput(path string, stdin io.Reader) ([]byte, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("--file is required")
	}
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return data, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, strings.ToLower(filepath.Ext(path)), nil
}

// decodeRecords decodes either a single object or a list of objects.
// YAML is used for .yaml/.yml files and for stdin input that is not JSON.
func decodeRecords[T any](data []byte, ext string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("input is empty")
	}

	isYAML := ext == ".yaml" || ext == ".yml" ||
		(ext == "" && trimmed[0] != '[' && trimmed[0] != '{')

	if isYAML {
		var list []T
		if err := yaml.Unmarshal(trimmed, &list); err == nil {
			return list, nil
		}
		var one T
		if err := yaml.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		return []T{one}, nil
	}

	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return list, nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return []T{one}, nil
}

// outputResult writes v in the configured format. table renders with the
// supplied function.
func outputResult(w io.Writer, format string, v interface{}, table func(tw *tabwriter.Writer)) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func taskTable(tasks []types.Task) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(tasks) == 0 {
			fmt.Fprintln(tw, "No tasks.")
			return
		}
		fmt.Fprintln(tw, "ID\tPROJECT\tSTATUS\tPRIORITY\tNAME\tASSIGNEE\tUPDATED")
		for _, t := range tasks {
			assignee := "-"
			if t.AssigneeUsername != nil {
				assignee = *t.AssigneeUsername
			} else if t.AssignedTo != nil {
				assignee = *t.AssignedTo
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.TaskID, t.ProjectID, t.Status, t.Priority, t.Name, assignee, t.UpdatedAt)
		}
	}
}

func projectTable(projects []types.Project) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(projects) == 0 {
			fmt.Fprintln(tw, "No projects.")
			return
		}
		fmt.Fprintln(tw, "ID\tNAME\tROLE\tMEMBERS")
		for _, p := range projects {
			role := p.Role
			if role == "" {
				role = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ProjectID, p.Name, role, len(p.Members))
		}
	}
}
