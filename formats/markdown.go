package formats

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/taskmirror/types"
)

// Markdown renders a board as a document with one section per column.
// Tasks are list items; comments are counted, not reproduced.
var Markdown = &BoardFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(board Board) string {
		var result strings.Builder

		result.WriteString("# " + board.title() + "\n")
		if board.Project.Description != "" {
			result.WriteString("\n" + board.Project.Description + "\n")
		}

		for _, status := range types.Statuses {
			tasks := board.Columns[status]
			result.WriteString(fmt.Sprintf("\n## %s (%d)\n\n", status.DisplayName(), len(tasks)))

			if len(tasks) == 0 {
				result.WriteString("_No tasks_\n")
				continue
			}
			for _, task := range tasks {
				result.WriteString(markdownItem(task))
			}
		}

		return result.String()
	},
}

func init() {
	if err := Register(Markdown); err != nil {
		panic(fmt.Sprintf("failed to register Markdown format: %v", err))
	}
}

func markdownItem(task types.Task) string {
	var item strings.Builder
	item.WriteString("- ")
	if task.Status == types.StatusDone {
		item.WriteString("[x] ")
	} else {
		item.WriteString("[ ] ")
	}
	item.WriteString(fmt.Sprintf("**%s** `%s` (%s)", task.Name, task.TaskID, task.Priority))
	if who := assignee(task); who != "" {
		item.WriteString(" @" + who)
	}
	switch n := len(task.Comments); n {
	case 0:
	case 1:
		item.WriteString(" (1 comment)")
	default:
		item.WriteString(fmt.Sprintf(" (%d comments)", n))
	}
	item.WriteString("\n")
	return item.String()
}
