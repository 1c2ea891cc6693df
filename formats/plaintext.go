package formats

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/taskmirror/types"
)

// PlainText renders a board as indented text:
//
//	Website relaunch (p1)
//	=====================
//
//	BACKLOG (2)
//	  [H] t1  Draft landing copy
//	  [L] t4  Review analytics  @grace
var PlainText = &BoardFormat{
	Name:      "plaintext",
	Extension: ".txt",
	Render: func(board Board) string {
		var result strings.Builder

		title := board.title()
		result.WriteString(title)
		result.WriteString("\n")
		result.WriteString(strings.Repeat("=", len([]rune(title))))
		result.WriteString("\n")

		for _, status := range types.Statuses {
			tasks := board.Columns[status]
			result.WriteString("\n")
			result.WriteString(fmt.Sprintf("%s (%d)\n", strings.ToUpper(status.DisplayName()), len(tasks)))

			if len(tasks) == 0 {
				result.WriteString("  (empty)\n")
				continue
			}
			for _, task := range tasks {
				result.WriteString(fmt.Sprintf("  [%s] %s  %s", priorityMarker(task.Priority), task.TaskID, task.Name))
				if who := assignee(task); who != "" {
					result.WriteString("  @")
					result.WriteString(who)
				}
				result.WriteString("\n")
			}
		}

		return result.String()
	},
}

func init() {
	if err := Register(PlainText); err != nil {
		panic(fmt.Sprintf("failed to register PlainText format: %v", err))
	}
}

// priorityMarker abbreviates a priority to one letter
func priorityMarker(p types.Priority) string {
	switch p {
	case types.PriorityHigh:
		return "H"
	case types.PriorityLow:
		return "L"
	default:
		return "M"
	}
}
