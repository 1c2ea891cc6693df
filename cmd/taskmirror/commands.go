package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/taskmirror/export"
	"github.com/arthur-debert/taskmirror/formats"
	"github.com/arthur-debert/taskmirror/internal/matching"
	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/search"
	"github.com/arthur-debert/taskmirror/types"
)

// addCommands adds all subcommands to the root command
func (c *CLI) addCommands() {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and edit cached tasks",
	}
	tasksCmd.AddCommand(
		c.createTasksListCommand(),
		c.createTasksSearchCommand(),
		c.createTasksAddCommand(),
		c.createTasksMergeCommand(),
		c.createTasksUpdateCommand(),
		c.createTasksMoveCommand(),
		c.createTasksDeleteCommand(),
	)

	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List and edit cached projects",
	}
	projectsCmd.AddCommand(
		c.createProjectsListCommand(),
		c.createProjectsSetCommand(),
		c.createProjectsDeleteCommand(),
	)

	c.rootCmd.AddCommand(
		tasksCmd,
		projectsCmd,
		c.createBoardCommand(),
		c.createStatusCommand(),
		c.createClearCommand(),
		c.createExportCommand(),
		c.createImportCommand(),
	)
}

func (c *CLI) format() string {
	return c.Config().Format
}

func (c *CLI) createTasksListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("list tasks")
			if err != nil {
				return err
			}
			exprs, _ := cmd.Flags().GetStringArray("filter")
			if project, _ := cmd.Flags().GetString("project"); project != "" {
				exprs = append(exprs, matching.FieldProject+"="+project)
			}
			matcher, err := matching.ParseMatcher(exprs)
			if err != nil {
				return &CLIError{
					Operation:   "list tasks",
					Cause:       err.Error(),
					Suggestions: []string{fmt.Sprintf("Filter fields: %v", matching.Fields())},
				}
			}

			tasks := matcher.Apply(c.cache.GetTasks(user))
			return WrapError("list tasks", outputResult(cmd.OutOrStdout(), c.format(), tasks, taskTable(tasks)))
		},
	}
	cmd.Flags().StringP("project", "p", "", "only list tasks of this project")
	cmd.Flags().StringArray("filter", nil, "field=value filter, repeatable (project, status, priority, assignee, creator)")
	return cmd
}

func (c *CLI) createTasksSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search cached tasks by text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("search tasks")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			fields, _ := flags.GetStringSlice("field")
			limit, _ := flags.GetInt("limit")
			exact, _ := flags.GetBool("exact")
			caseSensitive, _ := flags.GetBool("case-sensitive")

			results, err := search.NewEngine(c.cache).Search(user, search.Options{
				Query:           args[0],
				Fields:          fields,
				CaseSensitive:   caseSensitive,
				ExactMatch:      exact,
				EnableHighlight: true,
				MaxResults:      limit,
			})
			if err != nil {
				return NewValidationError("search tasks", "field", fmt.Sprint(fields), fmt.Sprintf("Search fields: %v", search.DefaultFields))
			}

			return outputResult(cmd.OutOrStdout(), c.format(), results, func(tw *tabwriter.Writer) {
				if len(results) == 0 {
					fmt.Fprintln(tw, "No matches.")
					return
				}
				fmt.Fprintln(tw, "SCORE\tID\tPROJECT\tMATCH\tTEXT")
				for _, r := range results {
					text := r.Task.Name
					if len(r.MatchedFields) > 0 {
						text = r.Highlights[r.MatchedFields[0]]
					}
					fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\n", r.Score, r.Task.TaskID, r.Task.ProjectID, r.MatchType, text)
				}
			})
		},
	}
	cmd.Flags().StringSlice("field", nil, "fields to search (name, description, comments, assignee)")
	cmd.Flags().Int("limit", 0, "maximum number of results")
	cmd.Flags().Bool("exact", false, "match whole field values only")
	cmd.Flags().Bool("case-sensitive", false, "match case")
	return cmd
}

func (c *CLI) createTasksAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add tasks from a file, or one task from flags",
		Example: `  taskmirror tasks add --file tasks.yaml
  taskmirror tasks add --project p1 --name "Draft landing copy" --priority high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("add task")
			if err != nil {
				return err
			}

			var records []types.RawTask
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				records, err = readRecords[types.RawTask](cmd, "add task", file)
				if err != nil {
					return err
				}
			} else {
				record, err := taskFromFlags(cmd)
				if err != nil {
					return err
				}
				records = []types.RawTask{record}
			}

			added := make([]types.Task, 0, len(records))
			for i, record := range records {
				if record.ID().IsZero() {
					return NewValidationError("add task", "task_id", fmt.Sprintf("record %d", i+1),
						"Every record needs a task_id", CommonSuggestions.CheckFile)
				}
				c.cache.AddTask(record, user)
				if task, ok := c.cache.Task(record.ID(), user); ok {
					added = append(added, task)
				}
			}
			return outputResult(cmd.OutOrStdout(), c.format(), added, taskTable(added))
		},
	}
	cmd.Flags().String("file", "", "JSON or YAML file with one task or a list of tasks (- for stdin)")
	cmd.Flags().String("id", "", "task id (generated when omitted)")
	cmd.Flags().StringP("project", "p", "", "project id")
	cmd.Flags().String("name", "", "task name")
	cmd.Flags().String("description", "", "task description")
	cmd.Flags().String("status", string(types.StatusBacklog), "initial status")
	cmd.Flags().String("priority", string(types.PriorityMedium), "priority (high|medium|low)")
	return cmd
}

// taskFromFlags builds a new task record from the add flags
func taskFromFlags(cmd *cobra.Command) (types.RawTask, error) {
	flags := cmd.Flags()
	id, _ := flags.GetString("id")
	project, _ := flags.GetString("project")
	name, _ := flags.GetString("name")
	description, _ := flags.GetString("description")
	status, _ := flags.GetString("status")
	priority, _ := flags.GetString("priority")

	if project == "" {
		return types.RawTask{}, NewValidationError("add task", "project", project, "Pass --project or use --file")
	}
	if name == "" {
		return types.RawTask{}, NewValidationError("add task", "name", name, "Pass --name or use --file")
	}
	st, ok := types.ParseStatus(status)
	if !ok {
		return types.RawTask{}, NewValidationError("add task", "status", status, statusSuggestion())
	}
	pr, ok := types.ParsePriority(priority)
	if !ok {
		return types.RawTask{}, NewValidationError("add task", "priority", priority, "Use HIGH, MEDIUM or LOW")
	}
	if id == "" {
		id = uuid.NewString()
	}

	stamp := mirror.Timestamp(now())
	return types.RawTask{
		TaskID:      types.IDPtr(id),
		ProjectID:   types.IDPtr(project),
		Name:        types.StringPtr(name),
		Description: types.StringPtr(description),
		Status:      types.StringPtr(string(st)),
		Priority:    types.StringPtr(string(pr)),
		CreatedAt:   types.StringPtr(stamp),
		UpdatedAt:   types.StringPtr(stamp),
	}, nil
}

func (c *CLI) createTasksMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a fetched task list into the cache",
		Long: `Merge reconciles a task list, as returned by the server, with the cache.
A cached task is replaced only when the incoming copy is strictly newer;
unknown tasks are appended.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("merge tasks")
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			records, err := readRecords[types.RawTask](cmd, "merge tasks", file)
			if err != nil {
				return err
			}
			tasks := c.cache.MergeWithCache(records, user)
			return outputResult(cmd.OutOrStdout(), c.format(), tasks, taskTable(tasks))
		},
	}
	cmd.Flags().String("file", "", "JSON or YAML file with the fetched tasks (- for stdin)")
	return cmd
}

func (c *CLI) createTasksUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply partial task updates from a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("update task")
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			records, err := readRecords[types.RawTask](cmd, "update task", file)
			if err != nil {
				return err
			}

			updated := make([]types.Task, 0, len(records))
			for _, record := range records {
				id := record.ID()
				if _, ok := c.cache.Task(id, user); !ok {
					return NewNotFoundError("update task", "task", id.String(), CommonSuggestions.CheckID)
				}
				c.cache.UpdateTask(record, user)
				if task, ok := c.cache.Task(id, user); ok {
					updated = append(updated, task)
				}
			}
			return outputResult(cmd.OutOrStdout(), c.format(), updated, taskTable(updated))
		},
	}
	cmd.Flags().String("file", "", "JSON or YAML file with partial task records (- for stdin)")
	return cmd
}

func (c *CLI) createTasksMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task to another board column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("move task")
			if err != nil {
				return err
			}
			id := types.ID(args[0])
			status, ok := types.ParseStatus(args[1])
			if !ok {
				return NewValidationError("move task", "status", args[1], statusSuggestion())
			}
			if _, ok := c.cache.Task(id, user); !ok {
				return NewNotFoundError("move task", "task", id.String(), CommonSuggestions.CheckID)
			}

			c.cache.UpdateTask(types.RawTask{
				TaskID:    &id,
				Status:    types.StringPtr(string(status)),
				UpdatedAt: types.StringPtr(mirror.Timestamp(now())),
			}, user)

			task, _ := c.cache.Task(id, user)
			return outputResult(cmd.OutOrStdout(), c.format(), task, taskTable([]types.Task{task}))
		},
	}
}

func (c *CLI) createTasksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Remove a task from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("delete task")
			if err != nil {
				return err
			}
			id := types.ID(args[0])
			if _, ok := c.cache.Task(id, user); !ok {
				return NewNotFoundError("delete task", "task", id.String(), CommonSuggestions.CheckID)
			}
			c.cache.DeleteTask(id, user)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
}

func (c *CLI) createProjectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("list projects")
			if err != nil {
				return err
			}
			projects := c.cache.GetProjects(user)
			return WrapError("list projects", outputResult(cmd.OutOrStdout(), c.format(), projects, projectTable(projects)))
		},
	}
}

func (c *CLI) createProjectsSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the cached project list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("set projects")
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			records, err := readRecords[types.RawProject](cmd, "set projects", file)
			if err != nil {
				return err
			}
			projects := c.cache.SetProjects(records, user)
			return outputResult(cmd.OutOrStdout(), c.format(), projects, projectTable(projects))
		},
	}
	cmd.Flags().String("file", "", "JSON or YAML file with the project list (- for stdin)")
	return cmd
}

func (c *CLI) createProjectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Remove a project and its tasks from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("delete project")
			if err != nil {
				return err
			}
			id := types.ID(args[0])
			if _, ok := c.cache.Project(id, user); !ok {
				return NewNotFoundError("delete project", "project", id.String(), CommonSuggestions.CheckID)
			}
			before := len(c.cache.GetTasks(user))
			c.cache.DeleteProject(id, user)
			removed := before - len(c.cache.GetTasks(user))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s and %d task(s)\n", id, removed)
			return nil
		},
	}
}

// boardOutput is the structured form of a board for json and yaml output
type boardOutput struct {
	Project types.Project                 `json:"project" yaml:"project"`
	Columns map[types.Status][]types.Task `json:"columns" yaml:"columns"`
}

func (c *CLI) createBoardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board <project-id>",
		Short: "Render a project's board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("render board")
			if err != nil {
				return err
			}
			id := types.ID(args[0])
			style, _ := cmd.Flags().GetString("style")
			renderer, err := formats.Get(style)
			if err != nil {
				return NewValidationError("render board", "style", style, fmt.Sprintf("Use one of: %v", formats.List()))
			}

			columns := c.cache.Board(user, id)
			project, ok := c.cache.Project(id, user)
			if !ok {
				if columns.Count() == 0 {
					return NewNotFoundError("render board", "project", id.String(), CommonSuggestions.CheckID)
				}
				project = types.Project{ProjectID: id, Members: []types.Member{}}
			}

			switch c.format() {
			case "json", "yaml":
				return outputResult(cmd.OutOrStdout(), c.format(), boardOutput{Project: project, Columns: columns}, nil)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderer.Render(formats.Board{Project: project, Columns: columns}))
			return err
		},
	}
	cmd.Flags().String("style", "plaintext", "board style (plaintext|markdown)")
	return cmd
}

// statusOutput summarizes a user's partition
type statusOutput struct {
	User     string `json:"user" yaml:"user"`
	Backend  string `json:"backend" yaml:"backend"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	LastSync string `json:"last_sync" yaml:"last_sync"`
	Fresh    bool   `json:"fresh" yaml:"fresh"`
	TTL      string `json:"ttl" yaml:"ttl"`
	Policy   string `json:"policy" yaml:"policy"`
	Tasks    int    `json:"tasks" yaml:"tasks"`
	Projects int    `json:"projects" yaml:"projects"`
}

func (c *CLI) createStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state and counts for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("show status")
			if err != nil {
				return err
			}
			cfg := c.Config()

			out := statusOutput{
				User:     user,
				Backend:  cfg.Backend,
				Path:     cfg.Path,
				LastSync: "never",
				Fresh:    c.cache.IsFresh(user),
				TTL:      cfg.TTL.String(),
				Policy:   c.cache.Policy().String(),
				Tasks:    len(c.cache.GetTasks(user)),
				Projects: len(c.cache.GetProjects(user)),
			}
			if at, ok := c.cache.LastSync(user); ok {
				out.LastSync = at.UTC().Format(time.RFC3339)
			}

			return outputResult(cmd.OutOrStdout(), c.format(), out, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "User:\t%s\n", out.User)
				fmt.Fprintf(tw, "Backend:\t%s\n", out.Backend)
				if out.Path != "" {
					fmt.Fprintf(tw, "Path:\t%s\n", out.Path)
				}
				fmt.Fprintf(tw, "Last sync:\t%s\n", out.LastSync)
				fmt.Fprintf(tw, "Fresh:\t%t (ttl %s)\n", out.Fresh, out.TTL)
				fmt.Fprintf(tw, "Policy:\t%s\n", out.Policy)
				fmt.Fprintf(tw, "Tasks:\t%d\n", out.Tasks)
				fmt.Fprintf(tw, "Projects:\t%d\n", out.Projects)
			})
		},
	}
}

func (c *CLI) createClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a user's cached data (or everyone's with --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all, _ := cmd.Flags().GetBool("all"); all {
				c.cache.ClearAll()
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared all cached data")
				return nil
			}
			user, err := c.requireUser("clear cache")
			if err != nil {
				return err
			}
			c.cache.ClearCache(user)
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared cached data for %s\n", user)
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "clear every user's partition")
	return cmd
}

func (c *CLI) createExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's partition and rendered boards to a zip archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("export")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			output, _ := flags.GetString("output")
			style, _ := flags.GetString("style")
			projects, _ := flags.GetStringSlice("project")

			format, err := formats.Get(style)
			if err != nil {
				return NewValidationError("export", "style", style, fmt.Sprintf("Use one of: %v", formats.List()))
			}
			opts := export.Options{Format: format, Now: now}
			for _, p := range projects {
				opts.Projects = append(opts.Projects, types.ID(p))
			}

			archive, err := export.Generate(c.cache, user, opts)
			if err != nil {
				return NewNotFoundError("export", "project", fmt.Sprint(projects), CommonSuggestions.CheckID)
			}
			if output == "" {
				output = archive.Filename
			}
			if err := export.WriteArchive(archive, output); err != nil {
				return WrapError("export", err, CommonSuggestions.CheckPerms)
			}

			c.logger.Info("exported partition", "user", user, "path", output,
				"tasks", len(archive.Snapshot.Tasks), "boards", len(archive.Boards))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) and %d board(s) to %s\n",
				len(archive.Snapshot.Tasks), len(archive.Boards), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "archive path (defaults to a timestamped name in the current directory)")
	cmd.Flags().String("style", "plaintext", "board style (plaintext|markdown)")
	cmd.Flags().StringSlice("project", nil, "only export these projects")
	return cmd
}

func (c *CLI) createImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Load a partition from an export archive",
		Long: `Import reads an archive written by export into the current user's
partition. Tasks are merged by timestamp unless --replace is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.requireUser("import")
			if err != nil {
				return err
			}
			replace, _ := cmd.Flags().GetBool("replace")

			archive, err := export.ReadArchive(args[0])
			if err != nil {
				return WrapError("import", err, CommonSuggestions.CheckFile)
			}
			if err := export.Restore(c.cache, user, archive.Snapshot, replace); err != nil {
				return WrapError("import", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s) and %d project(s) from %s\n",
				len(archive.Snapshot.Tasks), len(archive.Snapshot.Projects), archive.Filename)
			return nil
		},
	}
	cmd.Flags().Bool("replace", false, "overwrite the partition instead of merging")
	return cmd
}

// readRecords loads records from --file
func readRecords[T any](cmd *cobra.Command, operation, file string) ([]T, error) {
	data, ext, err := readInput(file, cmd.InOrStdin())
	if err != nil {
		return nil, &CLIError{
			Operation:   operation,
			Cause:       "cannot read input",
			Details:     err.Error(),
			Suggestions: []string{CommonSuggestions.CheckFile},
			Underlying:  err,
		}
	}
	records, err := decodeRecords[T](data, ext)
	if err != nil {
		return nil, &CLIError{
			Operation:   operation,
			Cause:       "cannot parse input",
			Details:     err.Error(),
			Suggestions: []string{CommonSuggestions.CheckFile},
			Underlying:  err,
		}
	}
	return records, nil
}

func statusSuggestion() string {
	names := make([]string, len(types.Statuses))
	for i, s := range types.Statuses {
		names[i] = string(s)
	}
	return fmt.Sprintf("Use one of: %v", names)
}
