package export

import (
	"fmt"
	"time"

	"github.com/arthur-debert/taskmirror/formats"
	"github.com/arthur-debert/taskmirror/internal/validation"
	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/types"
)

// Generate builds the archive contents for userID without writing anything
func Generate(src Source, userID string, options Options) (*Archive, error) {
	if err := validation.UserID(userID); err != nil {
		return nil, err
	}

	format := options.Format
	if format == nil {
		format = formats.PlainText
	}
	now := time.Now
	if options.Now != nil {
		now = options.Now
	}
	exportedAt := now()

	projects, err := selectProjects(src.GetProjects(userID), options.Projects)
	if err != nil {
		return nil, err
	}

	selected := make(map[types.ID]bool, len(projects))
	for _, p := range projects {
		selected[p.ProjectID] = true
	}
	var tasks []types.Task
	for _, t := range src.GetTasks(userID) {
		// Tasks of projects missing from the project list still go in a
		// full export
		if len(options.Projects) == 0 || selected[t.ProjectID] {
			tasks = append(tasks, t)
		}
	}
	if tasks == nil {
		tasks = []types.Task{}
	}

	archive := &Archive{
		Filename: archiveFilename(userID, exportedAt),
		Snapshot: Snapshot{
			Version:    SnapshotVersion,
			User:       userID,
			ExportedAt: mirror.Timestamp(exportedAt),
			Projects:   projects,
			Tasks:      tasks,
		},
		Boards: make([]BoardFile, 0, len(projects)),
	}

	for _, p := range projects {
		columns := src.Board(userID, p.ProjectID)
		archive.Boards = append(archive.Boards, BoardFile{
			Filename: boardFilename(p, format),
			Modified: lastModified(columns, exportedAt),
			Content:  format.Render(formats.Board{Project: p, Columns: columns}),
		})
	}

	return archive, nil
}

// Export generates userID's archive and writes it to outputPath
func Export(src Source, userID string, options Options, outputPath string) (*Archive, error) {
	archive, err := Generate(src, userID, options)
	if err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = archive.Filename
	}
	if err := WriteArchive(archive, outputPath); err != nil {
		return nil, err
	}
	return archive, nil
}

// Restore loads a snapshot into userID's partition. With replace the
// partition's collections are overwritten; otherwise tasks are merged by
// timestamp and projects the cache already holds are updated.
func Restore(dst Target, userID string, snapshot Snapshot, replace bool) error {
	if err := validation.UserID(userID); err != nil {
		return err
	}

	rawTasks := make([]types.RawTask, len(snapshot.Tasks))
	for i, t := range snapshot.Tasks {
		rawTasks[i] = t.Raw()
	}
	rawProjects := make([]types.RawProject, len(snapshot.Projects))
	for i, p := range snapshot.Projects {
		rawProjects[i] = p.Raw()
	}

	if replace {
		dst.SetProjects(rawProjects, userID)
		dst.SetTasks(rawTasks, userID)
		return nil
	}

	for _, p := range rawProjects {
		dst.AddProject(p, userID)
	}
	dst.MergeWithCache(rawTasks, userID)
	return nil
}

// selectProjects keeps the requested projects in cache order
func selectProjects(all []types.Project, ids []types.ID) ([]types.Project, error) {
	if len(ids) == 0 {
		return all, nil
	}

	byID := make(map[types.ID]bool, len(all))
	for _, p := range all {
		byID[p.ProjectID] = true
	}
	wanted := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		if !byID[id] {
			return nil, fmt.Errorf("project %q not found in cache", id)
		}
		wanted[id] = true
	}

	out := make([]types.Project, 0, len(ids))
	for _, p := range all {
		if wanted[p.ProjectID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// lastModified returns the newest task time on a board, or fallback for an
// empty board
func lastModified(columns mirror.Columns, fallback time.Time) time.Time {
	var newest int64
	for _, tasks := range columns {
		for _, t := range tasks {
			if ms := mirror.RecordTime(t.UpdatedAt, t.CreatedAt); ms > newest {
				newest = ms
			}
		}
	}
	if newest == 0 {
		return fallback
	}
	return time.UnixMilli(newest).UTC()
}
