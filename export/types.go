// Package export writes a user's partition to a zip archive and reads it
// back. The archive holds the raw partition as JSON plus one rendered board
// per project, so it doubles as a readable offline snapshot.
package export

import (
	"time"

	"github.com/arthur-debert/taskmirror/formats"
	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/types"
)

const (
	// SnapshotFilename is the partition data entry inside an archive
	SnapshotFilename = "partition.json"

	// SnapshotVersion is written to every snapshot
	SnapshotVersion = "1"
)

// Archive is the complete export: the partition data and the rendered boards
type Archive struct {
	Filename string
	Snapshot Snapshot
	Boards   []BoardFile
}

// Snapshot is the partition data stored in an archive
type Snapshot struct {
	Version    string          `json:"version"`
	User       string          `json:"user"`
	ExportedAt string          `json:"exported_at"`
	Projects   []types.Project `json:"projects"`
	Tasks      []types.Task    `json:"tasks"`
}

// BoardFile is one rendered project board
type BoardFile struct {
	Filename string
	Modified time.Time
	Content  string
}

// Options configures what an export contains
type Options struct {
	// Format renders the boards; nil means formats.PlainText
	Format *formats.BoardFormat

	// Projects limits the export to these project ids; empty means all
	Projects []types.ID

	// Now stamps the archive; nil means time.Now
	Now func() time.Time
}

// Source is the read side of the cache an export draws from
type Source interface {
	GetTasks(userID string) []types.Task
	GetProjects(userID string) []types.Project
	Board(userID string, projectID types.ID) mirror.Columns
}

// Target is the write side of the cache a snapshot is restored into
type Target interface {
	SetTasks(tasks []types.RawTask, userID string) []types.Task
	SetProjects(projects []types.RawProject, userID string) []types.Project
	MergeWithCache(fresh []types.RawTask, userID string) []types.Task
	AddProject(project types.RawProject, userID string) []types.Project
}
