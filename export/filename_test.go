package export

import (
	"testing"
	"time"

	"github.com/arthur-debert/taskmirror/formats"
	"github.com/arthur-debert/taskmirror/types"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Website relaunch", "website-relaunch"},
		{"  Q3 -- planning!! ", "q3-planning"},
		{"snake_case_name", "snake_case_name"},
		{"Café déjà vu", "café-déjà-vu"},
		{"???", "untitled"},
		{"", "untitled"},
		{"a very long project name that keeps going and going", "a-very-long-project-name-that-keeps-goin"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitize(tt.input); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateUTF8(t *testing.T) {
	// "é" is two bytes; cutting at 2 would split it
	if got := truncateUTF8("aébc", 2); got != "a" {
		t.Errorf("expected rune boundary cut, got %q", got)
	}
	if got := truncateUTF8("abc", 10); got != "abc" {
		t.Errorf("short strings are unchanged, got %q", got)
	}
}

func TestBoardFilename(t *testing.T) {
	format := &formats.BoardFormat{Name: "x"}
	got := boardFilename(types.Project{ProjectID: "P-1"}, format)
	if got != "p-1-untitled.txt" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestArchiveFilename(t *testing.T) {
	at := time.Date(2024, 2, 1, 13, 4, 5, 0, time.FixedZone("CET", 3600))
	if got := archiveFilename("Ada Lovelace", at); got != "taskmirror-ada-lovelace-2024-02-01T12-04-05.zip" {
		t.Errorf("unexpected archive name %q", got)
	}
}
