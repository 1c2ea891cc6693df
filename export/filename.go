package export

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/arthur-debert/taskmirror/formats"
	"github.com/arthur-debert/taskmirror/types"
)

var dashes = regexp.MustCompile("-+")

// boardFilename names a rendered board <id>-<name><ext>. The id prefix keeps
// projects with the same name apart.
func boardFilename(project types.Project, format *formats.BoardFormat) string {
	ext := format.Extension
	if ext == "" {
		ext = ".txt"
	}

	name := project.Name
	if name == "" {
		name = "untitled"
	}
	return sanitize(project.ProjectID.String()) + "-" + sanitize(name) + ext
}

// archiveFilename names the archive after the user and export time
func archiveFilename(userID string, at time.Time) string {
	return "taskmirror-" + sanitize(userID) + "-" + at.UTC().Format("2006-01-02T15-04-05") + ".zip"
}

// sanitize lowercases s and reduces it to letters, digits, dashes and
// underscores, at most 40 bytes long
func sanitize(s string) string {
	result := strings.ToLower(s)
	result = strings.ReplaceAll(result, " ", "-")

	var builder strings.Builder
	for _, r := range result {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			builder.WriteRune(r)
		}
	}

	result = dashes.ReplaceAllString(builder.String(), "-")
	result = strings.Trim(result, "-")

	if len(result) > 40 {
		result = strings.TrimRight(truncateUTF8(result, 40), "-")
	}
	if result == "" {
		result = "untitled"
	}
	return result
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
