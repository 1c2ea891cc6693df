package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogging(t *testing.T) {
	t.Run("writes to the xdg cache dir", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", dir)

		logger, closer, err := initLogging("info", false, nil)
		if err != nil {
			t.Fatal(err)
		}
		logger.Info("cache opened", "backend", "json")
		logger.Debug("filtered out")
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "taskmirror", "taskmirror.log"))
		if err != nil {
			t.Fatalf("log file not written: %v", err)
		}
		out := string(data)
		if !strings.Contains(out, `"msg":"cache opened"`) || !strings.Contains(out, `"backend":"json"`) {
			t.Errorf("unexpected log content:\n%s", out)
		}
		if strings.Contains(out, "filtered out") {
			t.Error("debug record written at info level")
		}
	})

	t.Run("verbose fans out to stderr", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", t.TempDir())

		var stderr bytes.Buffer
		logger, closer, err := initLogging("error", true, &stderr)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = closer.Close() }()

		logger.With("user", "ada").Debug("merged fresh tasks", "fresh", 3)
		if !strings.Contains(stderr.String(), "merged fresh tasks") || !strings.Contains(stderr.String(), "user=ada") {
			t.Errorf("expected debug record on stderr, got %q", stderr.String())
		}
	})

	t.Run("unknown level defaults to warn", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", t.TempDir())

		logger, closer, err := initLogging("chatty", false, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = closer.Close() }()

		ctx := context.Background()
		if logger.Enabled(ctx, slog.LevelInfo) || !logger.Enabled(ctx, slog.LevelWarn) {
			t.Error("expected warn threshold")
		}
	})
}

func TestGetXDGCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := getXDGCacheDir(); got != filepath.Join("/custom/cache", "taskmirror") {
		t.Errorf("unexpected dir %q", got)
	}
}
