package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

// TestJSONFileWithMockFS exercises the JSON backend against the in-memory file system
func TestJSONFileWithMockFS(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nothing is written until the first write", func(t *testing.T) {
		mockFS := NewMockFileSystem()
		b := NewJSONFile("cache.json",
			WithFileSystem(mockFS),
			WithFileLockFactory(NewStubLockFactory()),
		)

		if _, err := b.Read("u1", KindTasks); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if mockFS.FileExists("cache.json") {
			t.Error("expected file not to exist after a read")
		}
	})

	t.Run("writes a partitioned document", func(t *testing.T) {
		mockFS := NewMockFileSystem()
		b := NewJSONFile("cache.json",
			WithFileSystem(mockFS),
			WithFileLockFactory(NewStubLockFactory()),
			WithTimeFunc(func() time.Time { return fixed }),
		)

		if err := b.Write("u1", KindProjects, []byte(`[{"project_id":"p1"}]`)); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		content, ok := mockFS.GetFileContent("cache.json")
		if !ok {
			t.Fatal("expected cache.json to exist")
		}
		if mockFS.FileExists("cache.json.tmp") {
			t.Error("temp file should have been renamed away")
		}

		var doc jsonDocument
		if err := json.Unmarshal(content, &doc); err != nil {
			t.Fatalf("failed to parse file: %v", err)
		}
		if doc.Metadata.Version != formatVersion {
			t.Errorf("expected version %s, got %s", formatVersion, doc.Metadata.Version)
		}
		if !doc.Metadata.UpdatedAt.Equal(fixed) {
			t.Errorf("expected updated_at %v, got %v", fixed, doc.Metadata.UpdatedAt)
		}
		if _, ok := doc.Partitions["u1"][KindProjects]; !ok {
			t.Errorf("expected u1/projects in document, got %s", content)
		}
	})

	t.Run("releases the file lock after each call", func(t *testing.T) {
		locks := NewStubLockFactory()
		b := NewJSONFile("cache.json",
			WithFileSystem(NewMockFileSystem()),
			WithFileLockFactory(locks),
		)

		_ = b.Write("u1", KindTasks, []byte(`[]`))
		_, _ = b.Read("u1", KindTasks)

		lock := locks.Lock("cache.json.lock")
		if lock == nil {
			t.Fatal("expected a lock for cache.json.lock")
		}
		if lock.Held() {
			t.Error("lock should be released")
		}
		if lock.Acquires != 2 || lock.Releases != 2 {
			t.Errorf("expected 2 acquire/release pairs, got %d/%d", lock.Acquires, lock.Releases)
		}
	})

	t.Run("file held by another process", func(t *testing.T) {
		locks := NewStubLockFactory()
		locks.HeldElsewhere = true
		mockFS := NewMockFileSystem()
		b := NewJSONFile("cache.json", WithFileSystem(mockFS), WithFileLockFactory(locks))

		err := b.Write("u1", KindTasks, []byte(`[]`))
		if !errors.Is(err, ErrLockBusy) {
			t.Fatalf("expected ErrLockBusy, got %v", err)
		}
		if _, err := b.Read("u1", KindTasks); !errors.Is(err, ErrLockBusy) {
			t.Errorf("expected ErrLockBusy on read, got %v", err)
		}
		if _, err := mockFS.Stat("cache.json"); err == nil {
			t.Error("nothing should be written without the lock")
		}
	})

	t.Run("lock file cannot be opened", func(t *testing.T) {
		locks := NewStubLockFactory()
		locks.Err = errors.New("read-only file system")
		b := NewJSONFile("cache.json",
			WithFileSystem(NewMockFileSystem()),
			WithFileLockFactory(locks),
		)

		err := b.Write("u1", KindTasks, []byte(`[]`))
		if err == nil || !strings.Contains(err.Error(), "read-only file system") {
			t.Errorf("expected lock error, got %v", err)
		}
		if errors.Is(err, ErrLockBusy) {
			t.Error("an unusable lock file is not a busy lock")
		}
	})

	t.Run("write failure leaves previous content", func(t *testing.T) {
		mockFS := NewMockFileSystem()
		b := NewJSONFile("cache.json",
			WithFileSystem(mockFS),
			WithFileLockFactory(NewStubLockFactory()),
		)
		if err := b.Write("u1", KindTasks, []byte(`["a"]`)); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		mockFS.WriteFileError = errors.New("disk full")
		if err := b.Write("u1", KindTasks, []byte(`["b"]`)); err == nil {
			t.Fatal("expected write error")
		}

		mockFS.WriteFileError = nil
		got, err := b.Read("u1", KindTasks)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(got) != `["a"]` {
			t.Errorf("expected previous payload, got %s", got)
		}
	})

	t.Run("rename failure cleans temp file", func(t *testing.T) {
		mockFS := NewMockFileSystem()
		mockFS.RenameError = errors.New("cross-device link")
		b := NewJSONFile("cache.json",
			WithFileSystem(mockFS),
			WithFileLockFactory(NewStubLockFactory()),
		)

		if err := b.Write("u1", KindTasks, []byte(`[]`)); err == nil {
			t.Fatal("expected rename error")
		}
		if mockFS.FileExists("cache.json.tmp") {
			t.Error("temp file should be removed after a failed rename")
		}
	})

	t.Run("corrupt file fails reads and is replaced on write", func(t *testing.T) {
		mockFS := NewMockFileSystem()
		mockFS.SetFileContent("cache.json", []byte("{not json"))
		b := NewJSONFile("cache.json",
			WithFileSystem(mockFS),
			WithFileLockFactory(NewStubLockFactory()),
		)

		if _, err := b.Read("u1", KindTasks); !errors.Is(err, errCorrupt) {
			t.Errorf("expected corrupt error, got %v", err)
		}
		if err := b.Write("u1", KindTasks, []byte(`[]`)); err != nil {
			t.Fatalf("write over corrupt file failed: %v", err)
		}
		if _, err := b.Read("u1", KindTasks); err != nil {
			t.Errorf("expected readable file after rewrite, got %v", err)
		}
	})

	t.Run("rejects invalid JSON payloads", func(t *testing.T) {
		b := NewJSONFile("cache.json",
			WithFileSystem(NewMockFileSystem()),
			WithFileLockFactory(NewStubLockFactory()),
		)
		if err := b.Write("u1", KindTasks, []byte("not json")); err == nil {
			t.Error("expected error for invalid payload")
		}
	})
}

func TestJSONFileWaitsForOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("failed to take the lock: %v", err)
	}

	b := NewJSONFile(path,
		WithFileLockFactory(FlockFactory{Poll: 5 * time.Millisecond}),
		WithLockTimeout(50*time.Millisecond),
	)
	if err := b.Write("u1", KindTasks, []byte(`[]`)); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy while held, got %v", err)
	}

	if err := other.Unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if err := b.Write("u1", KindTasks, []byte(`[]`)); err != nil {
		t.Errorf("write after release failed: %v", err)
	}
}

func TestJSONFileSharedAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	first := NewJSONFile(path)
	if err := first.Write("u1", KindTasks, []byte(`[1]`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// A second handle on the same file sees the first one's writes
	second := NewJSONFile(path)
	if err := second.Write("u2", KindTasks, []byte(`[2]`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := first.Read("u2", KindTasks)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != `[2]` {
		t.Errorf("expected [2], got %s", got)
	}
	got, err = second.Read("u1", KindTasks)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != `[1]` {
		t.Errorf("expected [1], got %s", got)
	}
}
