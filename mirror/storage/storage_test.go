package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

// backendFactories builds one of each backend for the shared contract tests
func backendFactories(t *testing.T) map[string]func() Backend {
	t.Helper()
	return map[string]func() Backend{
		"memory": func() Backend { return NewMemory() },
		"json-mock": func() Backend {
			return NewJSONFile("cache.json",
				WithFileSystem(NewMockFileSystem()),
				WithFileLockFactory(NewStubLockFactory()),
			)
		},
		"json-disk": func() Backend {
			return NewJSONFile(filepath.Join(t.TempDir(), "nested", "cache.json"))
		},
		"sqlite": func() Backend {
			db, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
			if err != nil {
				t.Fatalf("failed to open sqlite: %v", err)
			}
			return db
		},
	}
}

func TestBackendContract(t *testing.T) {
	for name, newBackend := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			b := newBackend()
			defer func() { _ = b.Close() }()

			t.Run("missing collection is ErrNotFound", func(t *testing.T) {
				_, err := b.Read("u1", KindTasks)
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			})

			t.Run("write then read", func(t *testing.T) {
				if err := b.Write("u1", KindTasks, []byte(`[{"task_id":"1"}]`)); err != nil {
					t.Fatalf("write failed: %v", err)
				}
				got, err := b.Read("u1", KindTasks)
				if err != nil {
					t.Fatalf("read failed: %v", err)
				}
				if string(got) != `[{"task_id":"1"}]` {
					t.Errorf("unexpected payload %s", got)
				}
			})

			t.Run("partitions are isolated", func(t *testing.T) {
				if err := b.Write("u2", KindTasks, []byte(`[]`)); err != nil {
					t.Fatalf("write failed: %v", err)
				}
				got, err := b.Read("u1", KindTasks)
				if err != nil {
					t.Fatalf("read failed: %v", err)
				}
				if string(got) != `[{"task_id":"1"}]` {
					t.Errorf("u2 write leaked into u1: %s", got)
				}
			})

			t.Run("clear removes only one user", func(t *testing.T) {
				if err := b.Write("u1", KindLastSync, []byte(`"1700000000000"`)); err != nil {
					t.Fatalf("write failed: %v", err)
				}
				if err := b.Clear("u1"); err != nil {
					t.Fatalf("clear failed: %v", err)
				}
				for _, kind := range Kinds {
					if _, err := b.Read("u1", kind); !errors.Is(err, ErrNotFound) {
						t.Errorf("expected %s cleared, got %v", kind, err)
					}
				}
				if _, err := b.Read("u2", KindTasks); err != nil {
					t.Errorf("expected u2 untouched, got %v", err)
				}
			})

			t.Run("clear all", func(t *testing.T) {
				if err := b.ClearAll(); err != nil {
					t.Fatalf("clear all failed: %v", err)
				}
				if _, err := b.Read("u2", KindTasks); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected everything cleared, got %v", err)
				}
			})

			t.Run("empty user rejected", func(t *testing.T) {
				if err := b.Write("", KindTasks, []byte(`[]`)); !errors.Is(err, ErrEmptyUser) {
					t.Errorf("expected ErrEmptyUser, got %v", err)
				}
				if _, err := b.Read("", KindTasks); !errors.Is(err, ErrEmptyUser) {
					t.Errorf("expected ErrEmptyUser, got %v", err)
				}
			})
		})
	}
}

func TestMemoryInjectedErrors(t *testing.T) {
	m := NewMemory()
	boom := errors.New("quota exceeded")
	m.WriteError = boom

	if err := m.Write("u1", KindTasks, []byte(`[]`)); !errors.Is(err, boom) {
		t.Errorf("expected injected write error, got %v", err)
	}

	m.WriteError = nil
	m.ReadError = boom
	if _, err := m.Read("u1", KindTasks); !errors.Is(err, boom) {
		t.Errorf("expected injected read error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Run("memory ignores path", func(t *testing.T) {
		b, err := Open("memory", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := b.(*Memory); !ok {
			t.Errorf("expected *Memory, got %T", b)
		}
	})

	t.Run("json requires path", func(t *testing.T) {
		if _, err := Open("json", ""); err == nil {
			t.Error("expected error for missing path")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := Open("redis", "x"); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}
