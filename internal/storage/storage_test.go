package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openAll(t *testing.T) map[string]Adapter {
	t.Helper()
	adapters := map[string]Adapter{}
	for _, backend := range Backends {
		a, err := Open(Config{Backend: backend, Home: t.TempDir()})
		if err != nil {
			t.Fatalf("Open(%s) error = %v", backend, err)
		}
		t.Cleanup(func() { a.Close() })
		adapters[backend] = a
	}
	return adapters
}

func TestAdapters_ReadAbsent(t *testing.T) {
	ctx := context.Background()
	for name, a := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			blob, ok, err := a.ReadAll(ctx)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if ok {
				t.Errorf("ReadAll() ok = true, want false")
			}
			if len(blob) != 0 {
				t.Errorf("ReadAll() blob = %q, want empty", blob)
			}
		})
	}
}

func TestAdapters_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, a := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			first := []byte(`[{"id":"1","date":"2024-01-01T00:00:00Z","content":"olá 🌍"}]`)
			if err := a.WriteAll(ctx, first); err != nil {
				t.Fatalf("WriteAll() error = %v", err)
			}

			second := []byte(`[]`)
			if err := a.WriteAll(ctx, second); err != nil {
				t.Fatalf("WriteAll() error = %v", err)
			}

			blob, ok, err := a.ReadAll(ctx)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !ok {
				t.Fatal("ReadAll() ok = false, want true")
			}
			if string(blob) != string(second) {
				t.Errorf("ReadAll() = %q, want %q", blob, second)
			}
		})
	}
}

func TestAdapters_PersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{BackendBolt, BackendSQLite, BackendFile} {
		t.Run(backend, func(t *testing.T) {
			home := t.TempDir()
			a, err := Open(Config{Backend: backend, Home: home})
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if err := a.WriteAll(ctx, []byte("payload")); err != nil {
				t.Fatalf("WriteAll() error = %v", err)
			}
			a.Close()

			b, err := Open(Config{Backend: backend, Home: home})
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			defer b.Close()

			blob, ok, err := b.ReadAll(ctx)
			if err != nil || !ok {
				t.Fatalf("ReadAll() = %v, %v", ok, err)
			}
			if string(blob) != "payload" {
				t.Errorf("ReadAll() = %q, want %q", blob, "payload")
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "redis", Home: t.TempDir()})
	if err == nil {
		t.Fatal("Open() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "redis") {
		t.Errorf("error should name the backend: %v", err)
	}
}

func TestOpen_DefaultsToBolt(t *testing.T) {
	a, err := Open(Config{Home: t.TempDir()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()
	if _, ok := a.(*Bolt); !ok {
		t.Errorf("Open() = %T, want *Bolt", a)
	}
}

func TestFile_ResolvePath(t *testing.T) {
	home := t.TempDir()

	t.Run("stays inside home", func(t *testing.T) {
		f, err := NewFile(home, "nested/notes.json")
		if err != nil {
			t.Fatalf("NewFile() error = %v", err)
		}
		if !strings.HasPrefix(f.Path(), home) {
			t.Errorf("Path() = %s, want prefix %s", f.Path(), home)
		}
	})

	t.Run("rejects traversal", func(t *testing.T) {
		if _, err := NewFile(home, "../outside.json"); err == nil {
			t.Error("NewFile() error = nil, want traversal error")
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		if _, err := NewFile(home, "  "); err == nil {
			t.Error("NewFile() error = nil, want error")
		}
	})
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("overwrites existing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "notes.json")

		if err := os.WriteFile(filename, []byte("initial"), 0o644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := writeFileAtomic(filename, []byte("overwritten"), 0o644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(got) != "overwritten" {
			t.Errorf("content = %q, want %q", got, "overwritten")
		}
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		tmpDir := t.TempDir()
		if err := writeFileAtomic(filepath.Join(tmpDir, "notes.json"), []byte("x"), 0o644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), tempFilePrefix) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})
}
