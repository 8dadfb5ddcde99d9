package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// tempFilePrefix is the prefix used for temporary atomic write files.
const tempFilePrefix = "voicenotes-tmp-"

// File stores the blob as a single file under a home directory.
type File struct {
	home string
	path string
}

// NewFile creates a file adapter storing name inside home.
func NewFile(home, name string) (*File, error) {
	absHome, err := filepath.Abs(home)
	if err != nil {
		return nil, err
	}

	f := &File{home: absHome}
	f.path, err = f.resolvePath(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the absolute path of the backing file.
func (f *File) Path() string {
	return f.path
}

// resolvePath resolves name within home and rejects anything outside it.
func (f *File) resolvePath(name string) (string, error) {
	normalized := strings.TrimPrefix(strings.TrimSpace(name), "/")
	if normalized == "" {
		return "", fmt.Errorf("empty file name")
	}

	absPath, err := filepath.Abs(filepath.Join(f.home, normalized))
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(f.home, absPath)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("path traversal not allowed: %s", name)
	}

	return absPath, nil
}

// ReadAll implements Adapter.
func (f *File) ReadAll(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, false, fmt.Errorf("permission denied: %s", f.path)
		}
		return nil, false, fmt.Errorf("failed to read file: %s - %w", f.path, err)
	}

	return data, true, nil
}

// WriteAll implements Adapter. The blob is written to a temporary file and
// renamed over the target.
func (f *File) WriteAll(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return writeFileAtomic(f.path, blob, 0o644)
}

// Close implements Adapter.
func (f *File) Close() error { return nil }

func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	// same directory so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}
