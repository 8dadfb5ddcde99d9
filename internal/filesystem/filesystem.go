// Package filesystem exports notes to, and reads notes from, a directory of
// Markdown files.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/taigrr/voicenotes/internal/frontmatter"
	"github.com/taigrr/voicenotes/internal/pathfilter"
	"github.com/taigrr/voicenotes/internal/types"
)

// Service reads and writes Markdown notes under one directory.
type Service struct {
	dir                string
	pathFilter         *pathfilter.PathFilter
	frontmatterHandler *frontmatter.Handler
}

// New creates a Service rooted at dir.
func New(dir string, pf *pathfilter.PathFilter, fh *frontmatter.Handler) (*Service, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if pf == nil {
		if pf, err = pathfilter.New(nil); err != nil {
			return nil, err
		}
	}
	if fh == nil {
		fh = frontmatter.New()
	}
	return &Service{
		dir:                absPath,
		pathFilter:         pf,
		frontmatterHandler: fh,
	}, nil
}

// Dir returns the absolute root directory.
func (s *Service) Dir() string {
	return s.dir
}

// ResolvePath resolves a relative path within the directory and validates it.
func (s *Service) ResolvePath(relativePath string) (string, error) {
	normalizedPath := strings.TrimPrefix(strings.TrimSpace(relativePath), "/")

	absPath, err := filepath.Abs(filepath.Join(s.dir, normalizedPath))
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(s.dir, absPath)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("path traversal not allowed: %s", relativePath)
	}

	return absPath, nil
}

// FileName is the file a note is exported to.
func FileName(note types.Note) string {
	return url.PathEscape(note.ID) + ".md"
}

// WriteNote writes one note as <id>.md and returns its relative path.
func (s *Service) WriteNote(note types.Note) (string, error) {
	name := FileName(note)
	fullPath, err := s.ResolvePath(name)
	if err != nil {
		return "", err
	}

	rendered, err := s.frontmatterHandler.Render(note)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %s - %w", name, err)
	}

	return name, nil
}

// ExportNotes writes every note and returns how many were written.
func (s *Service) ExportNotes(notes []types.Note) (int, error) {
	for i, n := range notes {
		if _, err := s.WriteNote(n); err != nil {
			return i, err
		}
	}
	return len(notes), nil
}

// ReadNote parses the Markdown note at a relative path.
func (s *Service) ReadNote(path string) (frontmatter.Document, error) {
	fullPath, err := s.ResolvePath(path)
	if err != nil {
		return frontmatter.Document{}, err
	}

	if !s.pathFilter.IsAllowed(path) {
		return frontmatter.Document{}, fmt.Errorf("access denied: %s", path)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return frontmatter.Document{}, fmt.Errorf("file not found: %s", path)
		}
		if errors.Is(err, fs.ErrPermission) {
			return frontmatter.Document{}, fmt.Errorf("permission denied: %s", path)
		}
		return frontmatter.Document{}, fmt.Errorf("failed to read file: %s - %w", path, err)
	}
	defer f.Close()

	doc, err := s.frontmatterHandler.Decode(f)
	if err != nil {
		return frontmatter.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ListNotes returns the relative paths of importable files, sorted. Hidden
// directories are skipped.
func (s *Service) ListNotes() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.dir, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if fullPath == s.dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if fullPath != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(s.dir, fullPath)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory not found: %s", s.dir)
		}
		return nil, fmt.Errorf("failed to list directory: %s - %w", s.dir, err)
	}

	files = s.pathFilter.FilterPaths(files)
	sort.Strings(files)
	return files, nil
}

// ImportedNote is a document read from disk with its source path.
type ImportedNote struct {
	Path     string
	Document frontmatter.Document
}

// ReadNotes parses every importable file, oldest first. Files without a
// date keep their path order after dated ones.
func (s *Service) ReadNotes() ([]ImportedNote, error) {
	paths, err := s.ListNotes()
	if err != nil {
		return nil, err
	}

	imported := make([]ImportedNote, 0, len(paths))
	for _, p := range paths {
		doc, err := s.ReadNote(p)
		if err != nil {
			return nil, err
		}
		imported = append(imported, ImportedNote{Path: p, Document: doc})
	}

	sort.SliceStable(imported, func(i, j int) bool {
		ti, oki := imported[i].Document.CreatedAt()
		tj, okj := imported[j].Document.CreatedAt()
		if oki != okj {
			return oki
		}
		return oki && ti.Before(tj)
	})
	return imported, nil
}
