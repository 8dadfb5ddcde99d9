// Package pathfilter decides which files a note import may read.
package pathfilter

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/taigrr/voicenotes/internal/types"
)

// DefaultIgnoredPatterns are never imported.
var DefaultIgnoredPatterns = []string{
	"**/.git/**",
	"**/.obsidian/**",
	"**/node_modules/**",
	"**/.DS_Store",
	"**/Thumbs.db",
	"**/voicenotes-tmp-*",
}

// DefaultAllowedExtensions are the note file types understood by import.
var DefaultAllowedExtensions = []string{".md", ".markdown", ".txt"}

// PathFilter filters allowed paths and file types.
type PathFilter struct {
	ignoredPatterns   []string
	allowedExtensions []string
}

// New creates a PathFilter with the defaults plus config. Patterns use
// doublestar syntax and are matched against slash-separated relative paths.
func New(config *types.PathFilterConfig) (*PathFilter, error) {
	pf := &PathFilter{
		ignoredPatterns:   slices.Clone(DefaultIgnoredPatterns),
		allowedExtensions: slices.Clone(DefaultAllowedExtensions),
	}

	if config != nil {
		for _, p := range config.IgnoredPatterns {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("invalid ignore pattern: %q", p)
			}
			pf.ignoredPatterns = append(pf.ignoredPatterns, p)
		}
		for _, ext := range config.AllowedExtensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			pf.allowedExtensions = append(pf.allowedExtensions, strings.ToLower(ext))
		}
	}

	return pf, nil
}

// IsAllowed reports whether the file at relPath may be imported.
func (pf *PathFilter) IsAllowed(relPath string) bool {
	normalized := strings.TrimPrefix(strings.ReplaceAll(relPath, "\\", "/"), "./")
	if normalized == "" || strings.HasSuffix(normalized, "/") {
		return false
	}

	for _, pattern := range pf.ignoredPatterns {
		if ok, _ := doublestar.Match(pattern, normalized); ok {
			return false
		}
	}

	ext := strings.ToLower(path.Ext(normalized))
	return slices.Contains(pf.allowedExtensions, ext)
}

// FilterPaths filters a slice of paths to only include allowed ones.
func (pf *PathFilter) FilterPaths(paths []string) []string {
	var allowed []string
	for _, p := range paths {
		if pf.IsAllowed(p) {
			allowed = append(allowed, p)
		}
	}
	return allowed
}
