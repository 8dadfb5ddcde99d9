// Package frontmatter renders notes as Markdown with YAML frontmatter and
// parses such files back.
package frontmatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	adrg "github.com/adrg/frontmatter"
	"github.com/taigrr/voicenotes/internal/types"
	"gopkg.in/yaml.v3"
)

// Meta is the frontmatter voicenotes writes and understands.
type Meta struct {
	ID   string   `yaml:"id,omitempty" toml:"id" json:"id,omitempty"`
	Date string   `yaml:"date,omitempty" toml:"date" json:"date,omitempty"`
	Tags []string `yaml:"tags,omitempty" toml:"tags" json:"tags,omitempty"`
}

// Document is a parsed Markdown note.
type Document struct {
	Meta    Meta
	Content string
}

// CreatedAt parses Meta.Date. ok is false when the date is missing or not
// recognised.
func (d Document) CreatedAt() (t time.Time, ok bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if parsed, err := time.Parse(layout, strings.TrimSpace(d.Meta.Date)); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Handler handles frontmatter rendering and parsing.
type Handler struct{}

// New creates a new Handler.
func New() *Handler {
	return &Handler{}
}

// Render converts a note to Markdown with id and date frontmatter.
func (h *Handler) Render(note types.Note) (string, error) {
	return h.Stringify(map[string]any{
		"id":   note.ID,
		"date": note.CreatedAt.Format(time.RFC3339Nano),
	}, note.Content)
}

// Stringify converts frontmatter and content back to a note string.
func (h *Handler) Stringify(frontmatter map[string]any, content string) (string, error) {
	if len(frontmatter) == 0 {
		return content, nil
	}

	yamlBytes, err := yaml.Marshal(frontmatter)
	if err != nil {
		return "", fmt.Errorf("failed to stringify frontmatter: %w", err)
	}

	return "---\n" + string(yamlBytes) + "---\n" + content, nil
}

// Decode reads a Markdown note. YAML, TOML and JSON frontmatter are
// accepted; a file without frontmatter is all content.
func (h *Handler) Decode(r io.Reader) (Document, error) {
	var meta Meta
	body, err := adrg.Parse(r, &meta)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return Document{Meta: meta, Content: string(body)}, nil
}
