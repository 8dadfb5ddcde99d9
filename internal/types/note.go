// Package types defines all data structures shared across voicenotes.
package types

import (
	"encoding/json"
	"time"
)

type (
	// Note is a user-authored text record.
	Note struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"date"`
		Content   string    `json:"content"`
	}

	// SearchHit is a note matched by a query, with an excerpt around the
	// first match.
	SearchHit struct {
		Note       Note   `json:"note"`
		Excerpt    string `json:"excerpt,omitempty"`
		MatchCount int    `json:"matchCount,omitempty"`
	}

	// PathFilterConfig contains configuration for the path filter.
	PathFilterConfig struct {
		IgnoredPatterns   []string `json:"ignoredPatterns"`
		AllowedExtensions []string `json:"allowedExtensions"`
	}
)

// UnmarshalJSON accepts both "date" and "createdAt" for the timestamp.
func (n *Note) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string     `json:"id"`
		Date      *time.Time `json:"date"`
		CreatedAt *time.Time `json:"createdAt"`
		Content   string     `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	n.Content = raw.Content
	n.CreatedAt = time.Time{}
	switch {
	case raw.Date != nil:
		n.CreatedAt = *raw.Date
	case raw.CreatedAt != nil:
		n.CreatedAt = *raw.CreatedAt
	}
	return nil
}
