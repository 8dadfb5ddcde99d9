// Package search provides case-insensitive note search.
package search

import (
	"regexp"
	"strings"

	"github.com/taigrr/voicenotes/internal/types"
)

// excerptRadius is the number of bytes of context kept on each side of a match.
const excerptRadius = 21

// Filter returns the notes whose content contains query, ignoring case.
// An empty query returns notes unchanged. Order is preserved.
func Filter(notes []types.Note, query string) []types.Note {
	if query == "" {
		return notes
	}

	needle := strings.ToLower(query)
	matched := make([]types.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Content), needle) {
			matched = append(matched, n)
		}
	}
	return matched
}

// Annotate adds an excerpt around the first match of query and the number
// of occurrences to notes already selected by Filter. An empty query leaves
// the hits bare.
func Annotate(matched []types.Note, query string) []types.SearchHit {
	hits := make([]types.SearchHit, 0, len(matched))

	if query == "" {
		for _, n := range matched {
			hits = append(hits, types.SearchHit{Note: n})
		}
		return hits
	}

	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	for _, n := range matched {
		hits = append(hits, hit(n, pattern))
	}
	return hits
}

func hit(n types.Note, pattern *regexp.Regexp) types.SearchHit {
	content := n.Content
	locs := pattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		// ToLower matched where simple case folding did not
		return types.SearchHit{Note: n, Excerpt: Excerpt(content, 0, 0), MatchCount: 1}
	}

	start, end := locs[0][0], locs[0][1]
	return types.SearchHit{
		Note:       n,
		Excerpt:    Excerpt(content, start, end),
		MatchCount: len(locs),
	}
}

// Excerpt returns content[start:end] with up to excerptRadius bytes of
// context on each side, trimmed to rune boundaries and marked with "..."
// where text was cut.
func Excerpt(content string, start, end int) string {
	excerptStart := max(start-excerptRadius, 0)
	excerptEnd := min(end+excerptRadius, len(content))

	for excerptStart > 0 && !isRuneStart(content[excerptStart]) {
		excerptStart--
	}
	for excerptEnd < len(content) && !isRuneStart(content[excerptEnd]) {
		excerptEnd++
	}

	excerpt := strings.TrimSpace(content[excerptStart:excerptEnd])
	excerpt = strings.Join(strings.Fields(excerpt), " ")

	if excerptStart > 0 {
		excerpt = "..." + excerpt
	}
	if excerptEnd < len(content) {
		excerpt = excerpt + "..."
	}
	return excerpt
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
