// Package notes owns the in-memory note collection and mirrors every
// mutation to a storage adapter.
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"
	"github.com/taigrr/voicenotes/internal/search"
	"github.com/taigrr/voicenotes/internal/storage"
	"github.com/taigrr/voicenotes/internal/types"
)

// Options configures a Store.
type Options struct {
	// AllowEmpty lets Create persist notes with empty content.
	AllowEmpty bool

	// NewID generates note ids. Defaults to random UUIDs.
	NewID func() string

	// Now stamps new notes. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Store is the authoritative, newest-first note collection.
type Store struct {
	mu      sync.Mutex
	adapter storage.Adapter
	notes   []types.Note
	opts    Options
}

// New creates an empty store backed by adapter. Call Load to read the
// persisted collection.
func New(adapter storage.Adapter, opts Options) *Store {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		adapter: adapter,
		notes:   []types.Note{},
		opts:    opts,
	}
}

// Open creates a store and loads it. Unreadable or malformed data is logged
// and the store starts empty.
func Open(ctx context.Context, adapter storage.Adapter, opts Options) *Store {
	s := New(adapter, opts)
	_ = s.Load(ctx)
	return s
}

// Load reads the persisted collection. An absent blob yields an empty
// collection. On ErrPersistence or ErrMalformedData the collection is reset
// to empty and the error is returned.
func Load(ctx context.Context, adapter storage.Adapter) ([]types.Note, error) {
	blob, ok, err := adapter.ReadAll(ctx)
	if err != nil {
		return []types.Note{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok {
		return []types.Note{}, nil
	}

	notes, err := Decode(blob)
	if err != nil {
		return []types.Note{}, err
	}
	return notes, nil
}

// Load replaces the in-memory collection with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	notes, err := Load(ctx, s.adapter)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = notes

	if err != nil {
		s.opts.Logger.Warn("starting with an empty collection", "error", err)
		return err
	}
	s.opts.Logger.Debug("loaded notes", "count", len(notes))
	return nil
}

// Create stamps a new note, prepends it and persists the collection. If the
// write fails the in-memory collection is left unchanged.
func (s *Store) Create(ctx context.Context, content string) (types.Note, error) {
	if content == "" && !s.opts.AllowEmpty {
		return types.Note{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note := types.Note{
		ID:        s.opts.NewID(),
		CreatedAt: s.opts.Now(),
		Content:   content,
	}

	next := make([]types.Note, 0, len(s.notes)+1)
	next = append(next, note)
	next = append(next, s.notes...)

	if err := s.persist(ctx, next); err != nil {
		return types.Note{}, err
	}
	s.notes = next

	s.opts.Logger.Debug("created note", "id", note.ID)
	return note, nil
}

// Delete removes the note with id and persists the result. Unknown ids are
// a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.notes, func(n types.Note) bool { return n.ID == id })
	if idx < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(s.notes), idx, idx+1)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.notes = next

	s.opts.Logger.Debug("deleted note", "id", id)
	return nil
}

// Get returns the note with id.
func (s *Store) Get(id string) (types.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return types.Note{}, false
}

// List returns a copy of the collection, newest first.
func (s *Store) List() []types.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notes)
}

// Search is Filter over the current collection.
func (s *Store) Search(query string) []types.Note {
	return Filter(s.List(), query)
}

// Hits is Search with an excerpt and match count for each note.
func (s *Store) Hits(query string) []types.SearchHit {
	return search.Annotate(s.Search(query), query)
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Filter returns the notes whose content contains query, ignoring case. An
// empty query returns the collection unchanged.
func Filter(notes []types.Note, query string) []types.Note {
	return search.Filter(notes, query)
}

// ContentSum fingerprints note content, ignoring surrounding whitespace.
func ContentSum(content string) uint64 {
	return xxhash.Sum64([]byte(strings.TrimSpace(content)))
}

// ContentSums returns the fingerprint of every note's content.
func (s *Store) ContentSums() map[uint64]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	sums := make(map[uint64]struct{}, len(s.notes))
	for _, n := range s.notes {
		sums[ContentSum(n.Content)] = struct{}{}
	}
	return sums
}

// persist writes next as the whole collection. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, next []types.Note) error {
	blob, err := Encode(next)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	if err := s.adapter.WriteAll(ctx, blob); err != nil {
		s.opts.Logger.Error("failed to persist notes", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
