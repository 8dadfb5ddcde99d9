// Package composer implements the note-creation surface: a draft that is
// typed or dictated and then saved to the note store.
package composer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/taigrr/voicenotes/internal/notes"
	"github.com/taigrr/voicenotes/internal/speech"
	"github.com/taigrr/voicenotes/internal/types"
)

// Creator persists a new note.
type Creator interface {
	Create(ctx context.Context, content string) (types.Note, error)
}

// Composer owns one draft and the speech session that fills it.
type Composer struct {
	store   Creator
	session *speech.Session
	logger  *slog.Logger

	mu         sync.Mutex
	content    string
	onboarding bool
	recording  bool
	recGen     uint64
	onChange   func(Snapshot)
}

// Snapshot is the visible state of the draft.
type Snapshot struct {
	Content    string
	Onboarding bool
	Recording  bool
}

// New creates a composer showing the onboarding prompt.
func New(store Creator, session *speech.Session, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		store:      store,
		session:    session,
		logger:     logger,
		onboarding: true,
	}
}

// OnChange registers fn to observe every state change. fn runs with the
// composer locked and must not call back into it.
func (c *Composer) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns the current state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// StartEditor switches from the onboarding prompt to text editing.
func (c *Composer) StartEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onboarding = false
	c.changed()
}

// SetContent replaces the draft. Clearing it brings the onboarding prompt
// back.
func (c *Composer) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = content
	if content == "" {
		c.onboarding = true
	}
	c.changed()
}

// StartRecording begins dictation. Each transcript update replaces the
// draft. When speech is unsupported the state is left unchanged and
// speech.ErrUnsupported is returned.
func (c *Composer) StartRecording() error {
	if c.session == nil {
		return speech.ErrUnsupported
	}

	err := c.session.Start(func(transcript string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.content = transcript
		c.changed()
	})
	if err != nil {
		return err
	}

	done := c.session.Done()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = true
	c.onboarding = false
	c.recGen++
	go c.watch(done, c.recGen)
	c.changed()
	return nil
}

// watch clears the recording flag when the source ends on its own.
func (c *Composer) watch(done <-chan struct{}, gen uint64) {
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recGen == gen && c.recording {
		c.recording = false
		c.changed()
	}
}

// StopRecording ends dictation. It is safe to call when not recording.
func (c *Composer) StopRecording() {
	c.mu.Lock()
	c.recording = false
	c.changed()
	c.mu.Unlock()

	// the transcript callback takes c.mu under the session lock
	if c.session != nil {
		c.session.Stop()
	}
}

// Save stores the draft as a new note and resets the composer. An empty
// draft is rejected unless the store allows empty notes.
func (c *Composer) Save(ctx context.Context) (types.Note, error) {
	c.StopRecording()

	c.mu.Lock()
	content := c.content
	c.mu.Unlock()

	note, err := c.store.Create(ctx, content)
	if err != nil {
		if !errors.Is(err, notes.ErrEmptyContent) {
			c.logger.Error("failed to save note", "error", err)
		}
		return types.Note{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = ""
	c.onboarding = true
	c.changed()
	return note, nil
}

func (c *Composer) snapshot() Snapshot {
	return Snapshot{
		Content:    c.content,
		Onboarding: c.onboarding,
		Recording:  c.recording,
	}
}

// changed notifies the observer. Callers hold c.mu.
func (c *Composer) changed() {
	if c.onChange != nil {
		c.onChange(c.snapshot())
	}
}
