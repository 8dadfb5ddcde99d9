// Package speech wraps an external continuous speech-to-text source in a
// start/stop session that reports the cumulative transcript.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

var (
	// ErrUnsupported is returned by Start when no recognizer is available.
	ErrUnsupported = errors.New("speech recognition is not supported")

	// ErrAlreadyListening is returned by Start while a session is active.
	ErrAlreadyListening = errors.New("speech session already listening")
)

// DefaultLocale is the recognition language used when none is configured.
var DefaultLocale = language.BrazilianPortuguese

// RecognitionError is a runtime error reported by a recognizer. Terminal
// errors ended the session; others did not.
type RecognitionError struct {
	Err      error
	Terminal bool
}

func (e *RecognitionError) Error() string {
	if e.Terminal {
		return "recognition failed: " + e.Err.Error()
	}
	return "recognition error: " + e.Err.Error()
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Result is the recognizer's current best guess for one segment of speech.
// A result at an index may be revised until it is final.
type Result struct {
	Index      int
	Transcript string
	Final      bool
}

// Handler receives what a recognizer produces.
type Handler struct {
	OnResult func(Result)
	OnError  func(error)
}

// Recognizer is a continuous speech-to-text source. Recognize blocks until
// ctx is cancelled or the source ends; a non-nil error other than the
// context's ends the session as a terminal recognition error.
type Recognizer interface {
	Recognize(ctx context.Context, locale language.Tag, h Handler) error
}

// State is the externally visible session state.
type State int

const (
	Idle State = iota
	Listening
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Capability records whether speech recognition is available. It is decided
// once at startup.
type Capability struct {
	Recognizer Recognizer
	Locale     language.Tag
}

// Available reports whether a recognizer is present.
func (c Capability) Available() bool {
	return c.Recognizer != nil
}

// Session is a single listening session over a capability. At most one
// recognition runs at a time.
type Session struct {
	capability Capability
	logger     *slog.Logger
	errs       chan error

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession creates an idle session.
func NewSession(c Capability, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Locale == language.Und {
		c.Locale = DefaultLocale
	}
	done := make(chan struct{})
	close(done)
	return &Session{
		capability: c,
		logger:     logger,
		errs:       make(chan error, 16),
		done:       done,
	}
}

// Available reports whether Start can succeed at all.
func (s *Session) Available() bool {
	return s.capability.Available()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Errors delivers recognition errors. Errors are dropped when nobody drains
// the channel.
func (s *Session) Errors() <-chan error {
	return s.errs
}

// Done is closed when the current (or last) recognition ends.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Start begins listening. onTranscriptUpdate receives the whole transcript
// so far on every change, never just the delta. It is called with the
// session lock held and must not call Start or Stop.
func (s *Session) Start(onTranscriptUpdate func(string)) error {
	if !s.capability.Available() {
		return ErrUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Listening {
		return ErrAlreadyListening
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	s.state = Listening
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.gen, s.done, onTranscriptUpdate)

	s.logger.Debug("speech session started", "locale", s.capability.Locale.String())
	return nil
}

// Stop ends listening. It is a no-op when idle. No transcript update is
// delivered after Stop returns.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Listening {
		return
	}
	s.state = Idle
	s.cancel()
	s.logger.Debug("speech session stopped")
}

func (s *Session) run(ctx context.Context, gen uint64, done chan struct{}, onUpdate func(string)) {
	defer close(done)

	var segments []string
	h := Handler{
		OnResult: func(r Result) {
			s.mu.Lock()
			defer s.mu.Unlock()

			if s.gen != gen || s.state != Listening {
				return
			}
			if r.Index < 0 {
				s.report(&RecognitionError{Err: fmt.Errorf("negative result index %d", r.Index)})
				return
			}

			for len(segments) <= r.Index {
				segments = append(segments, "")
			}
			segments[r.Index] = r.Transcript

			if onUpdate != nil {
				onUpdate(strings.Join(segments, ""))
			}
		},
		OnError: func(err error) {
			s.mu.Lock()
			defer s.mu.Unlock()

			if s.gen != gen {
				return
			}
			s.report(&RecognitionError{Err: err})
		},
	}

	err := s.capability.Recognizer.Recognize(ctx, s.capability.Locale, h)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || s.state != Listening {
		return
	}

	// the source ended on its own
	s.state = Idle
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.report(&RecognitionError{Err: err, Terminal: true})
	}
}

// report forwards err without blocking. Callers hold s.mu.
func (s *Session) report(err error) {
	s.logger.Error("speech recognition error", "error", err)
	select {
	case s.errs <- err:
	default:
	}
}
