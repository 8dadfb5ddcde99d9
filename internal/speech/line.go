package speech

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/language"
)

// LineRecognizer reads transcripts from a line protocol:
//
//	~ text   interim guess for the current segment
//	! text   recognition error, the session continues
//	text     final transcript for the current segment
//
// Blank lines are ignored. Segments after the first are prefixed with a
// space so that the concatenated transcript reads naturally.
type LineRecognizer struct {
	r io.Reader
}

// NewLineRecognizer reads the line protocol from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: r}
}

// Recognize implements Recognizer. It returns nil when r is exhausted and
// ctx.Err() when cancelled, without waiting for a blocked read.
func (l *LineRecognizer) Recognize(ctx context.Context, _ language.Tag, h Handler) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	index := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return ctx.Err()
				}
			}
			index = l.handle(line, index, h)
		}
	}
}

// handle dispatches one protocol line and returns the next segment index.
func (l *LineRecognizer) handle(line string, index int, h Handler) int {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return index
	}

	segment := func(text string) string {
		text = strings.TrimSpace(text)
		if index > 0 {
			return " " + text
		}
		return text
	}

	switch {
	case strings.HasPrefix(trimmed, "~"):
		if h.OnResult != nil {
			h.OnResult(Result{Index: index, Transcript: segment(trimmed[1:])})
		}
		return index
	case strings.HasPrefix(trimmed, "!"):
		if h.OnError != nil {
			h.OnError(errors.New(strings.TrimSpace(trimmed[1:])))
		}
		return index
	default:
		if h.OnResult != nil {
			h.OnResult(Result{Index: index, Transcript: segment(trimmed), Final: true})
		}
		return index + 1
	}
}
