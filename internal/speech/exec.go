package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/text/language"
)

// LocaleEnv is set on the recognizer process to the configured locale.
const LocaleEnv = "VOICENOTES_LOCALE"

// ExecRecognizer runs an external transcription command and reads the line
// protocol from its stdout.
type ExecRecognizer struct {
	Path string
	Args []string
}

// Recognize implements Recognizer.
func (e *ExecRecognizer) Recognize(ctx context.Context, locale language.Tag, h Handler) error {
	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Env = append(os.Environ(), LocaleEnv+"="+locale.String())

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open recognizer output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start recognizer %s: %w", e.Path, err)
	}

	readErr := NewLineRecognizer(stdout).Recognize(ctx, locale, h)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if readErr != nil {
		return readErr
	}
	if waitErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", waitErr, msg)
		}
		return waitErr
	}
	return nil
}

// DetectConfig describes where speech can come from.
type DetectConfig struct {
	// Command is a transcription command line, e.g. "whisper-stream --model base".
	Command string

	// Stdin is used as a line-protocol source when no command is set.
	Stdin *os.File

	// Locale is a BCP 47 tag. Empty means DefaultLocale.
	Locale string
}

// Detect decides the capability once. A command that does not resolve on
// PATH leaves speech unavailable. Stdin only counts when it is not a
// terminal.
func Detect(cfg DetectConfig) (Capability, error) {
	locale := DefaultLocale
	if strings.TrimSpace(cfg.Locale) != "" {
		tag, err := language.Parse(cfg.Locale)
		if err != nil {
			return Capability{}, fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
		}
		locale = tag
	}

	c := Capability{Locale: locale}

	if fields := strings.Fields(cfg.Command); len(fields) > 0 {
		path, err := exec.LookPath(fields[0])
		if err != nil {
			return c, nil
		}
		c.Recognizer = &ExecRecognizer{Path: path, Args: fields[1:]}
		return c, nil
	}

	if cfg.Stdin != nil {
		if info, err := cfg.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
			c.Recognizer = NewLineRecognizer(cfg.Stdin)
		}
	}
	return c, nil
}
