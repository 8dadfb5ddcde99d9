package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/taigrr/voicenotes/internal/composer"
	"github.com/taigrr/voicenotes/internal/filesystem"
	"github.com/taigrr/voicenotes/internal/frontmatter"
	"github.com/taigrr/voicenotes/internal/notes"
	"github.com/taigrr/voicenotes/internal/pathfilter"
	"github.com/taigrr/voicenotes/internal/speech"
	"github.com/taigrr/voicenotes/internal/types"
)

const (
	dateLayout    = "2006-01-02 15:04"
	previewLength = 60
)

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <text...>",
		Short:   "Create a note from the given text",
		Example: `voicenotes add call the plumber tomorrow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			note, err := a.store.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), note.ID)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var (
		id    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List notes, newest first, optionally filtered by a query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if id != "" {
				note, ok := a.store.Get(id)
				if !ok {
					return fmt.Errorf("note not found: %s", id)
				}
				fmt.Fprintf(out, "%s  %s\n\n%s\n", note.ID, note.CreatedAt.Local().Format(dateLayout), note.Content)
				return nil
			}

			var query string
			if len(args) > 0 {
				query = strings.TrimSpace(args[0])
			}

			hits := a.store.Hits(query)
			if limit > 0 && len(hits) > limit {
				hits = hits[:limit]
			}
			if len(hits) == 0 {
				if query == "" {
					fmt.Fprintln(out, "No notes yet.")
				} else {
					fmt.Fprintf(out, "No notes match %q.\n", query)
				}
				return nil
			}

			printHits(out, hits, query != "")
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "show the full content of one note")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of notes to show (default: all)")
	return cmd
}

func printHits(w io.Writer, hits []types.SearchHit, filtered bool) {
	for _, h := range hits {
		date := h.Note.CreatedAt.Local().Format(dateLayout)
		if filtered {
			fmt.Fprintf(w, "%s  %s  (%d)  %s\n", h.Note.ID, date, h.MatchCount, h.Excerpt)
			continue
		}
		fmt.Fprintf(w, "%s  %s  %s\n", h.Note.ID, date, preview(h.Note.Content))
	}
}

// preview is the first line of content, shortened to previewLength runes.
func preview(content string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	runes := []rune(line)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return line
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if _, ok := a.store.Get(id); !ok {
				return fmt.Errorf("note not found: %s", id)
			}
			if err := a.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}

func (a *app) dictateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dictate",
		Short: "Dictate a note through the speech-to-text source",
		Long: `dictate listens to the speech-to-text command given by --stt-cmd, or
to transcripts piped on stdin, and saves the transcript as a note.
Recording stops when the source ends, on Enter, or on Ctrl-C.

Each source line is one recognized segment. A line starting with "~ "
revises the segment in progress and a line starting with "! " reports
a recognition error.`,
		Example: `printf 'hello\nworld\n' | voicenotes dictate
voicenotes dictate --stt-cmd "whisper-stream --model base" --locale en-US`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			session := speech.NewSession(a.speech, a.logger)
			draft := composer.New(a.store, session, a.logger)

			var last string
			draft.OnChange(func(s composer.Snapshot) {
				if s.Recording && s.Content != last {
					last = s.Content
					fmt.Fprintf(out, "> %s\n", s.Content)
				}
			})

			if err := draft.StartRecording(); err != nil {
				if errors.Is(err, speech.ErrUnsupported) {
					return fmt.Errorf("%w: set --stt-cmd or pipe transcripts on stdin", err)
				}
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			enter := make(chan struct{})
			if _, fromCommand := a.speech.Recognizer.(*speech.ExecRecognizer); fromCommand {
				fmt.Fprintln(cmd.ErrOrStderr(), "Listening. Press Enter to stop.")
				go func() {
					_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					close(enter)
				}()
			}

			waitForStop(ctx, enter, session.Done(), session.Errors(), cmd.ErrOrStderr())

			note, err := draft.Save(cmd.Context())
			if err != nil {
				if errors.Is(err, notes.ErrEmptyContent) {
					return fmt.Errorf("nothing was transcribed: %w", err)
				}
				return err
			}
			fmt.Fprintln(out, note.ID)
			return nil
		},
	}
}

// waitForStop blocks until dictation should stop, printing recognition
// errors to w meanwhile.
func waitForStop(ctx context.Context, enter, done <-chan struct{}, errs <-chan error, w io.Writer) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-enter:
			return
		case <-done:
			return
		case err := <-errs:
			fmt.Fprintln(w, err)
		}
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every note to <dir> as Markdown with frontmatter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := filesystem.New(args[0], nil, frontmatter.New())
			if err != nil {
				return err
			}

			n, err := svc.ExportNotes(a.store.List())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d notes to %s\n", n, svc.Dir())
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var filter types.PathFilterConfig
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Create a note for every Markdown or text file under <dir>",
		Long: `import walks <dir> and creates one note per .md, .markdown or .txt
file, oldest first. Frontmatter is stripped from the content. Files
whose frontmatter id matches an existing note, and files whose text
matches an existing note, are skipped.`,
		Example: `voicenotes import ~/notes --ignore "drafts/**" --ext .org`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := pathfilter.New(&filter)
			if err != nil {
				return err
			}
			svc, err := filesystem.New(args[0], pf, frontmatter.New())
			if err != nil {
				return err
			}

			imported, err := svc.ReadNotes()
			if err != nil {
				return err
			}

			start := time.Now()
			known := a.store.ContentSums()
			var created, skipped int
			for _, in := range imported {
				if id := in.Document.Meta.ID; id != "" {
					if _, exists := a.store.Get(id); exists {
						skipped++
						continue
					}
				}

				sum := notes.ContentSum(in.Document.Content)
				if _, dup := known[sum]; dup {
					a.logger.Debug("skipping duplicate note", "path", in.Path)
					skipped++
					continue
				}

				_, err := a.store.Create(cmd.Context(), in.Document.Content)
				if errors.Is(err, notes.ErrEmptyContent) {
					a.logger.Warn("skipping empty note", "path", in.Path)
					skipped++
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", in.Path, err)
				}
				known[sum] = struct{}{}
				created++
			}

			a.logger.Debug("import finished", "created", created, "skipped", skipped, "total", a.store.Len(), "took", time.Since(start))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d notes (%d skipped)\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&filter.IgnoredPatterns, "ignore", nil, "extra glob of paths to skip, e.g. \"drafts/**\" (repeatable)")
	cmd.Flags().StringArrayVar(&filter.AllowedExtensions, "ext", nil, "extra file extension to import (repeatable)")
	return cmd
}
