package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/voicenotes/internal/speech"
	"github.com/taigrr/voicenotes/internal/types"
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func contentsOf(notes []types.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = strings.TrimSpace(n.Content)
	}
	return out
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestAddCmd(t *testing.T) {
	a := newTestApp(t)

	out, err := execute(t, a.addCmd(), "buy", "more", "coffee")
	require.NoError(t, err)
	assert.Equal(t, "n1\n", out)

	note, ok := a.store.Get("n1")
	require.True(t, ok)
	assert.Equal(t, "buy more coffee", note.Content)

	_, err = execute(t, a.addCmd())
	assert.Error(t, err)
	assert.Equal(t, 1, a.store.Len())
}

func TestListCmd(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	out, err := execute(t, a.listCmd())
	require.NoError(t, err)
	assert.Equal(t, "No notes yet.\n", out)

	_, err = a.store.Create(ctx, "Buy milk")
	require.NoError(t, err)
	_, err = a.store.Create(ctx, "walk the dog")
	require.NoError(t, err)

	t.Run("all newest first", func(t *testing.T) {
		out, err := execute(t, a.listCmd())
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "n2"))
		assert.True(t, strings.HasPrefix(lines[1], "n1"))
	})

	t.Run("query is trimmed like list_notes", func(t *testing.T) {
		out, err := execute(t, a.listCmd(), " MILK ")
		require.NoError(t, err)
		assert.Contains(t, out, "n1")
		assert.Contains(t, out, "(1)  Buy milk")
		assert.NotContains(t, out, "n2")

		_, listed, err := a.handleList(ctx, nil, ListInput{Query: " MILK "})
		require.NoError(t, err)
		require.Len(t, listed.Notes, 1)
		assert.Equal(t, "n1", listed.Notes[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		out, err := execute(t, a.listCmd(), "zzz")
		require.NoError(t, err)
		assert.Equal(t, "No notes match \"zzz\".\n", out)
	})

	t.Run("by id", func(t *testing.T) {
		out, err := execute(t, a.listCmd(), "--id", "n2")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out, "\n\nwalk the dog\n"))

		_, err = execute(t, a.listCmd(), "--id", "missing")
		assert.ErrorContains(t, err, "note not found")
	})
}

func TestDeleteCmd(t *testing.T) {
	a := newTestApp(t)
	_, err := a.store.Create(context.Background(), "to remove")
	require.NoError(t, err)

	out, err := execute(t, a.deleteCmd(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "deleted n1\n", out)
	assert.Zero(t, a.store.Len())

	_, err = execute(t, a.deleteCmd(), "n1")
	assert.ErrorContains(t, err, "note not found: n1")
}

func TestDictateCmd(t *testing.T) {
	t.Run("saves the transcript when the source ends", func(t *testing.T) {
		a := newTestApp(t)
		a.speech = speech.Capability{Recognizer: speech.NewLineRecognizer(strings.NewReader("~ Hel\nHello\n"))}

		out, err := execute(t, a.dictateCmd())
		require.NoError(t, err)
		assert.Contains(t, out, "> Hello\n")
		assert.True(t, strings.HasSuffix(out, "n1\n"))

		note, ok := a.store.Get("n1")
		require.True(t, ok)
		assert.Equal(t, "Hello", note.Content)
	})

	t.Run("unsupported", func(t *testing.T) {
		a := newTestApp(t)

		_, err := execute(t, a.dictateCmd())
		require.ErrorIs(t, err, speech.ErrUnsupported)
		assert.Zero(t, a.store.Len())
	})

	t.Run("nothing transcribed", func(t *testing.T) {
		a := newTestApp(t)
		a.speech = speech.Capability{Recognizer: speech.NewLineRecognizer(strings.NewReader(""))}

		_, err := execute(t, a.dictateCmd())
		assert.ErrorContains(t, err, "nothing was transcribed")
		assert.Zero(t, a.store.Len())
	})
}

func TestWaitForStop_PrintsRecognitionErrors(t *testing.T) {
	var stderr bytes.Buffer
	errs := make(chan error)
	done := make(chan struct{})
	returned := make(chan struct{})

	go func() {
		waitForStop(context.Background(), nil, done, errs, &stderr)
		close(returned)
	}()

	errs <- &speech.RecognitionError{Err: errors.New("no-speech")}
	close(done)
	<-returned

	assert.Equal(t, "recognition error: no-speech\n", stderr.String())
}

func TestExportCmd(t *testing.T) {
	a := newTestApp(t)
	_, err := a.store.Create(context.Background(), "exported text")
	require.NoError(t, err)

	dir := t.TempDir()
	out, err := execute(t, a.exportCmd(), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 notes")

	data, err := os.ReadFile(filepath.Join(dir, "n1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: n1")
	assert.True(t, strings.HasSuffix(string(data), "exported text"))
}

func TestImportCmd(t *testing.T) {
	a := newTestApp(t)
	_, err := a.store.Create(context.Background(), "Buy milk")
	require.NoError(t, err)

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"existing.md":    "---\nid: n1\n---\nsame id, other text",
		"dup.md":         "Buy milk\n",
		"empty.md":       "---\nid: e1\n---\n",
		"copy.md":        "fresh idea\n",
		"new.md":         "fresh idea\n",
		"journal.org":    "org note",
		"drafts/skip.md": "draft",
		"picture.png":    "png",
	})

	out, err := execute(t, a.importCmd(), dir, "--ignore", "drafts/**", "--ext", ".org")
	require.NoError(t, err)
	assert.Equal(t, "imported 2 notes (4 skipped)\n", out)

	assert.ElementsMatch(t, []string{"Buy milk", "fresh idea", "org note"}, contentsOf(a.store.List()))

	t.Run("reimport is a no-op", func(t *testing.T) {
		out, err := execute(t, a.importCmd(), dir, "--ignore", "drafts/**", "--ext", ".org")
		require.NoError(t, err)
		assert.Equal(t, 3, a.store.Len())
		assert.Contains(t, out, "imported 0 notes")
	})

	t.Run("invalid ignore pattern", func(t *testing.T) {
		_, err := execute(t, a.importCmd(), dir, "--ignore", "[unclosed")
		assert.ErrorContains(t, err, "invalid ignore pattern")
	})
}
