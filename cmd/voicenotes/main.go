// Package main implements the voicenotes CLI and MCP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/voicenotes/internal/notes"
	"github.com/taigrr/voicenotes/internal/speech"
	"github.com/taigrr/voicenotes/internal/storage"
)

const (
	homeEnv   = "VOICENOTES_HOME"
	sttCmdEnv = "VOICENOTES_STT_CMD"
)

// app carries flag values and the services opened for one invocation.
type app struct {
	home       string
	backend    string
	locale     string
	sttCmd     string
	allowEmpty bool
	verbose    bool

	logger  *slog.Logger
	adapter storage.Adapter
	store   *notes.Store
	speech  speech.Capability
}

func main() {
	a := &app{}
	if err := fang.Execute(
		context.Background(),
		a.rootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voicenotes",
		Short: "Typed and dictated notes",
		Long: `voicenotes keeps a newest-first collection of short notes.
Notes can be typed, dictated through a speech-to-text command,
searched case-insensitively, exported as Markdown and served
to MCP clients over stdio.`,
		Example: `voicenotes add buy more coffee
voicenotes list coffee
voicenotes dictate --stt-cmd "whisper-stream --model base"`,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.home, "home", defaultHome(), "directory holding the note database (env "+homeEnv+")")
	flags.StringVar(&a.backend, "backend", storage.BackendBolt, "storage backend: bolt, sqlite, file or memory")
	flags.BoolVar(&a.allowEmpty, "allow-empty", false, "allow saving notes with empty content")
	flags.StringVar(&a.locale, "locale", speech.DefaultLocale.String(), "speech recognition locale (BCP 47)")
	flags.StringVar(&a.sttCmd, "stt-cmd", os.Getenv(sttCmdEnv), "speech-to-text command streaming transcripts on stdout (env "+sttCmdEnv+")")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.deleteCmd(),
		a.dictateCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.serveCmd(),
	)
	return cmd
}

func defaultHome() string {
	if home := os.Getenv(homeEnv); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".voicenotes"
	}
	return filepath.Join(userHome, ".voicenotes")
}

// setup installs the logger, decides the speech capability and opens the
// note store.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	capability, err := speech.Detect(speech.DetectConfig{
		Command: a.sttCmd,
		Stdin:   os.Stdin,
		Locale:  a.locale,
	})
	if err != nil {
		return err
	}
	a.speech = capability
	a.logger.Debug("speech capability", "available", capability.Available(), "locale", capability.Locale)

	adapter, err := storage.Open(storage.Config{Backend: a.backend, Home: a.home})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.adapter = adapter

	a.store = notes.Open(cmd.Context(), adapter, notes.Options{
		AllowEmpty: a.allowEmpty,
		Logger:     a.logger,
	})
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.adapter == nil {
		return nil
	}
	err := a.adapter.Close()
	a.adapter = nil
	return err
}
