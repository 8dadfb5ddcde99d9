// Package storage persists the serialized note collection under a single
// key in a key-value store.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Key is the fixed name the note collection is stored under.
const Key = "notes"

// Adapter reads and writes the raw serialized collection.
//
// WriteAll completes its side effect before returning. Adapters make no
// promise about partial writes after a crash.
type Adapter interface {
	// ReadAll returns the stored blob. ok is false when nothing was stored yet.
	ReadAll(ctx context.Context) (blob []byte, ok bool, err error)

	// WriteAll overwrites the stored blob.
	WriteAll(ctx context.Context, blob []byte) error

	Close() error
}

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Backends lists every backend Open understands.
var Backends = []string{BackendBolt, BackendSQLite, BackendFile, BackendMemory}

// Config selects and locates a backend.
type Config struct {
	Backend string
	Home    string
}

// Open creates the adapter named by cfg.Backend rooted at cfg.Home.
func Open(cfg Config) (Adapter, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendBolt
	}

	switch backend {
	case BackendBolt:
		return OpenBolt(filepath.Join(cfg.Home, "notes.db"))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(cfg.Home, "notes.sqlite"))
	case BackendFile:
		return NewFile(cfg.Home, Key+".json")
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of %s)", cfg.Backend, strings.Join(Backends, ", "))
	}
}
