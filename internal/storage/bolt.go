package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("voicenotes")

// Bolt stores the blob in a bbolt database.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt database at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}

	return &Bolt{db: db}, nil
}

// ReadAll implements Adapter.
func (b *Bolt) ReadAll(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var blob []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(Key))
		if data == nil {
			return nil
		}

		// data is only valid for the life of the transaction
		blob = append([]byte{}, data...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return blob, blob != nil, nil
}

// WriteAll implements Adapter.
func (b *Bolt) WriteAll(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(Key), blob)
	})
}

// Close implements Adapter.
func (b *Bolt) Close() error {
	return b.db.Close()
}
