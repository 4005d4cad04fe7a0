package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStorage persists snapshots in a local bbolt file. The CLI uses it so that a
// named profile survives between invocations the way a tab survives reloads.
type BoltStorage struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBoltStorage opens (or creates) the file at path and ensures the bucket exists.
func OpenBoltStorage(path string, bucket string) (*BoltStorage, error) {
	if bucket == "" {
		bucket = "sessions"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStorage{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Load implements Storage.
func (b *BoltStorage) Load(_ context.Context, key string) ([]byte, error) {
	if b == nil || b.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if v == nil {
			return ErrStorageMiss
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Save implements Storage.
func (b *BoltStorage) Save(_ context.Context, key string, data []byte) error {
	if b == nil || b.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), data)
	})
}

// Delete implements Storage.
func (b *BoltStorage) Delete(_ context.Context, key string) error {
	if b == nil || b.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
}

// Close releases the file lock.
func (b *BoltStorage) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
