// Package bbolt provides a BBolt-backed credstore.Store.
//
// BBolt takes an exclusive file lock, so this backend suits a
// single-process daemon that already keeps a bbolt handle open; use the
// file backend when the slot must be shared across processes.
package bbolt

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/devprozorov/unicorn/credstore"
)

var (
	bucketAuth     = []byte("auth")
	keyAccessToken = []byte("access_token")
)

// Store implements credstore.Store backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ credstore.Store = (*Store)(nil)

// New returns a Store using the given BBolt database.
func New(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewFromFile opens a BBolt database at the given path and returns a
// Store over it.
func NewFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return New(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		if b == nil {
			return credstore.ErrNotFound
		}
		data := b.Get(keyAccessToken)
		if data == nil {
			return credstore.ErrNotFound
		}
		token = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", credstore.ErrNotFound
	}
	return token, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketAuth)
		if err != nil {
			return err
		}
		return b.Put(keyAccessToken, []byte(token))
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		if b == nil {
			return nil
		}
		return b.Delete(keyAccessToken)
	})
}
