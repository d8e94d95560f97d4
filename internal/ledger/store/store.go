// Package store holds the key-value backends the ledger commits to.
package store

import (
	"context"
	"fmt"

	dbm "github.com/tendermint/tm-db"

	"landlocked/pkg/platform/sentinel"
)

// Write is one staged mutation of a commit batch.
type Write struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// KV is the persistence contract of the ledger. Apply must be atomic: either
// every write lands or none does.
type KV interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Apply(ctx context.Context, batch []Write) error
	Close() error
}

// TMStore adapts a tm-db database to KV.
type TMStore struct {
	db dbm.DB
}

// NewMemDB returns a volatile store for tests and development nodes.
func NewMemDB() *TMStore {
	return &TMStore{db: dbm.NewMemDB()}
}

// NewLevelDB opens (or creates) a goleveldb database named name under dir.
func NewLevelDB(name, dir string) (*TMStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", name, err)
	}
	return &TMStore{db: db}, nil
}

func (s *TMStore) Get(_ context.Context, key []byte) ([]byte, error) {
	value, err := s.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("tmdb get: %w", err)
	}
	if value == nil {
		return nil, sentinel.ErrNotFound
	}
	return value, nil
}

func (s *TMStore) Apply(ctx context.Context, batch []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, w := range batch {
		if w.Delete {
			b.Delete(w.Key)
			continue
		}
		b.Set(w.Key, w.Value)
	}
	if err := b.WriteSync(); err != nil {
		return fmt.Errorf("tmdb write batch: %w", err)
	}
	return nil
}

func (s *TMStore) Close() error {
	return s.db.Close()
}
