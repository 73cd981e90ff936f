package state

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database"
)

var (
	// ErrEntryExists is returned when inserting over an existing record
	ErrEntryExists = errors.New("state entry already exists")

	// ErrNoEntry is returned when updating or erasing a missing record
	ErrNoEntry = errors.New("no such state entry")
)

// DefaultCacheSize is the number of records kept in the read cache.
const DefaultCacheSize = 16384

// Store is the durable exchange state, a keylet-addressed record map
// over a key-value backend with a read-through LRU cache. It implements
// the engine's ledger view and commits transaction writes as a single
// batch.
//
// The engine serializes transactions, so writes never race each other;
// the cache is still safe for concurrent readers.
type Store struct {
	db    database.DB
	cache *lru.Cache[[32]byte, []byte]
}

// NewStore creates a store over db. cacheSize <= 0 uses
// DefaultCacheSize.
func NewStore(db database.DB, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create state cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Read reads a record; a missing record reads as nil.
func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	if data, ok := s.cache.Get(k.Key); ok {
		return data, nil
	}

	data, err := s.db.Read(context.Background(), k.Key[:])
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.cache.Add(k.Key, data)
	return data, nil
}

// Exists checks if a record exists.
func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// Insert adds a new record.
func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}
	if err := s.db.Write(context.Background(), k.Key[:], data); err != nil {
		return err
	}
	s.cache.Add(k.Key, data)
	return nil
}

// Update modifies an existing record.
func (s *Store) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoEntry
	}
	if err := s.db.Write(context.Background(), k.Key[:], data); err != nil {
		return err
	}
	s.cache.Add(k.Key, data)
	return nil
}

// Erase removes a record.
func (s *Store) Erase(k keylet.Keylet) error {
	if err := s.db.Delete(context.Background(), k.Key[:]); err != nil {
		return err
	}
	s.cache.Remove(k.Key)
	return nil
}

// WriteBatch commits a transaction's writes atomically.
func (s *Store) WriteBatch(puts map[[32]byte][]byte, deletes [][32]byte) error {
	ops := make([]database.BatchOperation, 0, len(puts)+len(deletes))
	for key, data := range puts {
		ops = append(ops, database.BatchOperation{
			Type:  database.BatchPut,
			Key:   key[:],
			Value: data,
		})
	}
	for _, key := range deletes {
		ops = append(ops, database.BatchOperation{
			Type: database.BatchDelete,
			Key:  key[:],
		})
	}

	if err := s.db.Batch(context.Background(), ops); err != nil {
		return err
	}

	// The batch is durable; only now may the cache serve the new state.
	for key, data := range puts {
		s.cache.Add(key, data)
	}
	for _, key := range deletes {
		s.cache.Remove(key)
	}
	return nil
}

// Snapshot iterates every record in key order. The callback returning
// false stops early.
func (s *Store) Snapshot(ctx context.Context, fn func(key [32]byte, data []byte) bool) error {
	it, err := s.db.Iterator(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		var key [32]byte
		if len(it.Key()) != len(key) {
			continue
		}
		copy(key[:], it.Key())
		if !fn(key, it.Value()) {
			break
		}
	}
	return it.Error()
}

// Restore loads records produced by a snapshot, replacing whatever is
// already stored under the same keys.
func (s *Store) Restore(ctx context.Context, key [32]byte, data []byte) error {
	if err := s.db.Write(ctx, key[:], data); err != nil {
		return err
	}
	s.cache.Remove(key)
	return nil
}
