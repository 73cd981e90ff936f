package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database"
)

// DB is an in-memory backend used for tests and throwaway nodes. It
// keeps full copies of keys and values so callers can't alias its
// internals.
type DB struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewDB() *DB {
	return &DB{items: make(map[string][]byte)}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.items[string(key)]
	if !ok {
		return nil, database.ErrKeyNotFound
	}
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (m *DB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	valCopy := make([]byte, len(value))
	copy(valCopy, value)
	m.items[string(key)] = valCopy
	return nil
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, string(key))
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			valCopy := make([]byte, len(op.Value))
			copy(valCopy, op.Value)
			m.items[string(op.Key)] = valCopy
		case database.BatchDelete:
			delete(m.items, string(op.Key))
		}
	}
	return nil
}

// Close drops all entries.
func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string][]byte)
	return nil
}

type Iterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Snapshot the matching range so the caller iterates a stable view.
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		val := m.items[k]
		valCopy := make([]byte, len(val))
		copy(valCopy, val)
		values[i] = valCopy
	}

	return &Iterator{keys: keys, values: values, pos: -1}, nil
}

func (it *Iterator) Next() bool {
	if it.pos+1 >= len(it.keys) {
		return false
	}
	it.pos++
	return true
}

func (it *Iterator) Key() []byte {
	return []byte(it.keys[it.pos])
}

func (it *Iterator) Value() []byte {
	return it.values[it.pos]
}

func (it *Iterator) Error() error { return nil }

func (it *Iterator) Close() error { return nil }
