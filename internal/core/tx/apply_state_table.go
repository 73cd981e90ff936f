package tx

import (
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
)

// Action represents the type of modification to a state record
type Action int

const (
	// ActionCache means the record was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new record was created
	ActionInsert
	// ActionModify means an existing record was modified
	ActionModify
	// ActionErase means a record was deleted
	ActionErase
)

// TrackedEntry represents a state record being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state (nil after erase)
}

// ApplyStateTable wraps a LedgerView and buffers all modifications so a
// transaction either commits every write or none. Reads always see the
// transaction's own pending writes, never a stale snapshot.
type ApplyStateTable struct {
	base  LedgerView
	items map[[32]byte]*TrackedEntry
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads a state record, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track records that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if a record exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new record
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return fmt.Errorf("entry already exists")
		}
		// Re-inserting a deleted record becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("entry already exists")
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionInsert,
		Original: nil,
		Current:  data,
	}
	return nil
}

// Update modifies an existing record
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("entry does not exist")
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("entry does not exist")
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes a record
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("entry does not exist")
		}
		if entry.Action == ActionInsert {
			// Never reached the base; forget it entirely
			delete(t.items, k.Key)
			return nil
		}
		entry.Action = ActionErase
		entry.Current = nil
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("entry does not exist")
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
	}
	return nil
}

// Changes collects the buffered writes: puts for inserted or modified
// records and deletes for erased ones. Cached reads are excluded.
func (t *ApplyStateTable) Changes() (puts map[[32]byte][]byte, deletes [][32]byte) {
	puts = make(map[[32]byte][]byte)
	for key, entry := range t.items {
		switch entry.Action {
		case ActionInsert, ActionModify:
			puts[key] = entry.Current
		case ActionErase:
			deletes = append(deletes, key)
		}
	}
	return puts, deletes
}
