package tx

import (
	"encoding/json"
	"strings"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/token"
	crypto "github.com/Dodecahedr0x/amm-tutorial/internal/crypto/common"
)

// LedgerView provides read/write access to exchange state
type LedgerView interface {
	// Read reads a record; a missing record reads as nil
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if a record exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new record
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing record
	Update(k keylet.Keylet, data []byte) error

	// Erase removes a record
	Erase(k keylet.Keylet) error
}

// BatchWriter is implemented by base views that can commit a set of
// writes atomically. The engine prefers it over replaying writes one by
// one.
type BatchWriter interface {
	WriteBatch(puts map[[32]byte][]byte, deletes [][32]byte) error
}

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// LedgerSequence is the current logical sequence, recorded with each
	// applied transaction
	LedgerSequence uint32
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result

	// Applied indicates if the transaction mutated state
	Applied bool

	// TxHash is the hash of the transaction
	TxHash [32]byte

	// Metadata contains the operation outputs (nil unless applied)
	Metadata *Metadata

	// Message is a human-readable result message
	Message string
}

// Engine processes transactions against exchange state. Each call to
// Apply is a single atomic transition: it validates, runs the operation
// against a buffered view, and commits all writes or none.
type Engine struct {
	view   LedgerView
	config EngineConfig
}

// NewEngine creates a new transaction engine
func NewEngine(view LedgerView, config EngineConfig) *Engine {
	return &Engine{
		view:   view,
		config: config,
	}
}

// Apply validates and applies a transaction.
func (e *Engine) Apply(t Transaction) ApplyResult {
	txHash, err := computeTransactionHash(t)
	if err != nil {
		return ApplyResult{Result: TecINTERNAL, TxHash: txHash, Message: TecINTERNAL.Message()}
	}

	// Malformed transactions are rejected before any state access.
	if err := t.Validate(); err != nil {
		r := resultFromValidation(err)
		return ApplyResult{Result: r, TxHash: txHash, Message: err.Error()}
	}

	appliable, ok := t.(Appliable)
	if !ok {
		return ApplyResult{Result: TemINVALID, TxHash: txHash, Message: TemINVALID.Message()}
	}

	accountID, err := ParseAccountID(t.GetCommon().Account)
	if err != nil {
		return ApplyResult{Result: TemBAD_ACCOUNT, TxHash: txHash, Message: err.Error()}
	}

	// All reads and writes go through the state table; reserve and supply
	// figures are always re-read at transition time, never cached across
	// transactions.
	table := NewApplyStateTable(e.view)
	ctx := &ApplyContext{
		View:      table,
		Tokens:    token.NewLedger(table),
		AccountID: accountID,
		Config:    e.config,
		TxHash:    txHash,
		Metadata:  &Metadata{},
	}

	result := appliable.Apply(ctx)
	if !result.IsSuccess() {
		// Discard the table; the base view is untouched.
		return ApplyResult{Result: result, TxHash: txHash, Message: result.Message()}
	}

	if err := e.commit(table); err != nil {
		return ApplyResult{Result: TecINTERNAL, TxHash: txHash, Message: err.Error()}
	}

	return ApplyResult{
		Result:   TesSUCCESS,
		Applied:  true,
		TxHash:   txHash,
		Metadata: ctx.Metadata,
		Message:  TesSUCCESS.Message(),
	}
}

// commit flushes the buffered writes to the base view, atomically when
// the base supports batch writes.
func (e *Engine) commit(table *ApplyStateTable) error {
	puts, deletes := table.Changes()
	if bw, ok := e.view.(BatchWriter); ok {
		return bw.WriteBatch(puts, deletes)
	}
	for key, data := range puts {
		k := keylet.Keylet{Key: key}
		exists, err := e.view.Exists(k)
		if err != nil {
			return err
		}
		if exists {
			if err := e.view.Update(k, data); err != nil {
				return err
			}
		} else {
			if err := e.view.Insert(k, data); err != nil {
				return err
			}
		}
	}
	for _, key := range deletes {
		if err := e.view.Erase(keylet.Keylet{Key: key}); err != nil {
			return err
		}
	}
	return nil
}

// computeTransactionHash hashes the flattened transaction. json.Marshal
// of a map sorts keys, so the hash is canonical for a given field set.
func computeTransactionHash(t Transaction) ([32]byte, error) {
	flat, err := t.Flatten()
	if err != nil {
		return [32]byte{}, err
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha512Half([]byte("TXN\x00"), data), nil
}

// resultFromValidation maps a Validate error to its tem result code by
// the error's leading code name.
func resultFromValidation(err error) Result {
	msg := err.Error()
	if idx := strings.IndexByte(msg, ':'); idx > 0 {
		if r, ok := resultNames[msg[:idx]]; ok {
			return r
		}
	}
	return TemMALFORMED
}
