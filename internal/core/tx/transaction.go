package tx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAccount         = errors.New("invalid account")
)

// Type identifies a transaction type
type Type uint16

const (
	TypeInvalid Type = iota
	TypeAmmCreate
	TypePoolCreate
	TypeDepositCreate
	TypeLiquidityDeposit
	TypeLiquidityWithdraw
	TypeSwap
)

// String returns the transaction type name
func (t Type) String() string {
	switch t {
	case TypeAmmCreate:
		return "AmmCreate"
	case TypePoolCreate:
		return "PoolCreate"
	case TypeDepositCreate:
		return "DepositCreate"
	case TypeLiquidityDeposit:
		return "LiquidityDeposit"
	case TypeLiquidityWithdraw:
		return "LiquidityWithdraw"
	case TypeSwap:
		return "Swap"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// TypeFromName resolves a transaction type by its string name
func TypeFromName(name string) (Type, bool) {
	switch name {
	case "AmmCreate":
		return TypeAmmCreate, true
	case "PoolCreate":
		return TypePoolCreate, true
	case "DepositCreate":
		return TypeDepositCreate, true
	case "LiquidityDeposit":
		return TypeLiquidityDeposit, true
	case "LiquidityWithdraw":
		return TypeLiquidityWithdraw, true
	case "Swap":
		return TypeSwap, true
	default:
		return TypeInvalid, false
	}
}

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks if the transaction is well formed. It must reject
	// malformed input before any state is read.
	Validate() error

	// Flatten returns a flat map of all transaction fields for hashing
	// and serialization
	Flatten() (map[string]any, error)
}

// Appliable is implemented by transaction types that can apply themselves
// to exchange state.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Common contains fields common to all transaction types
type Common struct {
	// Account is the hex-encoded identity of the external signer. The
	// execution environment authenticates it before the transaction
	// reaches the engine.
	Account string `json:"Account"`

	// TransactionType names the concrete type
	TransactionType string `json:"TransactionType"`
}

// Validate validates the common fields
func (c *Common) Validate() error {
	if c.Account == "" {
		return errors.New("temBAD_ACCOUNT: Account is required")
	}
	if _, err := ParseAccountID(c.Account); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	if c.TransactionType == "" {
		return errors.New("temMALFORMED: TransactionType is required")
	}
	return nil
}

// ToMap converts common fields to a map
func (c *Common) ToMap() map[string]any {
	return map[string]any{
		"Account":         c.Account,
		"TransactionType": c.TransactionType,
	}
}

// BaseTx provides a base implementation for transactions
type BaseTx struct {
	Common
	txType Type
}

// TxType returns the transaction type
func (b *BaseTx) TxType() Type {
	return b.txType
}

// GetCommon returns the common transaction fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate validates the base transaction
func (b *BaseTx) Validate() error {
	return b.Common.Validate()
}

// Flatten returns a flat map of transaction fields
func (b *BaseTx) Flatten() (map[string]any, error) {
	return b.Common.ToMap(), nil
}

// NewBaseTx creates a new base transaction
func NewBaseTx(txType Type, account string) *BaseTx {
	return &BaseTx{
		Common: Common{
			Account:         account,
			TransactionType: txType.String(),
		},
		txType: txType,
	}
}

// ParseAccountID decodes a hex-encoded 20-byte account identity.
func ParseAccountID(s string) ([20]byte, error) {
	var id [20]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if len(raw) != 20 {
		return id, fmt.Errorf("%w: need 20 bytes, have %d", ErrInvalidAccount, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// ParseHash256 decodes a hex-encoded 32-byte identifier (instance ids,
// mint ids, record keys).
func ParseHash256(s string) ([32]byte, error) {
	var h [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("invalid identifier: %v", err)
	}
	if len(raw) != 32 {
		return h, fmt.Errorf("invalid identifier: need 32 bytes, have %d", len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// EncodeAccountID hex-encodes a 20-byte account identity.
func EncodeAccountID(id [20]byte) string {
	return hex.EncodeToString(id[:])
}

// EncodeHash256 hex-encodes a 32-byte identifier.
func EncodeHash256(h [32]byte) string {
	return hex.EncodeToString(h[:])
}
