package record

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

// Type identifies the kind of record stored at a derived address.
// The type tag is fixed at creation and checked on every parse.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeAmm
	TypePool
	TypeDeposit
	TypeBalance
	TypeMintInfo
)

// String returns the record type name
func (t Type) String() string {
	switch t {
	case TypeAmm:
		return "Amm"
	case TypePool:
		return "Pool"
	case TypeDeposit:
		return "Deposit"
	case TypeBalance:
		return "Balance"
	case TypeMintInfo:
		return "MintInfo"
	default:
		return fmt.Sprintf("Invalid(%d)", t)
	}
}

var (
	ErrEmptyRecord   = errors.New("empty record data")
	ErrTypeMismatch  = errors.New("record type mismatch")
	ErrInvalidRecord = errors.New("invalid record data")
)

// MaxFeeBasisPoints is the exclusive upper bound for an instance fee.
// 10000 basis points would be a 100% fee.
const MaxFeeBasisPoints = 10000

// Amm is an exchange instance: an admin identity plus the trading fee
// applied to every swap in pools created under it. Immutable after creation.
type Amm struct {
	// ID is the caller-chosen primary key of the instance
	ID [32]byte `json:"id"`

	// Admin is the account with admin authority over the instance
	Admin [20]byte `json:"admin"`

	// Fee is the swap fee in basis points, always < 10000
	Fee uint16 `json:"fee"`
}

// Validate checks the Amm record invariants
func (a *Amm) Validate() error {
	if a.Fee >= MaxFeeBasisPoints {
		return fmt.Errorf("%w: fee %d out of range", ErrInvalidRecord, a.Fee)
	}
	return nil
}

// Pool binds an ordered pair of asset mints to an instance. Reserve
// balances are not stored here; they live in the token ledger under the
// pool authority's reserve accounts.
type Pool struct {
	// AmmID references the owning instance
	AmmID [32]byte `json:"amm_id"`

	// MintA and MintB identify the pooled asset types, MintA < MintB
	MintA [32]byte `json:"mint_a"`
	MintB [32]byte `json:"mint_b"`

	// Authority is the derived account that owns the reserve accounts
	// and the liquidity mint
	Authority [20]byte `json:"authority"`

	// LiquidityMint is the pool's liquidity-share asset type
	LiquidityMint [32]byte `json:"liquidity_mint"`
}

// Validate checks the canonical mint ordering invariant
func (p *Pool) Validate() error {
	if compareHash256(p.MintA, p.MintB) >= 0 {
		return fmt.Errorf("%w: mints out of order", ErrInvalidRecord)
	}
	return nil
}

// Deposit tracks one depositor's cumulative liquidity-share entitlement
// for one pool. It caps withdrawals; the share balance itself lives in
// the token ledger.
type Deposit struct {
	// Pool is the derived address key of the pool
	Pool [32]byte `json:"pool"`

	// Depositor is the owning account
	Depositor [20]byte `json:"depositor"`

	// Liquidity is the cumulative share quantity attributed to the depositor
	Liquidity uint64 `json:"liquidity"`
}

// Balance holds one account's balance of one asset type.
type Balance struct {
	Holder [20]byte `json:"holder"`
	Mint   [32]byte `json:"mint"`
	Amount uint64   `json:"amount"`
}

// MintInfo holds the supply and controlling authority of one asset type.
type MintInfo struct {
	Mint      [32]byte `json:"mint"`
	Authority [20]byte `json:"authority"`
	Supply    uint64   `json:"supply"`
}

var cborHandle codec.CborHandle

// Serialize encodes a record as a one-byte type tag followed by a CBOR body.
func Serialize(t Type, v any) ([]byte, error) {
	body := make([]byte, 0, 64)
	enc := codec.NewEncoderBytes(&body, &cborHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(t))
	return append(out, body...), nil
}

// Deserialize decodes a record body into v after checking the type tag.
func Deserialize(data []byte, want Type, v any) error {
	if len(data) == 0 {
		return ErrEmptyRecord
	}
	if Type(data[0]) != want {
		return fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, Type(data[0]), want)
	}
	dec := codec.NewDecoderBytes(data[1:], &cborHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// TypeOf returns the type tag of serialized record data.
func TypeOf(data []byte) Type {
	if len(data) == 0 {
		return TypeInvalid
	}
	return Type(data[0])
}

// SerializeAmm encodes an Amm record
func SerializeAmm(a *Amm) ([]byte, error) { return Serialize(TypeAmm, a) }

// ParseAmm decodes an Amm record
func ParseAmm(data []byte) (*Amm, error) {
	var a Amm
	if err := Deserialize(data, TypeAmm, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SerializePool encodes a Pool record
func SerializePool(p *Pool) ([]byte, error) { return Serialize(TypePool, p) }

// ParsePool decodes a Pool record
func ParsePool(data []byte) (*Pool, error) {
	var p Pool
	if err := Deserialize(data, TypePool, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SerializeDeposit encodes a Deposit record
func SerializeDeposit(d *Deposit) ([]byte, error) { return Serialize(TypeDeposit, d) }

// ParseDeposit decodes a Deposit record
func ParseDeposit(data []byte) (*Deposit, error) {
	var d Deposit
	if err := Deserialize(data, TypeDeposit, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SerializeBalance encodes a Balance record
func SerializeBalance(b *Balance) ([]byte, error) { return Serialize(TypeBalance, b) }

// ParseBalance decodes a Balance record
func ParseBalance(data []byte) (*Balance, error) {
	var b Balance
	if err := Deserialize(data, TypeBalance, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// SerializeMintInfo encodes a MintInfo record
func SerializeMintInfo(m *MintInfo) ([]byte, error) { return Serialize(TypeMintInfo, m) }

// ParseMintInfo decodes a MintInfo record
func ParseMintInfo(data []byte) (*MintInfo, error) {
	var m MintInfo
	if err := Deserialize(data, TypeMintInfo, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func compareHash256(a, b [32]byte) int {
	for i := 0; i < 32; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareMints compares two asset-type identifiers under the canonical
// total order used for pool addressing.
func CompareMints(a, b [32]byte) int {
	return compareHash256(a, b)
}
