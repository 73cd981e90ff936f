package token

import (
	"errors"
	"math"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	crypto "github.com/Dodecahedr0x/amm-tutorial/internal/crypto/common"
)

// Ledger errors
var (
	ErrNoSuchMint        = errors.New("mint does not exist")
	ErrMintExists        = errors.New("mint already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotAuthorized     = errors.New("credential does not authorize this operation")
	ErrAmountOverflow    = errors.New("amount overflows balance or supply")
)

// View provides read/write access to ledger records. The transaction
// engine's apply state table satisfies it, so every ledger call inside an
// operation shares that operation's atomic commit.
type View interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}

// Credential authorizes debits from an account or mints against a mint
// authority. It is opaque: callers outside the core obtain one only for
// the account they signed for, while pool authorities are derived
// internally and never leave the operation code.
type Credential struct {
	account [20]byte
}

// Signer returns the credential of an external signer, established by the
// execution environment's authentication layer.
func Signer(account [20]byte) Credential {
	return Credential{account: account}
}

// AuthorityCredential derives the signing credential for an authority
// keylet. Only operation code ever calls this.
func AuthorityCredential(k keylet.Keylet) Credential {
	return Credential{account: crypto.AccountID(k.Key[:])}
}

// Covers reports whether the credential authorizes acting as account.
func (c Credential) Covers(account [20]byte) bool {
	return c.account == account
}

// Ledger is the asset ledger: balances and supply for fungible asset
// types, keyed by derived addresses in the backing view. Every method is
// a single atomic step within the caller's view.
type Ledger struct {
	view View
}

// NewLedger creates a Ledger over the given view.
func NewLedger(view View) *Ledger {
	return &Ledger{view: view}
}

// CreateMint initializes a new asset type with zero supply under the
// given authority.
func (l *Ledger) CreateMint(mint [32]byte, authority [20]byte) error {
	k := keylet.MintInfo(mint)
	exists, err := l.view.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrMintExists
	}
	data, err := record.SerializeMintInfo(&record.MintInfo{Mint: mint, Authority: authority})
	if err != nil {
		return err
	}
	return l.view.Insert(k, data)
}

// Supply returns the total supply of an asset type.
func (l *Ledger) Supply(mint [32]byte) (uint64, error) {
	info, err := l.mintInfo(mint)
	if err != nil {
		return 0, err
	}
	return info.Supply, nil
}

// BalanceOf returns holder's balance of the given asset type. A missing
// balance record reads as zero.
func (l *Ledger) BalanceOf(holder [20]byte, mint [32]byte) (uint64, error) {
	data, err := l.view.Read(keylet.Balance(holder, mint))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	bal, err := record.ParseBalance(data)
	if err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

// Mint creates amount units of the asset type in to's balance. The
// credential must cover the mint authority.
func (l *Ledger) Mint(mint [32]byte, to [20]byte, amount uint64, by Credential) error {
	info, err := l.mintInfo(mint)
	if err != nil {
		return err
	}
	if !by.Covers(info.Authority) {
		return ErrNotAuthorized
	}
	if info.Supply > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	info.Supply += amount
	if err := l.putMintInfo(info); err != nil {
		return err
	}
	return l.credit(to, mint, amount)
}

// Burn destroys amount units of the asset type from from's balance. The
// credential must cover the balance holder.
func (l *Ledger) Burn(mint [32]byte, from [20]byte, amount uint64, by Credential) error {
	if !by.Covers(from) {
		return ErrNotAuthorized
	}
	info, err := l.mintInfo(mint)
	if err != nil {
		return err
	}
	if info.Supply < amount {
		return ErrInsufficientFunds
	}
	if err := l.debit(from, mint, amount); err != nil {
		return err
	}
	info.Supply -= amount
	return l.putMintInfo(info)
}

// Transfer moves amount units of the asset type from one holder to
// another. The credential must cover the source holder.
func (l *Ledger) Transfer(mint [32]byte, from, to [20]byte, amount uint64, by Credential) error {
	if !by.Covers(from) {
		return ErrNotAuthorized
	}
	if from == to || amount == 0 {
		return nil
	}
	if err := l.debit(from, mint, amount); err != nil {
		return err
	}
	return l.credit(to, mint, amount)
}

func (l *Ledger) mintInfo(mint [32]byte) (*record.MintInfo, error) {
	data, err := l.view.Read(keylet.MintInfo(mint))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoSuchMint
	}
	return record.ParseMintInfo(data)
}

func (l *Ledger) putMintInfo(info *record.MintInfo) error {
	data, err := record.SerializeMintInfo(info)
	if err != nil {
		return err
	}
	return l.view.Update(keylet.MintInfo(info.Mint), data)
}

func (l *Ledger) credit(holder [20]byte, mint [32]byte, amount uint64) error {
	k := keylet.Balance(holder, mint)
	data, err := l.view.Read(k)
	if err != nil {
		return err
	}
	if data == nil {
		fresh, err := record.SerializeBalance(&record.Balance{Holder: holder, Mint: mint, Amount: amount})
		if err != nil {
			return err
		}
		return l.view.Insert(k, fresh)
	}
	bal, err := record.ParseBalance(data)
	if err != nil {
		return err
	}
	if bal.Amount > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	bal.Amount += amount
	updated, err := record.SerializeBalance(bal)
	if err != nil {
		return err
	}
	return l.view.Update(k, updated)
}

func (l *Ledger) debit(holder [20]byte, mint [32]byte, amount uint64) error {
	k := keylet.Balance(holder, mint)
	data, err := l.view.Read(k)
	if err != nil {
		return err
	}
	if data == nil {
		return ErrInsufficientFunds
	}
	bal, err := record.ParseBalance(data)
	if err != nil {
		return err
	}
	if bal.Amount < amount {
		return ErrInsufficientFunds
	}
	bal.Amount -= amount
	updated, err := record.SerializeBalance(bal)
	if err != nil {
		return err
	}
	return l.view.Update(k, updated)
}
