package amm

import (
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/token"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

// loadAmm reads the instance record for an instance id.
func loadAmm(view tx.LedgerView, id [32]byte) (*record.Amm, tx.Result) {
	data, err := view.Read(keylet.Amm(id))
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	if data == nil {
		return nil, tx.TecNO_ENTRY
	}
	a, err := record.ParseAmm(data)
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	return a, tx.TesSUCCESS
}

// loadPool reads the pool record stored at the given derived key.
func loadPool(view tx.LedgerView, poolKey [32]byte) (*record.Pool, tx.Result) {
	data, err := view.Read(keylet.Keylet{Type: record.TypePool, Key: poolKey})
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	if data == nil {
		return nil, tx.TecNO_ENTRY
	}
	p, err := record.ParsePool(data)
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	return p, tx.TesSUCCESS
}

// loadDeposit reads the depositor's liquidity record for a pool.
func loadDeposit(view tx.LedgerView, poolKey [32]byte, depositor [20]byte) (*record.Deposit, tx.Result) {
	data, err := view.Read(keylet.Deposit(poolKey, depositor))
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	if data == nil {
		return nil, tx.TecNO_ENTRY
	}
	d, err := record.ParseDeposit(data)
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	return d, tx.TesSUCCESS
}

// storeDeposit writes back a mutated deposit record.
func storeDeposit(view tx.LedgerView, poolKey [32]byte, d *record.Deposit) tx.Result {
	data, err := record.SerializeDeposit(d)
	if err != nil {
		return tx.TecINTERNAL
	}
	if err := view.Update(keylet.Deposit(poolKey, d.Depositor), data); err != nil {
		return tx.TecINTERNAL
	}
	return tx.TesSUCCESS
}

// poolAuthorityCredential derives the signing credential that authorizes
// debits from the pool's reserve accounts and mints of its liquidity
// shares. It never leaves operation code.
func poolAuthorityCredential(p *record.Pool) token.Credential {
	return token.AuthorityCredential(keylet.PoolAuthority(p.AmmID, p.MintA, p.MintB))
}

// reserves reads the pool's two reserve balances from the token ledger.
func reserves(tokens *token.Ledger, p *record.Pool) (reserveA, reserveB uint64, res tx.Result) {
	a, err := tokens.BalanceOf(p.Authority, p.MintA)
	if err != nil {
		return 0, 0, tx.TecINTERNAL
	}
	b, err := tokens.BalanceOf(p.Authority, p.MintB)
	if err != nil {
		return 0, 0, tx.TecINTERNAL
	}
	return a, b, tx.TesSUCCESS
}

// tokenResult maps asset ledger failures to result codes.
func tokenResult(err error) tx.Result {
	switch err {
	case nil:
		return tx.TesSUCCESS
	case token.ErrInsufficientFunds:
		return tx.TecINSUFFICIENT_FUNDS
	case token.ErrNoSuchMint:
		return tx.TecNO_ENTRY
	case token.ErrMintExists:
		return tx.TecDUPLICATE
	case token.ErrNotAuthorized:
		return tx.TecNO_PERMISSION
	default:
		return tx.TecINTERNAL
	}
}
