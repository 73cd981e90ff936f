package amm

import (
	"errors"
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeLiquidityDeposit, func() tx.Transaction {
		return &LiquidityDeposit{BaseTx: *tx.NewBaseTx(tx.TypeLiquidityDeposit, "")}
	})
}

// LiquidityDeposit commits assets to a pool's reserves and mints
// liquidity shares to the signer. The first deposit sets the price and
// permanently locks MinimumLiquidity shares; later deposits are scaled
// down to the largest pair within the caller's maximums that preserves
// the current reserve ratio.
type LiquidityDeposit struct {
	tx.BaseTx

	// Pool is the derived address key of the pool, hex encoded
	Pool string `json:"Pool"`

	// AmountAMax and AmountBMax cap the amounts committed of each asset
	AmountAMax uint64 `json:"AmountAMax"`
	AmountBMax uint64 `json:"AmountBMax"`
}

// NewLiquidityDeposit creates a new LiquidityDeposit transaction
func NewLiquidityDeposit(account, pool string, amountAMax, amountBMax uint64) *LiquidityDeposit {
	return &LiquidityDeposit{
		BaseTx:     *tx.NewBaseTx(tx.TypeLiquidityDeposit, account),
		Pool:       pool,
		AmountAMax: amountAMax,
		AmountBMax: amountBMax,
	}
}

// TxType returns the transaction type
func (l *LiquidityDeposit) TxType() tx.Type {
	return tx.TypeLiquidityDeposit
}

// Validate validates the LiquidityDeposit transaction
func (l *LiquidityDeposit) Validate() error {
	if err := l.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.ParseHash256(l.Pool); err != nil {
		return fmt.Errorf("temMALFORMED: Pool - %v", err)
	}
	if l.AmountAMax == 0 || l.AmountBMax == 0 {
		return errors.New("temBAD_AMOUNT: deposit amounts must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (l *LiquidityDeposit) Flatten() (map[string]any, error) {
	m := l.Common.ToMap()
	m["Pool"] = l.Pool
	m["AmountAMax"] = l.AmountAMax
	m["AmountBMax"] = l.AmountBMax
	return m, nil
}

// Apply applies the LiquidityDeposit transaction to exchange state.
func (l *LiquidityDeposit) Apply(ctx *tx.ApplyContext) tx.Result {
	poolKey, _ := tx.ParseHash256(l.Pool)

	pool, res := loadPool(ctx.View, poolKey)
	if !res.IsSuccess() {
		return res
	}
	deposit, res := loadDeposit(ctx.View, poolKey, ctx.AccountID)
	if !res.IsSuccess() {
		return res
	}

	reserveA, reserveB, res := reserves(ctx.Tokens, pool)
	if !res.IsSuccess() {
		return res
	}
	totalShares, err := ctx.Tokens.Supply(pool.LiquidityMint)
	if err != nil {
		return tokenResult(err)
	}

	var amountA, amountB, shares uint64
	firstDeposit := totalShares == 0

	if firstDeposit {
		// No existing price: both maximums are committed in full.
		amountA = l.AmountAMax
		amountB = l.AmountBMax
		shares = sqrtProduct(amountA, amountB)
		if shares <= MinimumLiquidity {
			return tx.TecMIN_LIQUIDITY
		}
	} else {
		if reserveA == 0 || reserveB == 0 {
			return tx.TecEMPTY_POOL
		}
		// Largest pair within both maximums that preserves the reserve
		// ratio exactly under floor division.
		bScaled, ok := mulDiv(l.AmountBMax, reserveA, reserveB)
		if !ok {
			return tx.TecINTERNAL
		}
		amountA = minU64(l.AmountAMax, bScaled)
		if amountB, ok = mulDiv(amountA, reserveB, reserveA); !ok {
			return tx.TecINTERNAL
		}
		if shares, ok = mulDiv(totalShares, amountA, reserveA); !ok {
			return tx.TecINTERNAL
		}
		if shares == 0 {
			return tx.TecZERO_LIQUIDITY
		}
	}

	// Move the assets into the reserves before minting shares, so a
	// ledger failure leaves the supply untouched.
	signer := ctx.SignerCredential()
	if err := ctx.Tokens.Transfer(pool.MintA, ctx.AccountID, pool.Authority, amountA, signer); err != nil {
		return tokenResult(err)
	}
	if err := ctx.Tokens.Transfer(pool.MintB, ctx.AccountID, pool.Authority, amountB, signer); err != nil {
		return tokenResult(err)
	}

	authority := poolAuthorityCredential(pool)
	delivered := shares
	if firstDeposit {
		// The withheld minimum is minted to the pool authority, which
		// never transfers or burns it: the supply reflects it but no
		// caller can ever withdraw against it.
		delivered = shares - MinimumLiquidity
		if err := ctx.Tokens.Mint(pool.LiquidityMint, pool.Authority, MinimumLiquidity, authority); err != nil {
			return tokenResult(err)
		}
	}
	if err := ctx.Tokens.Mint(pool.LiquidityMint, ctx.AccountID, delivered, authority); err != nil {
		return tokenResult(err)
	}

	// The deposit counter is credited the full amount, including the
	// withheld minimum on a first deposit, so proportional withdrawal
	// bookkeeping stays consistent.
	deposit.Liquidity += shares
	if res := storeDeposit(ctx.View, poolKey, deposit); !res.IsSuccess() {
		return res
	}

	ctx.Metadata.SharesMinted = shares
	ctx.Metadata.AmountA = amountA
	ctx.Metadata.AmountB = amountB
	return tx.TesSUCCESS
}
