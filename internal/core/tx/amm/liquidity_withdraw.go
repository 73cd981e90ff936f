package amm

import (
	"errors"
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeLiquidityWithdraw, func() tx.Transaction {
		return &LiquidityWithdraw{BaseTx: *tx.NewBaseTx(tx.TypeLiquidityWithdraw, "")}
	})
}

// LiquidityWithdraw burns liquidity shares held by the signer and pays
// out the proportional slice of both reserves.
type LiquidityWithdraw struct {
	tx.BaseTx

	// Pool is the derived address key of the pool, hex encoded
	Pool string `json:"Pool"`

	// Shares is the number of liquidity shares to burn. The request
	// fails if it exceeds the signer's deposit or share balance.
	Shares uint64 `json:"Shares"`
}

// NewLiquidityWithdraw creates a new LiquidityWithdraw transaction
func NewLiquidityWithdraw(account, pool string, shares uint64) *LiquidityWithdraw {
	return &LiquidityWithdraw{
		BaseTx: *tx.NewBaseTx(tx.TypeLiquidityWithdraw, account),
		Pool:   pool,
		Shares: shares,
	}
}

// TxType returns the transaction type
func (l *LiquidityWithdraw) TxType() tx.Type {
	return tx.TypeLiquidityWithdraw
}

// Validate validates the LiquidityWithdraw transaction
func (l *LiquidityWithdraw) Validate() error {
	if err := l.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.ParseHash256(l.Pool); err != nil {
		return fmt.Errorf("temMALFORMED: Pool - %v", err)
	}
	if l.Shares == 0 {
		return errors.New("temBAD_AMOUNT: Shares must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (l *LiquidityWithdraw) Flatten() (map[string]any, error) {
	m := l.Common.ToMap()
	m["Pool"] = l.Pool
	m["Shares"] = l.Shares
	return m, nil
}

// Apply applies the LiquidityWithdraw transaction to exchange state.
func (l *LiquidityWithdraw) Apply(ctx *tx.ApplyContext) tx.Result {
	poolKey, _ := tx.ParseHash256(l.Pool)

	pool, res := loadPool(ctx.View, poolKey)
	if !res.IsSuccess() {
		return res
	}
	deposit, res := loadDeposit(ctx.View, poolKey, ctx.AccountID)
	if !res.IsSuccess() {
		return res
	}

	held, err := ctx.Tokens.BalanceOf(ctx.AccountID, pool.LiquidityMint)
	if err != nil {
		return tokenResult(err)
	}
	if l.Shares > deposit.Liquidity || l.Shares > held {
		return tx.TecINSUFFICIENT_SHARES
	}
	shares := l.Shares

	totalShares, err := ctx.Tokens.Supply(pool.LiquidityMint)
	if err != nil {
		return tokenResult(err)
	}
	reserveA, reserveB, res := reserves(ctx.Tokens, pool)
	if !res.IsSuccess() {
		return res
	}

	amountA, ok := mulDiv(reserveA, shares, totalShares)
	if !ok {
		return tx.TecINTERNAL
	}
	amountB, ok := mulDiv(reserveB, shares, totalShares)
	if !ok {
		return tx.TecINTERNAL
	}
	if amountA == 0 || amountB == 0 {
		return tx.TecZERO_WITHDRAWAL
	}

	// Burn the shares before releasing reserves so the supply used for
	// any later proportional math never overstates outstanding claims.
	if err := ctx.Tokens.Burn(pool.LiquidityMint, ctx.AccountID, shares, ctx.SignerCredential()); err != nil {
		return tokenResult(err)
	}

	authority := poolAuthorityCredential(pool)
	if err := ctx.Tokens.Transfer(pool.MintA, pool.Authority, ctx.AccountID, amountA, authority); err != nil {
		return tokenResult(err)
	}
	if err := ctx.Tokens.Transfer(pool.MintB, pool.Authority, ctx.AccountID, amountB, authority); err != nil {
		return tokenResult(err)
	}

	deposit.Liquidity -= shares
	if res := storeDeposit(ctx.View, poolKey, deposit); !res.IsSuccess() {
		return res
	}

	ctx.Metadata.SharesBurned = shares
	ctx.Metadata.AmountA = amountA
	ctx.Metadata.AmountB = amountB
	return tx.TesSUCCESS
}
