package amm

import (
	"errors"
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeSwap, func() tx.Transaction {
		return &Swap{BaseTx: *tx.NewBaseTx(tx.TypeSwap, "")}
	})
}

// Swap trades an exact input amount of one pool asset for the other,
// priced by the constant product formula after the exchange fee is
// withheld from the input.
type Swap struct {
	tx.BaseTx

	// Pool is the derived address key of the pool, hex encoded
	Pool string `json:"Pool"`

	// SwapAForB selects the direction: true pays MintA and receives
	// MintB, false the reverse
	SwapAForB bool `json:"SwapAForB"`

	// AmountIn is the exact input amount, fee inclusive
	AmountIn uint64 `json:"AmountIn"`

	// MinimumAmountOut aborts the trade if the computed output falls
	// below it
	MinimumAmountOut uint64 `json:"MinimumAmountOut"`
}

// NewSwap creates a new Swap transaction
func NewSwap(account, pool string, swapAForB bool, amountIn, minimumAmountOut uint64) *Swap {
	return &Swap{
		BaseTx:           *tx.NewBaseTx(tx.TypeSwap, account),
		Pool:             pool,
		SwapAForB:        swapAForB,
		AmountIn:         amountIn,
		MinimumAmountOut: minimumAmountOut,
	}
}

// TxType returns the transaction type
func (s *Swap) TxType() tx.Type {
	return tx.TypeSwap
}

// Validate validates the Swap transaction
func (s *Swap) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.ParseHash256(s.Pool); err != nil {
		return fmt.Errorf("temMALFORMED: Pool - %v", err)
	}
	if s.AmountIn == 0 {
		return errors.New("temBAD_AMOUNT: AmountIn must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (s *Swap) Flatten() (map[string]any, error) {
	m := s.Common.ToMap()
	m["Pool"] = s.Pool
	m["SwapAForB"] = s.SwapAForB
	m["AmountIn"] = s.AmountIn
	m["MinimumAmountOut"] = s.MinimumAmountOut
	return m, nil
}

// Apply applies the Swap transaction to exchange state.
func (s *Swap) Apply(ctx *tx.ApplyContext) tx.Result {
	poolKey, _ := tx.ParseHash256(s.Pool)

	pool, res := loadPool(ctx.View, poolKey)
	if !res.IsSuccess() {
		return res
	}
	instance, res := loadAmm(ctx.View, pool.AmmID)
	if !res.IsSuccess() {
		return res
	}

	reserveA, reserveB, res := reserves(ctx.Tokens, pool)
	if !res.IsSuccess() {
		return res
	}
	if reserveA == 0 || reserveB == 0 {
		return tx.TecEMPTY_POOL
	}

	mintIn, mintOut := pool.MintA, pool.MintB
	reserveIn, reserveOut := reserveA, reserveB
	if !s.SwapAForB {
		mintIn, mintOut = pool.MintB, pool.MintA
		reserveIn, reserveOut = reserveB, reserveA
	}

	// Fee is withheld from the input before pricing, rounded down in
	// the pool's favor.
	afterFee, ok := mulDiv(s.AmountIn, FeeDenominator-uint64(instance.Fee), FeeDenominator)
	if !ok {
		return tx.TecINTERNAL
	}
	newReserveIn := reserveIn + afterFee
	if newReserveIn < reserveIn {
		return tx.TecINTERNAL
	}
	amountOut, ok := mulDiv(reserveOut, afterFee, newReserveIn)
	if !ok {
		return tx.TecINTERNAL
	}
	if amountOut < s.MinimumAmountOut {
		return tx.TecSLIPPAGE
	}

	// The full fee-inclusive input moves into the reserves. Withheld
	// fees stay in the pool and accrue to liquidity providers.
	if err := ctx.Tokens.Transfer(mintIn, ctx.AccountID, pool.Authority, s.AmountIn, ctx.SignerCredential()); err != nil {
		return tokenResult(err)
	}
	if err := ctx.Tokens.Transfer(mintOut, pool.Authority, ctx.AccountID, amountOut, poolAuthorityCredential(pool)); err != nil {
		return tokenResult(err)
	}

	ctx.Metadata.AmountOut = amountOut
	return tx.TesSUCCESS
}
