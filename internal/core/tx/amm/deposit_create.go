package amm

import (
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeDepositCreate, func() tx.Transaction {
		return &DepositCreate{BaseTx: *tx.NewBaseTx(tx.TypeDepositCreate, "")}
	})
}

// DepositCreate initializes the signer's liquidity record for a pool.
// At most one record per (pool, depositor) pair can ever exist.
type DepositCreate struct {
	tx.BaseTx

	// Pool is the derived address key of the pool, hex encoded
	Pool string `json:"Pool"`
}

// NewDepositCreate creates a new DepositCreate transaction
func NewDepositCreate(account, pool string) *DepositCreate {
	return &DepositCreate{
		BaseTx: *tx.NewBaseTx(tx.TypeDepositCreate, account),
		Pool:   pool,
	}
}

// TxType returns the transaction type
func (d *DepositCreate) TxType() tx.Type {
	return tx.TypeDepositCreate
}

// Validate validates the DepositCreate transaction
func (d *DepositCreate) Validate() error {
	if err := d.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.ParseHash256(d.Pool); err != nil {
		return fmt.Errorf("temMALFORMED: Pool - %v", err)
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (d *DepositCreate) Flatten() (map[string]any, error) {
	m := d.Common.ToMap()
	m["Pool"] = d.Pool
	return m, nil
}

// Apply applies the DepositCreate transaction to exchange state.
func (d *DepositCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	poolKey, _ := tx.ParseHash256(d.Pool)

	if _, res := loadPool(ctx.View, poolKey); !res.IsSuccess() {
		return res
	}

	k := keylet.Deposit(poolKey, ctx.AccountID)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return tx.TecINTERNAL
	}
	if exists {
		return tx.TecDUPLICATE
	}

	rec := &record.Deposit{Pool: poolKey, Depositor: ctx.AccountID}
	data, err := record.SerializeDeposit(rec)
	if err != nil {
		return tx.TecINTERNAL
	}
	if err := ctx.View.Insert(k, data); err != nil {
		return tx.TecINTERNAL
	}

	ctx.Metadata.CreatedKey = tx.EncodeHash256(k.Key)
	return tx.TesSUCCESS
}
