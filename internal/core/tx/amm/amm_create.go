package amm

import (
	"errors"
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeAmmCreate, func() tx.Transaction {
		return &AmmCreate{BaseTx: *tx.NewBaseTx(tx.TypeAmmCreate, "")}
	})
}

// AmmCreate registers an exchange instance: an admin identity plus the
// swap fee applied in every pool created under it.
type AmmCreate struct {
	tx.BaseTx

	// ID is the caller-chosen 32-byte primary key, hex encoded
	ID string `json:"AmmID"`

	// Admin is the account with admin authority, hex encoded
	Admin string `json:"Admin"`

	// Fee is the swap fee in basis points (0-9999)
	Fee uint16 `json:"Fee"`
}

// NewAmmCreate creates a new AmmCreate transaction
func NewAmmCreate(account, id, admin string, fee uint16) *AmmCreate {
	return &AmmCreate{
		BaseTx: *tx.NewBaseTx(tx.TypeAmmCreate, account),
		ID:     id,
		Admin:  admin,
		Fee:    fee,
	}
}

// TxType returns the transaction type
func (a *AmmCreate) TxType() tx.Type {
	return tx.TypeAmmCreate
}

// Validate validates the AmmCreate transaction
func (a *AmmCreate) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.ParseHash256(a.ID); err != nil {
		return fmt.Errorf("temMALFORMED: AmmID - %v", err)
	}
	if _, err := tx.ParseAccountID(a.Admin); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: Admin - %v", err)
	}
	if uint64(a.Fee) >= FeeDenominator {
		return errors.New("temBAD_FEE: Fee must be below 10000 basis points")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (a *AmmCreate) Flatten() (map[string]any, error) {
	m := a.Common.ToMap()
	m["AmmID"] = a.ID
	m["Admin"] = a.Admin
	m["Fee"] = a.Fee
	return m, nil
}

// Apply applies the AmmCreate transaction to exchange state.
func (a *AmmCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	id, _ := tx.ParseHash256(a.ID)
	admin, _ := tx.ParseAccountID(a.Admin)

	k := keylet.Amm(id)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return tx.TecINTERNAL
	}
	if exists {
		return tx.TecDUPLICATE
	}

	rec := &record.Amm{ID: id, Admin: admin, Fee: a.Fee}
	data, err := record.SerializeAmm(rec)
	if err != nil {
		return tx.TecINTERNAL
	}
	if err := ctx.View.Insert(k, data); err != nil {
		return tx.TecINTERNAL
	}

	ctx.Metadata.CreatedKey = tx.EncodeHash256(k.Key)
	return tx.TesSUCCESS
}
