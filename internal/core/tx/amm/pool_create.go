package amm

import (
	"errors"
	"fmt"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

func init() {
	tx.Register(tx.TypePoolCreate, func() tx.Transaction {
		return &PoolCreate{BaseTx: *tx.NewBaseTx(tx.TypePoolCreate, "")}
	})
}

// PoolCreate creates the pool for an ordered asset pair under an
// instance, along with its liquidity-share mint. Reserve accounts start
// at zero; they are owned by the derived pool authority.
type PoolCreate struct {
	tx.BaseTx

	// AmmID references the owning instance, hex encoded
	AmmID string `json:"AmmID"`

	// MintA and MintB identify the pooled asset types, hex encoded.
	// They must already be ordered MintA < MintB; reversed pairs are
	// rejected rather than silently reordered, so a pair can never
	// produce two pools.
	MintA string `json:"MintA"`
	MintB string `json:"MintB"`
}

// NewPoolCreate creates a new PoolCreate transaction
func NewPoolCreate(account, ammID, mintA, mintB string) *PoolCreate {
	return &PoolCreate{
		BaseTx: *tx.NewBaseTx(tx.TypePoolCreate, account),
		AmmID:  ammID,
		MintA:  mintA,
		MintB:  mintB,
	}
}

// TxType returns the transaction type
func (p *PoolCreate) TxType() tx.Type {
	return tx.TypePoolCreate
}

// Validate validates the PoolCreate transaction
func (p *PoolCreate) Validate() error {
	if err := p.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.ParseHash256(p.AmmID); err != nil {
		return fmt.Errorf("temMALFORMED: AmmID - %v", err)
	}
	mintA, err := tx.ParseHash256(p.MintA)
	if err != nil {
		return fmt.Errorf("temMALFORMED: MintA - %v", err)
	}
	mintB, err := tx.ParseHash256(p.MintB)
	if err != nil {
		return fmt.Errorf("temMALFORMED: MintB - %v", err)
	}
	if record.CompareMints(mintA, mintB) >= 0 {
		return errors.New("temBAD_MINT_ORDER: MintA must order strictly below MintB")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (p *PoolCreate) Flatten() (map[string]any, error) {
	m := p.Common.ToMap()
	m["AmmID"] = p.AmmID
	m["MintA"] = p.MintA
	m["MintB"] = p.MintB
	return m, nil
}

// Apply applies the PoolCreate transaction to exchange state.
func (p *PoolCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	ammID, _ := tx.ParseHash256(p.AmmID)
	mintA, _ := tx.ParseHash256(p.MintA)
	mintB, _ := tx.ParseHash256(p.MintB)

	if _, res := loadAmm(ctx.View, ammID); !res.IsSuccess() {
		return res
	}

	// Both asset types must already exist in the token ledger.
	for _, mint := range [][32]byte{mintA, mintB} {
		if _, err := ctx.Tokens.Supply(mint); err != nil {
			return tokenResult(err)
		}
	}

	poolKey := keylet.Pool(ammID, mintA, mintB)
	exists, err := ctx.View.Exists(poolKey)
	if err != nil {
		return tx.TecINTERNAL
	}
	if exists {
		return tx.TecDUPLICATE
	}

	authority := keylet.PoolAuthorityID(ammID, mintA, mintB)
	liquidityMint := keylet.LiquidityMint(ammID, mintA, mintB)

	// The liquidity-share asset starts at zero supply with the pool
	// authority as its only mint authority.
	if err := ctx.Tokens.CreateMint(liquidityMint, authority); err != nil {
		return tokenResult(err)
	}

	rec := &record.Pool{
		AmmID:         ammID,
		MintA:         mintA,
		MintB:         mintB,
		Authority:     authority,
		LiquidityMint: liquidityMint,
	}
	data, err := record.SerializePool(rec)
	if err != nil {
		return tx.TecINTERNAL
	}
	if err := ctx.View.Insert(poolKey, data); err != nil {
		return tx.TecINTERNAL
	}

	ctx.Metadata.CreatedKey = tx.EncodeHash256(poolKey.Key)
	return tx.TesSUCCESS
}
