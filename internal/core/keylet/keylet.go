package keylet

import (
	"encoding/binary"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	crypto "github.com/Dodecahedr0x/amm-tutorial/internal/crypto/common"
)

// Space identifiers for keylet generation. Each record family hashes
// under its own namespace so distinct seed tuples can never collide
// across families.
const (
	spaceAmm       uint16 = 'm' // Exchange instance
	spacePool      uint16 = 'p' // Asset pool
	spaceAuthority uint16 = 'u' // Pool signing authority
	spaceLiquidity uint16 = 'l' // Pool liquidity-share mint
	spaceDeposit   uint16 = 'd' // Per-depositor liquidity record
	spaceBalance   uint16 = 'b' // Token ledger balance
	spaceMintInfo  uint16 = 'i' // Token ledger mint info
)

// Seed tags appended to pool seeds to separate the derived roles.
var (
	authoritySeed = []byte("authority")
	liquiditySeed = []byte("liquidity")
)

// Keylet represents an addressable location in exchange state.
// It combines a record type with a 256-bit key.
type Keylet struct {
	Type record.Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided seeds.
func indexHash(space uint16, seeds ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(seeds)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, seeds...)

	return crypto.Sha512Half(inputs...)
}

// Amm returns the keylet for an exchange instance.
func Amm(id [32]byte) Keylet {
	return Keylet{
		Type: record.TypeAmm,
		Key:  indexHash(spaceAmm, id[:]),
	}
}

// Pool returns the keylet for the pool of an ordered mint pair under an
// instance.
func Pool(ammID, mintA, mintB [32]byte) Keylet {
	return Keylet{
		Type: record.TypePool,
		Key:  indexHash(spacePool, ammID[:], mintA[:], mintB[:]),
	}
}

// PoolAuthority returns the keylet for a pool's signing authority.
func PoolAuthority(ammID, mintA, mintB [32]byte) Keylet {
	return Keylet{
		Type: record.TypePool,
		Key:  indexHash(spaceAuthority, ammID[:], mintA[:], mintB[:], authoritySeed),
	}
}

// PoolAuthorityID derives the 20-byte account identity of a pool's
// authority. Only core code ever holds this as a signing credential; the
// token ledger checks it on every reserve debit.
func PoolAuthorityID(ammID, mintA, mintB [32]byte) [20]byte {
	k := PoolAuthority(ammID, mintA, mintB)
	return crypto.AccountID(k.Key[:])
}

// LiquidityMint derives the asset-type identifier of a pool's
// liquidity-share mint.
func LiquidityMint(ammID, mintA, mintB [32]byte) [32]byte {
	return indexHash(spaceLiquidity, ammID[:], mintA[:], mintB[:], liquiditySeed)
}

// Deposit returns the keylet for a depositor's liquidity record in a pool.
// poolKey is the pool's own keylet key.
func Deposit(poolKey [32]byte, depositor [20]byte) Keylet {
	return Keylet{
		Type: record.TypeDeposit,
		Key:  indexHash(spaceDeposit, poolKey[:], depositor[:]),
	}
}

// Balance returns the keylet for a holder's balance of one asset type.
func Balance(holder [20]byte, mint [32]byte) Keylet {
	return Keylet{
		Type: record.TypeBalance,
		Key:  indexHash(spaceBalance, holder[:], mint[:]),
	}
}

// MintInfo returns the keylet for an asset type's supply record.
func MintInfo(mint [32]byte) Keylet {
	return Keylet{
		Type: record.TypeMintInfo,
		Key:  indexHash(spaceMintInfo, mint[:]),
	}
}
