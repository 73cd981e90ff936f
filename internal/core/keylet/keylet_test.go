package keylet

import (
	"testing"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyletDeterminism(t *testing.T) {
	id := [32]byte{1}
	mintA := [32]byte{2}
	mintB := [32]byte{3}

	require.Equal(t, Amm(id), Amm(id))
	require.Equal(t, Pool(id, mintA, mintB), Pool(id, mintA, mintB))
	require.Equal(t, PoolAuthorityID(id, mintA, mintB), PoolAuthorityID(id, mintA, mintB))
	require.Equal(t, LiquidityMint(id, mintA, mintB), LiquidityMint(id, mintA, mintB))
}

func TestKeyletDivergence(t *testing.T) {
	id := [32]byte{1}
	id2 := [32]byte{2}
	mintA := [32]byte{2}
	mintB := [32]byte{3}

	assert.NotEqual(t, Amm(id).Key, Amm(id2).Key)
	assert.NotEqual(t, Pool(id, mintA, mintB).Key, Pool(id2, mintA, mintB).Key)
	assert.NotEqual(t, Pool(id, mintA, mintB).Key, Pool(id, mintB, mintA).Key,
		"seed order must matter")

	// The four role derivations of the same pool seeds must all differ.
	pool := Pool(id, mintA, mintB).Key
	auth := PoolAuthority(id, mintA, mintB).Key
	liq := LiquidityMint(id, mintA, mintB)
	assert.NotEqual(t, pool, auth)
	assert.NotEqual(t, pool, liq)
	assert.NotEqual(t, auth, liq)
}

func TestKeyletTypes(t *testing.T) {
	id := [32]byte{1}
	holder := [20]byte{4}
	mint := [32]byte{5}

	assert.Equal(t, record.TypeAmm, Amm(id).Type)
	assert.Equal(t, record.TypeDeposit, Deposit(id, holder).Type)
	assert.Equal(t, record.TypeBalance, Balance(holder, mint).Type)
	assert.Equal(t, record.TypeMintInfo, MintInfo(mint).Type)
}

func TestDepositKeyPerDepositor(t *testing.T) {
	pool := [32]byte{9}
	d1 := [20]byte{1}
	d2 := [20]byte{2}
	assert.NotEqual(t, Deposit(pool, d1).Key, Deposit(pool, d2).Key)
}
