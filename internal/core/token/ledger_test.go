package token

import (
	"fmt"
	"testing"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memView struct {
	items map[[32]byte][]byte
}

func newMemView() *memView {
	return &memView{items: make(map[[32]byte][]byte)}
}

func (m *memView) Read(k keylet.Keylet) ([]byte, error) {
	return m.items[k.Key], nil
}

func (m *memView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := m.items[k.Key]
	return ok, nil
}

func (m *memView) Insert(k keylet.Keylet, data []byte) error {
	if _, ok := m.items[k.Key]; ok {
		return fmt.Errorf("entry already exists")
	}
	m.items[k.Key] = data
	return nil
}

func (m *memView) Update(k keylet.Keylet, data []byte) error {
	if _, ok := m.items[k.Key]; !ok {
		return fmt.Errorf("entry does not exist")
	}
	m.items[k.Key] = data
	return nil
}

func (m *memView) Erase(k keylet.Keylet) error {
	delete(m.items, k.Key)
	return nil
}

var (
	testMint  = [32]byte{1}
	authority = [20]byte{0xA}
	alice     = [20]byte{1}
	bob       = [20]byte{2}
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger(newMemView())
	require.NoError(t, l.CreateMint(testMint, authority))
	return l
}

func TestCreateMint(t *testing.T) {
	l := newTestLedger(t)

	supply, err := l.Supply(testMint)
	require.NoError(t, err)
	assert.Zero(t, supply)

	assert.ErrorIs(t, l.CreateMint(testMint, authority), ErrMintExists)

	_, err = l.Supply([32]byte{99})
	assert.ErrorIs(t, err, ErrNoSuchMint)
}

func TestMintRequiresAuthority(t *testing.T) {
	l := newTestLedger(t)

	err := l.Mint(testMint, alice, 100, Signer(alice))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, l.Mint(testMint, alice, 100, Signer(authority)))

	bal, err := l.BalanceOf(alice, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)

	supply, err := l.Supply(testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), supply)
}

func TestTransfer(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Mint(testMint, alice, 100, Signer(authority)))

	t.Run("requires source credential", func(t *testing.T) {
		err := l.Transfer(testMint, alice, bob, 10, Signer(bob))
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("moves funds", func(t *testing.T) {
		require.NoError(t, l.Transfer(testMint, alice, bob, 30, Signer(alice)))

		aBal, _ := l.BalanceOf(alice, testMint)
		bBal, _ := l.BalanceOf(bob, testMint)
		assert.Equal(t, uint64(70), aBal)
		assert.Equal(t, uint64(30), bBal)
	})

	t.Run("rejects overdraft", func(t *testing.T) {
		err := l.Transfer(testMint, bob, alice, 31, Signer(bob))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("missing balance reads as zero and cannot be debited", func(t *testing.T) {
		carol := [20]byte{3}
		bal, err := l.BalanceOf(carol, testMint)
		require.NoError(t, err)
		assert.Zero(t, bal)

		err = l.Transfer(testMint, carol, alice, 1, Signer(carol))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestBurn(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Mint(testMint, alice, 100, Signer(authority)))

	err := l.Burn(testMint, alice, 40, Signer(bob))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, l.Burn(testMint, alice, 40, Signer(alice)))

	bal, _ := l.BalanceOf(alice, testMint)
	supply, _ := l.Supply(testMint)
	assert.Equal(t, uint64(60), bal)
	assert.Equal(t, uint64(60), supply)

	err = l.Burn(testMint, alice, 61, Signer(alice))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestAuthorityCredential(t *testing.T) {
	k := keylet.PoolAuthority([32]byte{1}, [32]byte{2}, [32]byte{3})
	cred := AuthorityCredential(k)
	id := keylet.PoolAuthorityID([32]byte{1}, [32]byte{2}, [32]byte{3})
	assert.True(t, cred.Covers(id))
	assert.False(t, cred.Covers([20]byte{0xFF}))
}
