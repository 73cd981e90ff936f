package amm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/token"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx/amm"
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
		return errors.New("record already exists")
	}
	m.items[k.Key] = data
	return nil
}

func (m *memView) Update(k keylet.Keylet, data []byte) error {
	if _, ok := m.items[k.Key]; !ok {
		return errors.New("no such record")
	}
	m.items[k.Key] = data
	return nil
}

func (m *memView) Erase(k keylet.Keylet) error {
	delete(m.items, k.Key)
	return nil
}

// harness wires an engine over an in-memory view with two issued assets
// and two funded traders.
type harness struct {
	t      *testing.T
	view   *memView
	engine *tx.Engine
	tokens *token.Ledger

	issuer [20]byte
	alice  [20]byte
	bob    [20]byte

	ammID [32]byte
	mintA [32]byte
	mintB [32]byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{t: t, view: newMemView()}
	h.engine = tx.NewEngine(h.view, tx.EngineConfig{LedgerSequence: 1})
	h.tokens = token.NewLedger(h.view)

	h.issuer = [20]byte{0xAA, 1}
	h.alice = [20]byte{0xA1, 2}
	h.bob = [20]byte{0xB0, 3}

	h.ammID = [32]byte{0x01}
	h.mintA = [32]byte{0x10}
	h.mintB = [32]byte{0x20}

	issuerCred := token.Signer(h.issuer)
	require.NoError(t, h.tokens.CreateMint(h.mintA, h.issuer))
	require.NoError(t, h.tokens.CreateMint(h.mintB, h.issuer))
	for _, holder := range [][20]byte{h.alice, h.bob} {
		require.NoError(t, h.tokens.Mint(h.mintA, holder, 100_000_000, issuerCred))
		require.NoError(t, h.tokens.Mint(h.mintB, holder, 100_000_000, issuerCred))
	}
	return h
}

func (h *harness) accountHex(id [20]byte) string {
	return tx.EncodeAccountID(id)
}

func (h *harness) poolKey() [32]byte {
	return keylet.Pool(h.ammID, h.mintA, h.mintB).Key
}

func (h *harness) poolHex() string {
	return tx.EncodeHash256(h.poolKey())
}

func (h *harness) apply(t tx.Transaction) tx.ApplyResult {
	h.t.Helper()
	return h.engine.Apply(t)
}

func (h *harness) mustApply(t tx.Transaction) tx.ApplyResult {
	h.t.Helper()
	res := h.engine.Apply(t)
	require.Equal(h.t, tx.TesSUCCESS, res.Result, res.Message)
	require.True(h.t, res.Applied)
	return res
}

// setupPool creates an Amm with the given fee, its pool, and a deposit
// slot for alice.
func (h *harness) setupPool(fee uint16) {
	h.t.Helper()
	h.mustApply(amm.NewAmmCreate(h.accountHex(h.issuer), tx.EncodeHash256(h.ammID), h.accountHex(h.issuer), fee))
	h.mustApply(amm.NewPoolCreate(h.accountHex(h.issuer), tx.EncodeHash256(h.ammID), tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintB)))
	h.mustApply(amm.NewDepositCreate(h.accountHex(h.alice), h.poolHex()))
}

func (h *harness) reserves() (uint64, uint64) {
	h.t.Helper()
	authority := keylet.PoolAuthorityID(h.ammID, h.mintA, h.mintB)
	a, err := h.tokens.BalanceOf(authority, h.mintA)
	require.NoError(h.t, err)
	b, err := h.tokens.BalanceOf(authority, h.mintB)
	require.NoError(h.t, err)
	return a, b
}

func (h *harness) shareSupply() uint64 {
	h.t.Helper()
	supply, err := h.tokens.Supply(keylet.LiquidityMint(h.ammID, h.mintA, h.mintB))
	require.NoError(h.t, err)
	return supply
}

func (h *harness) shareBalance(holder [20]byte) uint64 {
	h.t.Helper()
	bal, err := h.tokens.BalanceOf(holder, keylet.LiquidityMint(h.ammID, h.mintA, h.mintB))
	require.NoError(h.t, err)
	return bal
}

func TestAmmCreate(t *testing.T) {
	h := newHarness(t)
	admin := h.accountHex(h.issuer)
	id := tx.EncodeHash256(h.ammID)

	res := h.mustApply(amm.NewAmmCreate(admin, id, admin, 500))
	assert.NotEmpty(t, res.Metadata.CreatedKey)

	res = h.apply(amm.NewAmmCreate(admin, id, admin, 500))
	assert.Equal(t, tx.TecDUPLICATE, res.Result)
	assert.False(t, res.Applied)
}

func TestAmmCreateRejectsFeeAtDenominator(t *testing.T) {
	h := newHarness(t)
	admin := h.accountHex(h.issuer)

	res := h.apply(amm.NewAmmCreate(admin, tx.EncodeHash256(h.ammID), admin, 10_000))
	assert.Equal(t, tx.TemBAD_FEE, res.Result)

	res = h.apply(amm.NewAmmCreate(admin, tx.EncodeHash256(h.ammID), admin, 9_999))
	assert.Equal(t, tx.TesSUCCESS, res.Result)
}

func TestPoolCreate(t *testing.T) {
	h := newHarness(t)
	admin := h.accountHex(h.issuer)
	id := tx.EncodeHash256(h.ammID)
	h.mustApply(amm.NewAmmCreate(admin, id, admin, 100))

	res := h.mustApply(amm.NewPoolCreate(admin, id, tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintB)))
	assert.Equal(t, h.poolHex(), res.Metadata.CreatedKey)

	// The liquidity mint exists with zero supply and the derived
	// authority.
	supply, err := h.tokens.Supply(keylet.LiquidityMint(h.ammID, h.mintA, h.mintB))
	require.NoError(t, err)
	assert.Zero(t, supply)

	res = h.apply(amm.NewPoolCreate(admin, id, tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintB)))
	assert.Equal(t, tx.TecDUPLICATE, res.Result)
}

func TestPoolCreateRejectsUnorderedMints(t *testing.T) {
	h := newHarness(t)
	admin := h.accountHex(h.issuer)
	id := tx.EncodeHash256(h.ammID)
	h.mustApply(amm.NewAmmCreate(admin, id, admin, 100))

	res := h.apply(amm.NewPoolCreate(admin, id, tx.EncodeHash256(h.mintB), tx.EncodeHash256(h.mintA)))
	assert.Equal(t, tx.TemBAD_MINT_ORDER, res.Result)

	res = h.apply(amm.NewPoolCreate(admin, id, tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintA)))
	assert.Equal(t, tx.TemBAD_MINT_ORDER, res.Result)
}

func TestPoolCreateUnknownAmm(t *testing.T) {
	h := newHarness(t)
	res := h.apply(amm.NewPoolCreate(h.accountHex(h.issuer), tx.EncodeHash256([32]byte{0xFF}), tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintB)))
	assert.Equal(t, tx.TecNO_ENTRY, res.Result)
}

func TestDepositCreate(t *testing.T) {
	h := newHarness(t)
	admin := h.accountHex(h.issuer)
	h.mustApply(amm.NewAmmCreate(admin, tx.EncodeHash256(h.ammID), admin, 100))
	h.mustApply(amm.NewPoolCreate(admin, tx.EncodeHash256(h.ammID), tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintB)))

	h.mustApply(amm.NewDepositCreate(h.accountHex(h.alice), h.poolHex()))

	res := h.apply(amm.NewDepositCreate(h.accountHex(h.alice), h.poolHex()))
	assert.Equal(t, tx.TecDUPLICATE, res.Result)

	// A second depositor gets an independent slot.
	h.mustApply(amm.NewDepositCreate(h.accountHex(h.bob), h.poolHex()))
}

func TestFirstDepositLocksMinimum(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)

	res := h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))

	assert.Equal(t, uint64(50_000_000), res.Metadata.SharesMinted)
	assert.Equal(t, uint64(50_000_000), res.Metadata.AmountA)
	assert.Equal(t, uint64(50_000_000), res.Metadata.AmountB)

	assert.Equal(t, uint64(50_000_000), h.shareSupply())
	assert.Equal(t, uint64(49_999_900), h.shareBalance(h.alice))

	authority := keylet.PoolAuthorityID(h.ammID, h.mintA, h.mintB)
	assert.Equal(t, uint64(100), h.shareBalance(authority))

	reserveA, reserveB := h.reserves()
	assert.Equal(t, uint64(50_000_000), reserveA)
	assert.Equal(t, uint64(50_000_000), reserveB)
}

func TestFirstDepositBelowMinimum(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)

	// sqrt(100*100) = 100, not strictly above the locked minimum.
	res := h.apply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 100, 100))
	assert.Equal(t, tx.TecMIN_LIQUIDITY, res.Result)

	aBal, err := h.tokens.BalanceOf(h.alice, h.mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), aBal)
	assert.Zero(t, h.shareSupply())
}

func TestSecondDepositKeepsRatio(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))
	h.mustApply(amm.NewDepositCreate(h.accountHex(h.bob), h.poolHex()))

	// Maximums are skewed 1:3; the committed pair follows the 1:1
	// reserves instead.
	res := h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.bob), h.poolHex(), 10_000_000, 30_000_000))

	assert.Equal(t, uint64(10_000_000), res.Metadata.AmountA)
	assert.Equal(t, uint64(10_000_000), res.Metadata.AmountB)
	assert.Equal(t, uint64(10_000_000), res.Metadata.SharesMinted)
	assert.Equal(t, uint64(10_000_000), h.shareBalance(h.bob))
	assert.Equal(t, uint64(60_000_000), h.shareSupply())
}

func TestDepositWithoutSlot(t *testing.T) {
	h := newHarness(t)
	admin := h.accountHex(h.issuer)
	h.mustApply(amm.NewAmmCreate(admin, tx.EncodeHash256(h.ammID), admin, 100))
	h.mustApply(amm.NewPoolCreate(admin, tx.EncodeHash256(h.ammID), tx.EncodeHash256(h.mintA), tx.EncodeHash256(h.mintB)))

	res := h.apply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 1_000_000, 1_000_000))
	assert.Equal(t, tx.TecNO_ENTRY, res.Result)
}

func TestDepositInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)

	res := h.apply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 200_000_000, 200_000_000))
	assert.Equal(t, tx.TecINSUFFICIENT_FUNDS, res.Result)
	assert.Zero(t, h.shareSupply())
}

func TestSwapWithFee(t *testing.T) {
	h := newHarness(t)
	h.setupPool(500)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))

	res := h.mustApply(amm.NewSwap(h.accountHex(h.bob), h.poolHex(), true, 1_000_000, 100))

	// 950_000 priced after the 5% fee:
	// 50_000_000 * 950_000 / 50_950_000 = 932_286
	assert.Equal(t, uint64(932_286), res.Metadata.AmountOut)

	reserveA, reserveB := h.reserves()
	assert.Equal(t, uint64(51_000_000), reserveA)
	assert.Equal(t, uint64(49_067_714), reserveB)

	bBal, err := h.tokens.BalanceOf(h.bob, h.mintB)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_932_286), bBal)
}

func TestSwapPreservesInvariant(t *testing.T) {
	h := newHarness(t)
	h.setupPool(30)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))

	beforeA, beforeB := h.reserves()
	h.mustApply(amm.NewSwap(h.accountHex(h.bob), h.poolHex(), true, 3_333_333, 0))
	h.mustApply(amm.NewSwap(h.accountHex(h.bob), h.poolHex(), false, 7_777_777, 0))
	afterA, afterB := h.reserves()

	assert.GreaterOrEqual(t, afterA*afterB, beforeA*beforeB)
}

func TestSwapSlippageGuard(t *testing.T) {
	h := newHarness(t)
	h.setupPool(500)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))

	beforeA, beforeB := h.reserves()
	res := h.apply(amm.NewSwap(h.accountHex(h.bob), h.poolHex(), true, 1_000_000, 10_000_000))
	assert.Equal(t, tx.TecSLIPPAGE, res.Result)

	// The failed trade left the reserves untouched.
	afterA, afterB := h.reserves()
	assert.Equal(t, beforeA, afterA)
	assert.Equal(t, beforeB, afterB)
}

func TestSwapEmptyPool(t *testing.T) {
	h := newHarness(t)
	h.setupPool(500)

	res := h.apply(amm.NewSwap(h.accountHex(h.bob), h.poolHex(), true, 1_000_000, 0))
	assert.Equal(t, tx.TecEMPTY_POOL, res.Result)
}

func TestSwapZeroInput(t *testing.T) {
	h := newHarness(t)
	h.setupPool(500)

	res := h.apply(amm.NewSwap(h.accountHex(h.bob), h.poolHex(), true, 0, 0))
	assert.Equal(t, tx.TemBAD_AMOUNT, res.Result)
}

func TestWithdrawAllLeavesLockedLiquidity(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))

	res := h.mustApply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), 49_999_900))

	assert.Equal(t, uint64(49_999_900), res.Metadata.SharesBurned)
	assert.Equal(t, uint64(49_999_900), res.Metadata.AmountA)
	assert.Equal(t, uint64(49_999_900), res.Metadata.AmountB)

	// The locked minimum keeps the pool priced.
	reserveA, reserveB := h.reserves()
	assert.Equal(t, uint64(100), reserveA)
	assert.Equal(t, uint64(100), reserveB)
	assert.Equal(t, uint64(100), h.shareSupply())
	assert.Zero(t, h.shareBalance(h.alice))
}

func TestWithdrawWithoutShares(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))
	h.mustApply(amm.NewDepositCreate(h.accountHex(h.bob), h.poolHex()))

	res := h.apply(amm.NewLiquidityWithdraw(h.accountHex(h.bob), h.poolHex(), 1_000))
	assert.Equal(t, tx.TecINSUFFICIENT_SHARES, res.Result)
}

func TestWithdrawMoreThanHeld(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))

	// Alice holds 49,999,900 shares; the locked minimum never reaches
	// her balance. Asking for more is rejected outright, not trimmed.
	res := h.apply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), 60_000_000))
	assert.Equal(t, tx.TecINSUFFICIENT_SHARES, res.Result)
	assert.False(t, res.Applied)

	// Even the deposit counter's full 50,000,000 exceeds her balance.
	res = h.apply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), 50_000_000))
	assert.Equal(t, tx.TecINSUFFICIENT_SHARES, res.Result)

	reserveA, reserveB := h.reserves()
	assert.Equal(t, uint64(50_000_000), reserveA)
	assert.Equal(t, uint64(50_000_000), reserveB)
	assert.Equal(t, uint64(50_000_000), h.shareSupply())
	assert.Equal(t, uint64(49_999_900), h.shareBalance(h.alice))
}

func TestWithdrawMoreThanDeposited(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 50_000_000, 50_000_000))
	h.mustApply(amm.NewDepositCreate(h.accountHex(h.bob), h.poolHex()))
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.bob), h.poolHex(), 10_000_000, 10_000_000))

	// Bob hands his shares to alice, so her balance outgrows her own
	// deposit counter.
	liqMint := keylet.LiquidityMint(h.ammID, h.mintA, h.mintB)
	require.NoError(t, h.tokens.Transfer(liqMint, h.bob, h.alice, 10_000_000, token.Signer(h.bob)))
	require.Equal(t, uint64(59_999_900), h.shareBalance(h.alice))

	// The deposit counter caps what she can burn regardless of balance.
	res := h.apply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), 55_000_000))
	assert.Equal(t, tx.TecINSUFFICIENT_SHARES, res.Result)
	assert.False(t, res.Applied)

	res = h.mustApply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), 49_999_900))
	assert.Equal(t, uint64(49_999_900), res.Metadata.SharesBurned)
}

func TestWithdrawRoundsToZero(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)

	// 200:200_000 reserves with sqrt(4e7) = 6324 shares; one share is
	// worth less than a single unit of asset A.
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 200, 200_000))

	res := h.apply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), 1))
	assert.Equal(t, tx.TecZERO_WITHDRAWAL, res.Result)
}

func TestRoundTripReturnsNoMoreThanDeposited(t *testing.T) {
	h := newHarness(t)
	h.setupPool(100)
	h.mustApply(amm.NewLiquidityDeposit(h.accountHex(h.alice), h.poolHex(), 12_345_678, 87_654_321))

	res := h.mustApply(amm.NewLiquidityWithdraw(h.accountHex(h.alice), h.poolHex(), h.shareBalance(h.alice)))

	assert.LessOrEqual(t, res.Metadata.AmountA, uint64(12_345_678))
	assert.LessOrEqual(t, res.Metadata.AmountB, uint64(87_654_321))
}
