package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/state"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx/amm"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database/memory"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/history"
)

type testEnv struct {
	t      *testing.T
	server *httptest.Server

	issuer string
	alice  string
	ammID  string
	mintA  string
	mintB  string
	pool   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := state.NewStore(memory.NewDB(), 64)
	require.NoError(t, err)

	journal, err := history.Open(history.DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	node := NewNode(store, journal, NewPublisher())
	server := NewServer(node, 0)

	env := &testEnv{
		t:      t,
		server: httptest.NewServer(server),
		issuer: tx.EncodeAccountID([20]byte{0xAA}),
		alice:  tx.EncodeAccountID([20]byte{0xA1}),
		ammID:  tx.EncodeHash256([32]byte{0x01}),
		mintA:  tx.EncodeHash256([32]byte{0x10}),
		mintB:  tx.EncodeHash256([32]byte{0x20}),
	}
	env.pool = tx.EncodeHash256(keylet.Pool([32]byte{0x01}, [32]byte{0x10}, [32]byte{0x20}).Key)
	t.Cleanup(env.server.Close)
	return env
}

// call posts a JSON-RPC request and returns the result object.
func (e *testEnv) call(method string, params map[string]any) map[string]any {
	e.t.Helper()

	body := map[string]any{"method": method}
	if params != nil {
		body["params"] = []any{params}
	}
	data, err := json.Marshal(body)
	require.NoError(e.t, err)

	resp, err := http.Post(e.server.URL, "application/json", bytes.NewReader(data))
	require.NoError(e.t, err)
	defer resp.Body.Close()
	require.Equal(e.t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(e.t, decoded.Result)
	return decoded.Result
}

func (e *testEnv) mustCall(method string, params map[string]any) map[string]any {
	e.t.Helper()
	result := e.call(method, params)
	require.Equal(e.t, "success", result["status"], fmt.Sprintf("%v", result))
	return result
}

// submit sends a transaction and asserts the engine result.
func (e *testEnv) submit(t tx.Transaction, want string) map[string]any {
	e.t.Helper()
	flat, err := t.Flatten()
	require.NoError(e.t, err)
	result := e.mustCall("submit", map[string]any{"tx_json": flat})
	require.Equal(e.t, want, result["engine_result"])
	return result
}

// setupExchange issues both assets, funds alice, and builds a funded
// pool with a 1% fee.
func (e *testEnv) setupExchange() {
	e.t.Helper()
	e.mustCall("mint_create", map[string]any{"mint": e.mintA, "authority": e.issuer})
	e.mustCall("mint_create", map[string]any{"mint": e.mintB, "authority": e.issuer})
	e.mustCall("mint_payment", map[string]any{"mint": e.mintA, "authority": e.issuer, "destination": e.alice, "amount": 100_000_000})
	e.mustCall("mint_payment", map[string]any{"mint": e.mintB, "authority": e.issuer, "destination": e.alice, "amount": 100_000_000})

	e.submit(amm.NewAmmCreate(e.issuer, e.ammID, e.issuer, 100), "tesSUCCESS")
	e.submit(amm.NewPoolCreate(e.issuer, e.ammID, e.mintA, e.mintB), "tesSUCCESS")
	e.submit(amm.NewDepositCreate(e.alice, e.pool), "tesSUCCESS")
	e.submit(amm.NewLiquidityDeposit(e.alice, e.pool, 50_000_000, 50_000_000), "tesSUCCESS")
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	env.mustCall("ping", nil)
}

func TestUnknownMethod(t *testing.T) {
	env := newTestEnv(t)
	result := env.call("does_not_exist", nil)
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "unknownCmd", result["error"])
}

func TestServerInfo(t *testing.T) {
	env := newTestEnv(t)
	result := env.mustCall("server_info", nil)
	info := result["info"].(map[string]any)
	assert.Equal(t, Version, info["build_version"])
	assert.Equal(t, float64(1), info["sequence"])
}

func TestSubmitAndQueryPool(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()

	result := env.mustCall("pool_info", map[string]any{"pool": env.pool})
	pool := result["pool"].(map[string]any)
	assert.Equal(t, float64(50_000_000), pool["reserve_a"])
	assert.Equal(t, float64(50_000_000), pool["reserve_b"])
	assert.Equal(t, float64(50_000_000), pool["share_supply"])

	// The same pool resolves from its derivation triple.
	derived := env.mustCall("pool_info", map[string]any{
		"amm_id": env.ammID, "mint_a": env.mintA, "mint_b": env.mintB,
	})
	assert.Equal(t, pool["pool"], derived["pool"].(map[string]any)["pool"])
}

func TestAmmInfo(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()

	result := env.mustCall("amm_info", map[string]any{"amm_id": env.ammID})
	info := result["amm"].(map[string]any)
	assert.Equal(t, float64(100), info["fee"])

	missing := env.call("amm_info", map[string]any{"amm_id": tx.EncodeHash256([32]byte{0xFF})})
	assert.Equal(t, "error", missing["status"])
	assert.Equal(t, "entryNotFound", missing["error"])
}

func TestDepositInfo(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()

	result := env.mustCall("deposit_info", map[string]any{"pool": env.pool, "account": env.alice})
	deposit := result["deposit"].(map[string]any)
	assert.Equal(t, float64(50_000_000), deposit["liquidity"])
	assert.Equal(t, float64(49_999_900), deposit["shares_held"])
}

func TestAccountBalances(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()

	result := env.mustCall("account_balances", map[string]any{
		"account": env.alice,
		"mints":   []string{env.mintA, env.mintB},
	})
	balances := result["balances"].([]any)
	require.Len(t, balances, 2)
	assert.Equal(t, float64(50_000_000), balances[0].(map[string]any)["balance"])
}

func TestSwapOverRPC(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()
	env.mustCall("mint_payment", map[string]any{"mint": env.mintA, "authority": env.issuer, "destination": env.alice, "amount": 1_000_000})

	result := env.submit(amm.NewSwap(env.alice, env.pool, true, 1_000_000, 1), "tesSUCCESS")
	metadata := result["metadata"].(map[string]any)
	assert.NotZero(t, metadata["amount_out"])

	rejected := env.submit(amm.NewSwap(env.alice, env.pool, true, 1, 1_000_000_000), "tecSLIPPAGE")
	assert.Equal(t, false, rejected["applied"])
}

func TestTransactionHistory(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()

	recent := env.mustCall("tx_history", nil)
	entries := recent["transactions"].([]any)
	require.NotEmpty(t, entries)

	first := entries[0].(map[string]any)
	hash := first["Hash"].(string)

	byHash := env.mustCall("tx", map[string]any{"transaction": hash})
	assert.Equal(t, hash, byHash["transaction"].(map[string]any)["Hash"])

	byAccount := env.mustCall("account_tx", map[string]any{"account": env.alice})
	assert.NotEmpty(t, byAccount["transactions"])

	missing := env.call("tx", map[string]any{"transaction": "00"})
	assert.Equal(t, "error", missing["status"])
	assert.Equal(t, "txnNotFound", missing["error"])
}

func TestSubmitMalformed(t *testing.T) {
	env := newTestEnv(t)
	env.setupExchange()

	result := env.submit(amm.NewAmmCreate(env.issuer, tx.EncodeHash256([32]byte{0x02}), env.issuer, 10_000), "temBAD_FEE")
	assert.Equal(t, false, result["applied"])
}
