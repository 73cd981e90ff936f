package rpc

import (
	"encoding/json"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"
)

// Version is reported by server_info.
const Version = "0.1.0"

// registerAllMethods wires every RPC method to node.
func registerAllMethods(registry *MethodRegistry, node *Node) {
	registry.Register("ping", MethodFunc(handlePing))
	registry.Register("server_info", makeServerInfo(node))
	registry.Register("submit", makeSubmit(node))
	registry.Register("amm_info", makeAmmInfo(node))
	registry.Register("pool_info", makePoolInfo(node))
	registry.Register("deposit_info", makeDepositInfo(node))
	registry.Register("account_balances", makeAccountBalances(node))
	registry.Register("tx", makeTx(node))
	registry.Register("account_tx", makeAccountTx(node))
	registry.Register("tx_history", makeTxHistory(node))
	registry.Register("mint_create", makeMintCreate(node))
	registry.Register("mint_payment", makeMintPayment(node))
}

func handlePing(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
	return map[string]any{}, nil
}

func makeServerInfo(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		return map[string]any{
			"info": map[string]any{
				"build_version":  Version,
				"sequence":       node.Sequence(),
				"uptime_seconds": int64(node.Uptime().Seconds()),
			},
		}, nil
	}
}

func makeSubmit(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			TxJSON json.RawMessage `json:"tx_json"`
		}
		if err := json.Unmarshal(params, &req); err != nil || len(req.TxJSON) == 0 {
			return nil, RpcErrorInvalidParams("submit requires a tx_json object")
		}

		result, err := node.Submit(ctx.Context, req.TxJSON)
		if err != nil {
			return nil, RpcErrorInvalidParams(err.Error())
		}
		return map[string]any{
			"engine_result":         result.EngineResult,
			"engine_result_code":    result.EngineResultCode,
			"engine_result_message": result.EngineResultMessage,
			"applied":               result.Applied,
			"tx_hash":               result.TxHash,
			"sequence":              result.Sequence,
			"metadata":              result.Metadata,
		}, nil
	}
}

func makeAmmInfo(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			AmmID string `json:"amm_id"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("invalid amm_info parameters")
		}
		id, err := tx.ParseHash256(req.AmmID)
		if err != nil {
			return nil, RpcErrorInvalidParams("amm_id: " + err.Error())
		}

		info, err := node.GetAmm(id)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		if info == nil {
			return nil, RpcErrorObjectNotFound("amm")
		}
		return map[string]any{"amm": info}, nil
	}
}

// poolKeyFromParams accepts either a derived pool key or the
// amm_id/mint_a/mint_b triple it derives from.
func poolKeyFromParams(params json.RawMessage) ([32]byte, *RpcError) {
	var req struct {
		Pool  string `json:"pool"`
		AmmID string `json:"amm_id"`
		MintA string `json:"mint_a"`
		MintB string `json:"mint_b"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return [32]byte{}, RpcErrorInvalidParams("invalid pool parameters")
	}

	if req.Pool != "" {
		key, err := tx.ParseHash256(req.Pool)
		if err != nil {
			return [32]byte{}, RpcErrorInvalidParams("pool: " + err.Error())
		}
		return key, nil
	}

	id, err := tx.ParseHash256(req.AmmID)
	if err != nil {
		return [32]byte{}, RpcErrorInvalidParams("amm_id: " + err.Error())
	}
	mintA, err := tx.ParseHash256(req.MintA)
	if err != nil {
		return [32]byte{}, RpcErrorInvalidParams("mint_a: " + err.Error())
	}
	mintB, err := tx.ParseHash256(req.MintB)
	if err != nil {
		return [32]byte{}, RpcErrorInvalidParams("mint_b: " + err.Error())
	}
	return keylet.Pool(id, mintA, mintB).Key, nil
}

func makePoolInfo(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		key, rpcErr := poolKeyFromParams(params)
		if rpcErr != nil {
			return nil, rpcErr
		}

		info, err := node.GetPool(key)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		if info == nil {
			return nil, RpcErrorObjectNotFound("pool")
		}
		return map[string]any{"pool": info}, nil
	}
}

func makeDepositInfo(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		key, rpcErr := poolKeyFromParams(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		var req struct {
			Account string `json:"account"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("invalid deposit_info parameters")
		}
		account, err := tx.ParseAccountID(req.Account)
		if err != nil {
			return nil, RpcErrorInvalidParams("account: " + err.Error())
		}

		info, err := node.GetDeposit(key, account)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		if info == nil {
			return nil, RpcErrorObjectNotFound("deposit")
		}
		return map[string]any{"deposit": info}, nil
	}
}

func makeAccountBalances(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			Account string   `json:"account"`
			Mints   []string `json:"mints"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("invalid account_balances parameters")
		}
		account, err := tx.ParseAccountID(req.Account)
		if err != nil {
			return nil, RpcErrorInvalidParams("account: " + err.Error())
		}
		mints := make([][32]byte, 0, len(req.Mints))
		for _, m := range req.Mints {
			mint, err := tx.ParseHash256(m)
			if err != nil {
				return nil, RpcErrorInvalidParams("mints: " + err.Error())
			}
			mints = append(mints, mint)
		}

		balances, err := node.GetBalances(account, mints)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		return map[string]any{
			"account":  req.Account,
			"balances": balances,
		}, nil
	}
}

func makeTx(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			Transaction string `json:"transaction"`
		}
		if err := json.Unmarshal(params, &req); err != nil || req.Transaction == "" {
			return nil, RpcErrorInvalidParams("tx requires a transaction hash")
		}

		entry, err := node.GetTransaction(ctx.Context, req.Transaction)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		if entry == nil {
			return nil, RpcErrorTxnNotFound()
		}
		return map[string]any{"transaction": entry}, nil
	}
}

func makeAccountTx(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			Account string `json:"account"`
			Limit   int    `json:"limit"`
		}
		if err := json.Unmarshal(params, &req); err != nil || req.Account == "" {
			return nil, RpcErrorInvalidParams("account_tx requires an account")
		}
		if req.Limit <= 0 || req.Limit > 200 {
			req.Limit = 20
		}

		entries, err := node.GetAccountTransactions(ctx.Context, req.Account, req.Limit)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		return map[string]any{
			"account":      req.Account,
			"transactions": entries,
		}, nil
	}
}

func makeTxHistory(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			Limit int `json:"limit"`
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, RpcErrorInvalidParams("invalid tx_history parameters")
			}
		}
		if req.Limit <= 0 || req.Limit > 200 {
			req.Limit = 20
		}

		entries, err := node.GetRecentTransactions(ctx.Context, req.Limit)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		return map[string]any{"transactions": entries}, nil
	}
}

func makeMintCreate(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			Mint      string `json:"mint"`
			Authority string `json:"authority"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("invalid mint_create parameters")
		}
		mint, err := tx.ParseHash256(req.Mint)
		if err != nil {
			return nil, RpcErrorInvalidParams("mint: " + err.Error())
		}
		authority, err := tx.ParseAccountID(req.Authority)
		if err != nil {
			return nil, RpcErrorInvalidParams("authority: " + err.Error())
		}

		if err := node.CreateMint(mint, authority); err != nil {
			return nil, RpcErrorInvalidParams(err.Error())
		}
		return map[string]any{"mint": req.Mint}, nil
	}
}

func makeMintPayment(node *Node) MethodFunc {
	return func(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
		var req struct {
			Mint        string `json:"mint"`
			Authority   string `json:"authority"`
			Destination string `json:"destination"`
			Amount      uint64 `json:"amount"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("invalid mint_payment parameters")
		}
		mint, err := tx.ParseHash256(req.Mint)
		if err != nil {
			return nil, RpcErrorInvalidParams("mint: " + err.Error())
		}
		authority, err := tx.ParseAccountID(req.Authority)
		if err != nil {
			return nil, RpcErrorInvalidParams("authority: " + err.Error())
		}
		destination, err := tx.ParseAccountID(req.Destination)
		if err != nil {
			return nil, RpcErrorInvalidParams("destination: " + err.Error())
		}
		if req.Amount == 0 {
			return nil, RpcErrorInvalidParams("amount must be positive")
		}

		if err := node.MintPayment(mint, authority, destination, req.Amount); err != nil {
			return nil, RpcErrorInvalidParams(err.Error())
		}
		return map[string]any{
			"mint":        req.Mint,
			"destination": req.Destination,
			"amount":      req.Amount,
		}, nil
	}
}
