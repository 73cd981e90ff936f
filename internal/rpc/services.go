package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/keylet"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/record"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/state"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/token"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"

	// Registers the exchange transaction types with the engine.
	_ "github.com/Dodecahedr0x/amm-tutorial/internal/core/tx/amm"

	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/history"
)

// Node owns the exchange state and serializes all writes to it. RPC
// handlers and the websocket server go through it; nothing else touches
// the store once the node is running.
type Node struct {
	mu        sync.Mutex
	store     *state.Store
	journal   *history.Journal
	publisher *Publisher
	sequence  uint32
	started   time.Time
}

// NewNode creates a node over store. journal and publisher may be nil.
func NewNode(store *state.Store, journal *history.Journal, publisher *Publisher) *Node {
	return &Node{
		store:     store,
		journal:   journal,
		publisher: publisher,
		sequence:  1,
		started:   time.Now(),
	}
}

// SubmitResult is the outcome of a submitted transaction.
type SubmitResult struct {
	EngineResult        string       `json:"engine_result"`
	EngineResultCode    int          `json:"engine_result_code"`
	EngineResultMessage string       `json:"engine_result_message"`
	Applied             bool         `json:"applied"`
	TxHash              string       `json:"tx_hash"`
	Sequence            uint32       `json:"sequence"`
	Metadata            *tx.Metadata `json:"metadata,omitempty"`
}

// Submit parses and applies a transaction, advancing the node sequence
// when it commits.
func (n *Node) Submit(ctx context.Context, txJSON []byte) (*SubmitResult, error) {
	t, err := tx.FromJSON(txJSON)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	engine := tx.NewEngine(n.store, tx.EngineConfig{LedgerSequence: n.sequence})
	res := engine.Apply(t)

	result := &SubmitResult{
		EngineResult:        res.Result.String(),
		EngineResultCode:    int(res.Result),
		EngineResultMessage: res.Message,
		Applied:             res.Applied,
		TxHash:              tx.EncodeHash256(res.TxHash),
		Sequence:            n.sequence,
		Metadata:            res.Metadata,
	}

	if res.Applied {
		n.recordHistory(ctx, t, res, txJSON)
		if n.publisher != nil {
			n.publisher.PublishTransaction(TransactionEvent{
				Hash:     result.TxHash,
				Account:  t.GetCommon().Account,
				TxType:   t.TxType().String(),
				Result:   result.EngineResult,
				Sequence: n.sequence,
				Metadata: res.Metadata,
			})
		}
		n.sequence++
	}

	return result, nil
}

func (n *Node) recordHistory(ctx context.Context, t tx.Transaction, res tx.ApplyResult, txJSON []byte) {
	if n.journal == nil {
		return
	}
	meta := "{}"
	if res.Metadata != nil {
		if data, err := json.Marshal(res.Metadata); err == nil {
			meta = string(data)
		}
	}
	// Journal failures don't fail the transaction; the state commit
	// already happened.
	_ = n.journal.Record(ctx, &history.Entry{
		Hash:      tx.EncodeHash256(res.TxHash),
		LedgerSeq: n.sequence,
		Account:   t.GetCommon().Account,
		TxType:    t.TxType().String(),
		Result:    res.Result.String(),
		RawTxn:    string(txJSON),
		Meta:      meta,
	})
}

// Sequence returns the next ledger sequence to be assigned.
func (n *Node) Sequence() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sequence
}

// Uptime returns how long the node has been running.
func (n *Node) Uptime() time.Duration {
	return time.Since(n.started)
}

// CreateMint registers a new external asset with the given issuing
// authority.
func (n *Node) CreateMint(mint [32]byte, authority [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	table := tx.NewApplyStateTable(n.store)
	if err := token.NewLedger(table).CreateMint(mint, authority); err != nil {
		return err
	}
	puts, deletes := table.Changes()
	return n.store.WriteBatch(puts, deletes)
}

// MintPayment issues amount of mint to a holder, authorized by the
// mint's issuing account.
func (n *Node) MintPayment(mint [32]byte, authority, to [20]byte, amount uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	table := tx.NewApplyStateTable(n.store)
	if err := token.NewLedger(table).Mint(mint, to, amount, token.Signer(authority)); err != nil {
		return err
	}
	puts, deletes := table.Changes()
	return n.store.WriteBatch(puts, deletes)
}

// AmmInfo describes an Amm instance.
type AmmInfo struct {
	ID    string `json:"amm_id"`
	Admin string `json:"admin"`
	Fee   uint16 `json:"fee"`
	Key   string `json:"key"`
}

// GetAmm reads an Amm instance, nil when absent.
func (n *Node) GetAmm(id [32]byte) (*AmmInfo, error) {
	data, err := n.store.Read(keylet.Amm(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	a, err := record.ParseAmm(data)
	if err != nil {
		return nil, err
	}
	return &AmmInfo{
		ID:    tx.EncodeHash256(a.ID),
		Admin: tx.EncodeAccountID(a.Admin),
		Fee:   a.Fee,
		Key:   tx.EncodeHash256(keylet.Amm(id).Key),
	}, nil
}

// PoolInfo describes a pool with its live reserves and share supply.
type PoolInfo struct {
	Key           string `json:"pool"`
	AmmID         string `json:"amm_id"`
	MintA         string `json:"mint_a"`
	MintB         string `json:"mint_b"`
	Authority     string `json:"authority"`
	LiquidityMint string `json:"liquidity_mint"`
	ReserveA      uint64 `json:"reserve_a"`
	ReserveB      uint64 `json:"reserve_b"`
	ShareSupply   uint64 `json:"share_supply"`
}

// GetPool reads a pool by its derived key, nil when absent.
func (n *Node) GetPool(poolKey [32]byte) (*PoolInfo, error) {
	data, err := n.store.Read(keylet.Keylet{Type: record.TypePool, Key: poolKey})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	p, err := record.ParsePool(data)
	if err != nil {
		return nil, err
	}

	tokens := token.NewLedger(n.store)
	reserveA, err := tokens.BalanceOf(p.Authority, p.MintA)
	if err != nil {
		return nil, err
	}
	reserveB, err := tokens.BalanceOf(p.Authority, p.MintB)
	if err != nil {
		return nil, err
	}
	supply, err := tokens.Supply(p.LiquidityMint)
	if err != nil {
		return nil, err
	}

	return &PoolInfo{
		Key:           tx.EncodeHash256(poolKey),
		AmmID:         tx.EncodeHash256(p.AmmID),
		MintA:         tx.EncodeHash256(p.MintA),
		MintB:         tx.EncodeHash256(p.MintB),
		Authority:     tx.EncodeAccountID(p.Authority),
		LiquidityMint: tx.EncodeHash256(p.LiquidityMint),
		ReserveA:      reserveA,
		ReserveB:      reserveB,
		ShareSupply:   supply,
	}, nil
}

// DepositInfo describes a depositor's stake in a pool.
type DepositInfo struct {
	Pool      string `json:"pool"`
	Depositor string `json:"depositor"`
	Liquidity uint64 `json:"liquidity"`
	Held      uint64 `json:"shares_held"`
}

// GetDeposit reads a deposit slot, nil when absent.
func (n *Node) GetDeposit(poolKey [32]byte, depositor [20]byte) (*DepositInfo, error) {
	data, err := n.store.Read(keylet.Deposit(poolKey, depositor))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	d, err := record.ParseDeposit(data)
	if err != nil {
		return nil, err
	}

	poolData, err := n.store.Read(keylet.Keylet{Type: record.TypePool, Key: poolKey})
	if err != nil {
		return nil, err
	}
	var held uint64
	if poolData != nil {
		p, err := record.ParsePool(poolData)
		if err != nil {
			return nil, err
		}
		held, err = token.NewLedger(n.store).BalanceOf(depositor, p.LiquidityMint)
		if err != nil {
			return nil, err
		}
	}

	return &DepositInfo{
		Pool:      tx.EncodeHash256(d.Pool),
		Depositor: tx.EncodeAccountID(d.Depositor),
		Liquidity: d.Liquidity,
		Held:      held,
	}, nil
}

// MintBalance is one holding reported by GetBalances.
type MintBalance struct {
	Mint    string `json:"mint"`
	Balance uint64 `json:"balance"`
}

// GetBalances reads a holder's balance for each requested mint.
func (n *Node) GetBalances(holder [20]byte, mints [][32]byte) ([]MintBalance, error) {
	tokens := token.NewLedger(n.store)

	balances := make([]MintBalance, 0, len(mints))
	for _, mint := range mints {
		bal, err := tokens.BalanceOf(holder, mint)
		if err != nil {
			return nil, err
		}
		balances = append(balances, MintBalance{
			Mint:    tx.EncodeHash256(mint),
			Balance: bal,
		})
	}
	return balances, nil
}

// GetTransaction looks up an applied transaction in the journal.
func (n *Node) GetTransaction(ctx context.Context, hash string) (*history.Entry, error) {
	if n.journal == nil {
		return nil, fmt.Errorf("transaction history is not enabled")
	}
	return n.journal.ByHash(ctx, hash)
}

// GetAccountTransactions lists an account's journal entries.
func (n *Node) GetAccountTransactions(ctx context.Context, account string, limit int) ([]history.Entry, error) {
	if n.journal == nil {
		return nil, fmt.Errorf("transaction history is not enabled")
	}
	return n.journal.ByAccount(ctx, account, limit)
}

// GetRecentTransactions lists the newest journal entries.
func (n *Node) GetRecentTransactions(ctx context.Context, limit int) ([]history.Entry, error) {
	if n.journal == nil {
		return nil, fmt.Errorf("transaction history is not enabled")
	}
	return n.journal.Recent(ctx, limit)
}
