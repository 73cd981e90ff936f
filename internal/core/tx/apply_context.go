package tx

import "github.com/Dodecahedr0x/amm-tutorial/internal/core/token"

// ApplyContext provides all the state and helpers needed to apply a
// transaction. It is passed to Appliable.Apply() instead of individual
// parameters.
type ApplyContext struct {
	// View provides read/write access to exchange state, buffered by the
	// engine's apply state table
	View LedgerView

	// Tokens is the asset ledger bound to the same buffered view, so
	// balance movements commit or roll back with the transaction
	Tokens *token.Ledger

	// AccountID is the decoded source account
	AccountID [20]byte

	// Config holds engine configuration
	Config EngineConfig

	// TxHash is the hash of the current transaction
	TxHash [32]byte

	// Metadata collects operation outputs for the caller
	Metadata *Metadata
}

// SignerCredential returns the credential of the transaction's signer.
func (ctx *ApplyContext) SignerCredential() token.Credential {
	return token.Signer(ctx.AccountID)
}

// Metadata reports the observable outputs of an applied transaction.
type Metadata struct {
	// SharesMinted is set by LiquidityDeposit
	SharesMinted uint64 `json:"shares_minted,omitempty"`

	// SharesBurned is set by LiquidityWithdraw
	SharesBurned uint64 `json:"shares_burned,omitempty"`

	// AmountA and AmountB are set by LiquidityDeposit and LiquidityWithdraw
	AmountA uint64 `json:"amount_a,omitempty"`
	AmountB uint64 `json:"amount_b,omitempty"`

	// AmountOut is set by Swap
	AmountOut uint64 `json:"amount_out,omitempty"`

	// CreatedKey is the derived address of a record created by the
	// transaction, hex encoded
	CreatedKey string `json:"created_key,omitempty"`
}
