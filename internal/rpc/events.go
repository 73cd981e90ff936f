package rpc

import "github.com/Dodecahedr0x/amm-tutorial/internal/core/tx"

// TransactionEvent is broadcast on the transactions stream after each
// applied transaction.
type TransactionEvent struct {
	Type     string       `json:"type"`
	Hash     string       `json:"hash"`
	Account  string       `json:"account"`
	TxType   string       `json:"tx_type"`
	Result   string       `json:"result"`
	Sequence uint32       `json:"sequence"`
	Metadata *tx.Metadata `json:"metadata,omitempty"`
}

// ServerEvent is broadcast on the server stream when the sequence
// advances.
type ServerEvent struct {
	Type     string `json:"type"`
	Sequence uint32 `json:"sequence"`
}
