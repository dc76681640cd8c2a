// Package event defines the chain data sieve ingests and evaluates filters
// against: block headers, transactions (confirmed and pending), and logs.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Kind distinguishes the four event shapes sieve understands. It drives
// the event-kind short-circuit in internal/engine and the choice of dedup
// cache in internal/ingest.
type Kind int

const (
	KindBlockHeader Kind = iota
	KindTransaction
	KindPendingTransaction
	KindLog
)

func (k Kind) String() string {
	switch k {
	case KindBlockHeader:
		return "block_header"
	case KindTransaction:
		return "transaction"
	case KindPendingTransaction:
		return "pending_transaction"
	case KindLog:
		return "log"
	default:
		return "unknown"
	}
}

// Event is anything sieve can run a filter against. Identity returns a
// stable string used for per-chain dedup in internal/ingest; two Events
// carrying the same underlying chain data must return the same Identity.
type Event interface {
	Kind() Kind
	Identity() string
}

// BlockHeaderEvent wraps a fetched block header.
type BlockHeaderEvent struct {
	Header *gethtypes.Header
}

func (e BlockHeaderEvent) Kind() Kind      { return KindBlockHeader }
func (e BlockHeaderEvent) Identity() string { return e.Header.Hash().Hex() }

// Transaction carries a go-ethereum transaction plus the RPC-only fields
// (sender, containing block, position) that core/types.Transaction does not
// itself encode.
type Transaction struct {
	Tx               *gethtypes.Transaction
	From             common.Address
	BlockHash        common.Hash
	BlockNumber      uint64
	TransactionIndex uint64
}

// MarshalJSON renders Transaction the way an RPC node renders a
// transaction: the tx's own fields (value, gas, input, ...) flattened
// alongside from/blockHash/blockNumber/transactionIndex, so a dyn-field
// path like "blockNumber" or an Optimism path like "l1BlockNumber" (merged
// into the same node-provided payload) resolves the way a user filtering
// on raw RPC JSON would expect, instead of nesting under a "Tx" key.
func (t Transaction) MarshalJSON() ([]byte, error) {
	inner, err := t.Tx.MarshalJSON()
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(inner, &fields); err != nil {
		return nil, err
	}
	quoted := func(s string) json.RawMessage { return json.RawMessage(`"` + s + `"`) }
	fields["from"] = quoted(t.From.Hex())
	fields["blockHash"] = quoted(t.BlockHash.Hex())
	fields["blockNumber"] = quoted(hexutil.EncodeUint64(t.BlockNumber))
	fields["transactionIndex"] = quoted(hexutil.EncodeUint64(t.TransactionIndex))
	return json.Marshal(fields)
}

// TransactionEvent wraps a confirmed transaction, observed via the
// latest-block poller.
type TransactionEvent struct {
	Transaction Transaction
}

func (e TransactionEvent) Kind() Kind       { return KindTransaction }
func (e TransactionEvent) Identity() string { return e.Transaction.Tx.Hash().Hex() }

// PendingTransactionEvent wraps a transaction observed in the mempool before
// it lands in a block. BlockHash/BlockNumber/TransactionIndex are zero.
type PendingTransactionEvent struct {
	Transaction Transaction
}

func (e PendingTransactionEvent) Kind() Kind       { return KindPendingTransaction }
func (e PendingTransactionEvent) Identity() string { return e.Transaction.Tx.Hash().Hex() }

// LogEvent wraps a single decoded-at-the-RPC-layer event log.
type LogEvent struct {
	Log gethtypes.Log
}

func (e LogEvent) Kind() Kind { return KindLog }

// Identity mirrors the reference implementation's (tx_hash, log_index) pair:
// a log's address+topics+data are not unique, but its position within its
// transaction's receipt is.
func (e LogEvent) Identity() string {
	return fmt.Sprintf("%s-%d", e.Log.TxHash.Hex(), e.Log.Index)
}
