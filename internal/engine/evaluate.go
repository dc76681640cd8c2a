package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/rawblock/sieve/internal/decode"
	"github.com/rawblock/sieve/internal/filter"
	"github.com/rawblock/sieve/pkg/event"
)

// Evaluate runs filter f against ev. If f is bound to a specific event kind
// and ev doesn't match it, Evaluate returns false without visiting the tree
// at all — the same short-circuit the ingest gateway could apply before
// ever calling in, kept here too so a misrouted event is always safe.
func (e *Evaluator) Evaluate(f filter.Filter, ev event.Event) (bool, error) {
	if f.EventKind != nil && *f.EventKind != ev.Kind() {
		return false, nil
	}
	return e.evalNode(f.Root, ev)
}

func (e *Evaluator) evalNode(n filter.FilterNode, ev event.Event) (bool, error) {
	if n.Leaf != nil {
		return e.evalCondition(*n.Leaf, ev)
	}
	if len(n.Children) == 0 {
		return true, nil
	}
	switch n.Op {
	case filter.OpAnd:
		for _, c := range n.Children {
			ok, err := e.evalNode(c, ev)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case filter.OpOr:
		for _, c := range n.Children {
			ok, err := e.evalNode(c, ev)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case filter.OpNot:
		// N-ary NAND: true as soon as one child fails to match, since that
		// alone proves "not all of these" regardless of the rest.
		for _, c := range n.Children {
			ok, err := e.evalNode(c, ev)
			if err != nil {
				return false, err
			}
			if !ok {
				return true, nil
			}
		}
		return false, nil
	case filter.OpXor:
		matches := 0
		for _, c := range n.Children {
			ok, err := e.evalNode(c, ev)
			if err != nil {
				return false, err
			}
			if ok {
				matches++
			}
		}
		return matches == 1, nil
	default:
		return false, nil
	}
}

func (e *Evaluator) evalCondition(c filter.FilterCondition, ev event.Event) (bool, error) {
	switch c.Domain {
	case filter.DomainTransaction:
		tx, ok := ev.(event.TransactionEvent)
		if !ok {
			return false, nil
		}
		return e.evalTxCondition(c.Tx, tx.Transaction)
	case filter.DomainPool:
		p, ok := ev.(event.PendingTransactionEvent)
		if !ok {
			return false, nil
		}
		return e.evalPoolCondition(c.Pool, p.Transaction)
	case filter.DomainEvent:
		lg, ok := ev.(event.LogEvent)
		if !ok {
			return false, nil
		}
		return e.evalEventCondition(c.Event, lg)
	case filter.DomainBlockHeader:
		hdr, ok := ev.(event.BlockHeaderEvent)
		if !ok {
			return false, nil
		}
		return e.evalBlockCondition(c.Block, hdr)
	default:
		return false, nil
	}
}

func (e *Evaluator) evalTxCondition(c filter.TransactionCondition, tx event.Transaction) (bool, error) {
	switch c.Kind {
	case filter.TxGas:
		return c.U64.Evaluate(tx.Tx.Gas()), nil
	case filter.TxNonce:
		return c.U64.Evaluate(tx.Tx.Nonce()), nil
	case filter.TxType:
		return c.U8.Evaluate(tx.Tx.Type()), nil
	case filter.TxChainID:
		return c.U64.Evaluate(tx.Tx.ChainId().Uint64()), nil
	case filter.TxBlockNumber:
		return c.U64.Evaluate(tx.BlockNumber), nil
	case filter.TxTransactionIndex:
		return c.U64.Evaluate(tx.TransactionIndex), nil
	case filter.TxValue:
		v, overflow := uint256.FromBig(tx.Tx.Value())
		if overflow {
			return false, nil
		}
		return c.U256.Evaluate(v), nil
	case filter.TxGasPrice:
		return c.U128.Evaluate(tx.Tx.GasPrice()), nil
	case filter.TxMaxFeePerGas:
		return c.U128.Evaluate(tx.Tx.GasFeeCap()), nil
	case filter.TxMaxPriorityFee:
		return c.U128.Evaluate(tx.Tx.GasTipCap()), nil
	case filter.TxFrom:
		return c.Str.Evaluate(tx.From.Hex()), nil
	case filter.TxTo:
		to := tx.Tx.To()
		if to == nil {
			return false, nil
		}
		return c.Str.Evaluate(to.Hex()), nil
	case filter.TxHash:
		return c.Str.Evaluate(tx.Tx.Hash().Hex()), nil
	case filter.TxBlockHash:
		return c.Str.Evaluate(tx.BlockHash.Hex()), nil
	case filter.TxAccessList:
		return c.Arr.Evaluate(accessListAddresses(tx.Tx)), nil
	case filter.TxCallData:
		return e.evalCallData(c.CallData, tx.Tx.Data())
	case filter.TxDynField:
		return e.evalDynField(c.Dyn, tx)
	default:
		return false, nil
	}
}

func (e *Evaluator) evalPoolCondition(c filter.PoolCondition, tx event.Transaction) (bool, error) {
	switch c.Kind {
	case filter.PoolHash:
		return c.Str.Evaluate(tx.Tx.Hash().Hex()), nil
	case filter.PoolTo:
		to := tx.Tx.To()
		if to == nil {
			return false, nil
		}
		return c.Str.Evaluate(to.Hex()), nil
	case filter.PoolFrom:
		return c.Str.Evaluate(tx.From.Hex()), nil
	case filter.PoolValue:
		v, overflow := uint256.FromBig(tx.Tx.Value())
		if overflow {
			return false, nil
		}
		return c.U256.Evaluate(v), nil
	case filter.PoolNonce:
		return c.U64.Evaluate(tx.Tx.Nonce()), nil
	case filter.PoolGasPrice:
		return c.U128.Evaluate(tx.Tx.GasPrice()), nil
	case filter.PoolGasLimit:
		return c.U64.Evaluate(tx.Tx.Gas()), nil
	default:
		return false, nil
	}
}

func (e *Evaluator) evalBlockCondition(c filter.BlockHeaderCondition, hdr event.BlockHeaderEvent) (bool, error) {
	h := hdr.Header
	switch c.Kind {
	case filter.BlockBaseFee:
		if h.BaseFee == nil {
			return false, nil
		}
		return c.U64.Evaluate(h.BaseFee.Uint64()), nil
	case filter.BlockNumberKind:
		return c.U64.Evaluate(h.Number.Uint64()), nil
	case filter.BlockTimestamp:
		return c.U64.Evaluate(h.Time), nil
	case filter.BlockGasUsed:
		return c.U64.Evaluate(h.GasUsed), nil
	case filter.BlockGasLimit:
		return c.U64.Evaluate(h.GasLimit), nil
	case filter.BlockParentHash:
		return c.Str.Evaluate(h.ParentHash.Hex()), nil
	case filter.BlockStateRoot:
		return c.Str.Evaluate(h.Root.Hex()), nil
	case filter.BlockReceiptsRoot:
		return c.Str.Evaluate(h.ReceiptHash.Hex()), nil
	case filter.BlockTransactionsRoot:
		return c.Str.Evaluate(h.TxHash.Hex()), nil
	case filter.BlockDynField:
		return e.evalDynField(c.Dyn, h)
	default:
		return false, nil
	}
}

// preEvaluateCallData is the cheap guard run before a CallData decode is
// attempted: if the input is too short or its 4-byte selector doesn't
// match, there is no point decoding.
func preEvaluateCallData(selector [4]byte, input []byte) bool {
	if len(input) < 4 {
		return false
	}
	return [4]byte(input[:4]) == selector
}

// preEvaluateEventData is the cheap guard for EventData: compares the
// first 4 bytes of the log's topic0 against the first 4 bytes of the
// event signature's Keccak-256 hash, rejecting an obvious non-match before
// the full ABI decode runs.
func preEvaluateEventData(signature string, topic0 common.Hash) bool {
	want := crypto.Keccak256([]byte(signature))[:4]
	got := topic0.Bytes()[:4]
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func (e *Evaluator) evalCallData(c filter.CallDataCondition, input []byte) (bool, error) {
	if !preEvaluateCallData(c.Selector, input) {
		return false, nil
	}
	for _, p := range c.Paths {
		view := map[string]any{
			"selector": common.Bytes2Hex(c.Selector[:]),
			"input":    common.Bytes2Hex(input),
		}
		raw, ok := filter.ResolvePath(view, p.Path)
		if !ok || !filter.EvaluateValue(p.Cond, raw) {
			return false, nil
		}
	}
	if len(c.Parameters) == 0 {
		return true, nil
	}

	key := decode.Key{EventIdentity: common.Bytes2Hex(input), Shape: "call:" + c.MethodSignature}
	decoded, err := e.Store.GetOrDecode(key, func() (*decode.Decoded, error) {
		return e.Decoder.DecodeCall(c.MethodSignature, input)
	})
	if err != nil {
		return false, nil
	}
	for _, p := range c.Parameters {
		v, ok := decoded.Values[p.Path]
		if !ok || !filter.EvaluateValue(p.Cond, v) {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) evalEventCondition(c filter.EventCondition, lg event.LogEvent) (bool, error) {
	log := lg.Log
	switch c.Kind {
	case filter.EventContract:
		return c.Str.Evaluate(log.Address.Hex()), nil
	case filter.EventBlockHash:
		return c.Str.Evaluate(log.BlockHash.Hex()), nil
	case filter.EventTxHash:
		return c.Str.Evaluate(log.TxHash.Hex()), nil
	case filter.EventLogIndex:
		return c.U64.Evaluate(uint64(log.Index)), nil
	case filter.EventBlockNumber:
		return c.U64.Evaluate(log.BlockNumber), nil
	case filter.EventTxIndex:
		return c.U64.Evaluate(uint64(log.TxIndex)), nil
	case filter.EventTopics:
		return c.Arr.Evaluate(topicStrings(log.Topics)), nil
	case filter.EventData:
		return e.evalEventData(c.Event, log)
	case filter.EventDynField:
		return e.evalDynField(c.Dyn, lg.Log)
	default:
		return false, nil
	}
}

func (e *Evaluator) evalEventData(c filter.EventDataCondition, log gethtypes.Log) (bool, error) {
	if len(log.Topics) == 0 || !preEvaluateEventData(c.Signature, log.Topics[0]) {
		return false, nil
	}
	key := decode.Key{
		EventIdentity: fmt.Sprintf("%s-%d", log.TxHash.Hex(), log.Index),
		Shape:         "log:" + c.Signature,
	}
	decoded, err := e.Store.GetOrDecode(key, func() (*decode.Decoded, error) {
		return e.Decoder.DecodeLog(c.Signature, log)
	})
	if err != nil {
		return false, nil
	}
	for _, p := range c.Parameters {
		v, ok := decoded.Values[p.Param]
		if !ok || !filter.EvaluateValue(p.Cond, v) {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) evalDynField(c filter.DynFieldCondition, src any) (bool, error) {
	proj, err := filter.ProjectJSON(src)
	if err != nil {
		return false, nil
	}
	raw, ok := filter.ResolvePath(proj, c.Path)
	if !ok {
		return false, nil
	}
	return filter.EvaluateValue(c.Cond, raw), nil
}

func accessListAddresses(tx *gethtypes.Transaction) []string {
	al := tx.AccessList()
	out := make([]string, len(al))
	for i, tuple := range al {
		out[i] = tuple.Address.Hex()
	}
	return out
}

func topicStrings(topics []common.Hash) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Hex()
	}
	return out
}
