package engine

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/rawblock/sieve/internal/decode"
	"github.com/rawblock/sieve/internal/filter"
	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

// countingDecoder wraps a decode.Decoder and counts DecodeLog calls, so a
// test can assert two filters sharing a (event, shape) key only pay for one
// decode.
type countingDecoder struct {
	decode.Decoder
	logDecodes int
}

func (d *countingDecoder) DecodeLog(signature string, log gethtypes.Log) (*decode.Decoded, error) {
	d.logDecodes++
	return d.Decoder.DecodeLog(signature, log)
}

// transferLogEvent builds a synthetic Transfer(address,address,uint256) log
// whose topic0 matches the exact signature string sieve's EventData filters
// are given (sieve hashes the literal signature it's handed rather than a
// canonicalized form, so the fixture's topic0 must be derived the same way).
func transferLogEvent(signature string, from, to common.Address, value *big.Int) event.LogEvent {
	return event.LogEvent{Log: gethtypes.Log{
		Address: common.HexToAddress("0x5555555555555555555555555555555555555555"),
		Topics: []common.Hash{
			crypto.Keccak256Hash([]byte(signature)),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:   common.LeftPadBytes(value.Bytes(), 32),
		TxHash: common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"),
		Index:  0,
	}}
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	cache, err := decode.NewCache(16)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return New(cache, decode.EthDecoder{})
}

func legacyTxEvent(value *big.Int, to common.Address) event.TransactionEvent {
	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21_000,
		To:       &to,
		Value:    value,
	})
	return event.TransactionEvent{Transaction: event.Transaction{
		Tx:               tx,
		From:             common.HexToAddress("0xabc0000000000000000000000000000000abc0"),
		BlockNumber:      100,
		TransactionIndex: 0,
	}}
}

func TestEvaluate_TransactionValueThreshold(t *testing.T) {
	e := newEvaluator(t)
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")

	whale := filter.New().Chain(chain.Ethereum).Transaction(func(tb *filter.TxBuilder) {
		tb.Value().Gte(uint256.NewInt(1_000))
	}).Build()

	big_, small := legacyTxEvent(big.NewInt(2_000), to), legacyTxEvent(big.NewInt(500), to)

	matched, err := e.Evaluate(whale, big_)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !matched {
		t.Fatalf("expected a 2000-wei transfer to match a >=1000 threshold")
	}

	matched, err = e.Evaluate(whale, small)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if matched {
		t.Fatalf("expected a 500-wei transfer not to match a >=1000 threshold")
	}
}

func TestEvaluate_EventKindShortCircuitsBeforeVisitingTree(t *testing.T) {
	e := newEvaluator(t)
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")

	txOnly := filter.New().Chain(chain.Ethereum).OnKind(event.KindTransaction).Transaction(func(tb *filter.TxBuilder) {
		tb.Value().Gte(uint256.NewInt(1))
	}).Build()

	header := event.BlockHeaderEvent{Header: &gethtypes.Header{Number: big.NewInt(1)}}
	matched, err := e.Evaluate(txOnly, header)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if matched {
		t.Fatalf("expected a transaction-kind filter never to match a block header event")
	}

	matched, err = e.Evaluate(txOnly, legacyTxEvent(big.NewInt(5), to))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !matched {
		t.Fatalf("expected the transaction event to match once kind-routed")
	}
}

func TestEvaluate_AndRequiresEveryChild(t *testing.T) {
	e := newEvaluator(t)
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	f := filter.New().Chain(chain.Ethereum).Transaction(func(tb *filter.TxBuilder) {
		tb.Value().Gte(uint256.NewInt(1_000))
		tb.To().Equal(to.Hex())
	}).Build()

	matchingValueWrongTo := legacyTxEvent(big.NewInt(2_000), common.HexToAddress("0x3333333333333333333333333333333333333333"))
	matched, err := e.Evaluate(f, matchingValueWrongTo)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if matched {
		t.Fatalf("expected AND to reject when only one of two conditions holds")
	}

	both := legacyTxEvent(big.NewInt(2_000), to)
	matched, err = e.Evaluate(f, both)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !matched {
		t.Fatalf("expected AND to match when both conditions hold")
	}
}

func TestEvaluate_OrMatchesAnyChild(t *testing.T) {
	e := newEvaluator(t)
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")

	f := filter.New().Chain(chain.Ethereum).Or(func(sub *filter.FilterBuilder) {
		sub.Transaction(func(tb *filter.TxBuilder) { tb.Value().Gte(uint256.NewInt(1_000_000)) })
		sub.Transaction(func(tb *filter.TxBuilder) { tb.To().Equal(to.Hex()) })
	}).Build()

	matched, err := e.Evaluate(f, legacyTxEvent(big.NewInt(1), to))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !matched {
		t.Fatalf("expected OR to match on the To() branch alone")
	}
}

// TestEvaluate_EventLogDecodeSharedAcrossFilters is scenario S4: two filters
// referencing the same event signature with different parameter predicates,
// evaluated against one log, must decode it exactly once.
func TestEvaluate_EventLogDecodeSharedAcrossFilters(t *testing.T) {
	cache, err := decode.NewCache(16)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	counter := &countingDecoder{Decoder: decode.EthDecoder{}}
	e := New(cache, counter)

	const signature = "Transfer(address indexed from,address indexed to,uint256 value)"
	from := common.HexToAddress("0x6666666666666666666666666666666666666666")
	to := common.HexToAddress("0x7777777777777777777777777777777777777777")
	log := transferLogEvent(signature, from, to, big.NewInt(1_500))

	bigTransfer := filter.New().Chain(chain.Ethereum).Event(func(eb *filter.EventBuilder) {
		eb.EventData(signature, func(p *filter.EventParamBuilder) {
			p.Param("value").U256().Gte(uint256.NewInt(1_000))
		})
	}).Build()

	toFilter := filter.New().Chain(chain.Ethereum).Event(func(eb *filter.EventBuilder) {
		eb.EventData(signature, func(p *filter.EventParamBuilder) {
			p.Param("to").String().Equal(to.Hex())
		})
	}).Build()

	matched, err := e.Evaluate(bigTransfer, log)
	if err != nil {
		t.Fatalf("Evaluate bigTransfer: %v", err)
	}
	if !matched {
		t.Fatalf("expected a 1500-unit transfer to satisfy value >= 1000")
	}

	matched, err = e.Evaluate(toFilter, log)
	if err != nil {
		t.Fatalf("Evaluate toFilter: %v", err)
	}
	if !matched {
		t.Fatalf("expected the to-address predicate to match the log's to topic")
	}

	if counter.logDecodes != 1 {
		t.Fatalf("expected one decode shared across both filters, got %d", counter.logDecodes)
	}
}
