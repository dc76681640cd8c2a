package network

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/rawblock/sieve/pkg/event"
)

// EthRPC is the default ChainRPC, backed by go-ethereum's ethclient for
// standard JSON-RPC calls and its lower-level rpc.Client for txpool_content,
// which ethclient does not wrap.
type EthRPC struct {
	eth *ethclient.Client
	raw *gethrpc.Client
}

// DialEthRPC connects to an EVM JSON-RPC endpoint. url may be http(s):// or
// ws(s)://; go-ethereum's rpc.DialContext picks the transport accordingly.
func DialEthRPC(ctx context.Context, url string) (*EthRPC, error) {
	raw, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("network: dial %s: %w", url, err)
	}
	return &EthRPC{eth: ethclient.NewClient(raw), raw: raw}, nil
}

func (c *EthRPC) Close() {
	c.raw.Close()
}

func (c *EthRPC) LatestBlock(ctx context.Context) (*gethtypes.Header, error) {
	return c.eth.HeaderByNumber(ctx, nil)
}

func (c *EthRPC) BlockTransactions(ctx context.Context, blockHash common.Hash) ([]event.Transaction, error) {
	block, err := c.eth.BlockByHash(ctx, blockHash)
	if err != nil {
		return nil, err
	}
	txs := block.Transactions()
	out := make([]event.Transaction, 0, len(txs))
	for i, tx := range txs {
		sender, err := c.eth.TransactionSender(ctx, tx, blockHash, uint(i))
		if err != nil {
			// Fall back to ecrecover against the block's signer if the
			// node doesn't cache sender lookups for historical blocks.
			sender, err = gethtypes.Sender(gethtypes.LatestSignerForChainID(tx.ChainId()), tx)
			if err != nil {
				continue
			}
		}
		out = append(out, event.Transaction{
			Tx:               tx,
			From:             sender,
			BlockHash:        blockHash,
			BlockNumber:      block.NumberU64(),
			TransactionIndex: uint64(i),
		})
	}
	return out, nil
}

func (c *EthRPC) BlockLogs(ctx context.Context, blockHash common.Hash) ([]gethtypes.Log, error) {
	return c.eth.FilterLogs(ctx, ethereum.FilterQuery{BlockHash: &blockHash})
}

// txpoolContentResult mirrors the shape of the txpool_content RPC method's
// result: {"pending": {<from>: {<nonce>: <tx json>}}, "queued": {...}}. Only
// "pending" feeds sieve's pool stream; "queued" transactions are gapped and
// not yet eligible for inclusion.
type txpoolContentResult struct {
	Pending map[string]map[string]map[string]any `json:"pending"`
}

func (c *EthRPC) PendingTransactions(ctx context.Context) ([]event.Transaction, error) {
	var result txpoolContentResult
	if err := c.raw.CallContext(ctx, &result, "txpool_content"); err != nil {
		return nil, fmt.Errorf("network: txpool_content: %w", err)
	}

	var out []event.Transaction
	for from, byNonce := range result.Pending {
		sender := common.HexToAddress(from)
		for _, raw := range byNonce {
			tx, err := txFromRPCFields(raw)
			if err != nil {
				continue
			}
			out = append(out, event.Transaction{Tx: tx, From: sender})
		}
	}
	return out, nil
}

// txFromRPCFields rebuilds a *gethtypes.Transaction from the generic
// key/value map txpool_content hands back (it is not valid raw RLP, just a
// field-by-field JSON rendering identical to eth_getTransactionByHash).
func txFromRPCFields(raw map[string]any) (*gethtypes.Transaction, error) {
	nonce, err := hexUint64(raw["nonce"])
	if err != nil {
		return nil, err
	}
	gasLimit, err := hexUint64(raw["gas"])
	if err != nil {
		return nil, err
	}
	gasPrice, err := hexBigInt(raw["gasPrice"])
	if err != nil {
		return nil, err
	}
	value, err := hexBigInt(raw["value"])
	if err != nil {
		value = big.NewInt(0)
	}
	data, err := hexBytes(raw["input"])
	if err != nil {
		data = nil
	}
	var to *common.Address
	if s, ok := raw["to"].(string); ok && s != "" {
		addr := common.HexToAddress(s)
		to = &addr
	}

	return gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       to,
		Value:    value,
		Data:     data,
	}), nil
}

func hexUint64(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("network: expected hex string, got %T", v)
	}
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

func hexBigInt(v any) (*big.Int, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("network: expected hex string, got %T", v)
	}
	n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("network: malformed hex integer %q", s)
	}
	return n, nil
}

func hexBytes(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("network: expected hex string, got %T", v)
	}
	return hexutil.Decode(s)
}
