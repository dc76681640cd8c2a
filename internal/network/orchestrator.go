// Package network drives the two independent RPC pollers (latest block,
// pending transaction pool) that feed a chain's internal/ingest.ChainStream,
// and defines the ChainRPC seam a concrete client (EthRPC, in ethereum.go)
// implements.
package network

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/rawblock/sieve/pkg/event"
)

// Defaults mirror the reference implementation's polling cadence and its
// 30s default per-call RPC timeout.
const (
	DefaultRPCTimeout          = 30 * time.Second
	DefaultBlockPollInterval   = 12 * time.Second
	DefaultPendingPollInterval = 2 * time.Second
)

// ChainRPC is the black-box per-chain client RpcOrchestrator polls through.
// Nothing in internal/network or internal/ingest cares how it reaches the
// node; EthRPC (ethereum.go) provides the go-ethereum-backed default.
type ChainRPC interface {
	LatestBlock(ctx context.Context) (*gethtypes.Header, error)
	BlockTransactions(ctx context.Context, blockHash common.Hash) ([]event.Transaction, error)
	BlockLogs(ctx context.Context, blockHash common.Hash) ([]gethtypes.Log, error)
	PendingTransactions(ctx context.Context) ([]event.Transaction, error)
}

// State is RpcOrchestrator's lifecycle: Idle -> Running -> Stopping -> Idle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// RpcOrchestrator runs the latest-block and pending-tx pollers for one
// chain, merging both into a single bounded output channel.
type RpcOrchestrator struct {
	Name                string
	RPC                 ChainRPC
	BlockPollInterval   time.Duration
	PendingPollInterval time.Duration
	RPCTimeout          time.Duration
	Log                 zerolog.Logger

	state  atomic.Int32
	cancel context.CancelFunc
	out    chan event.Event
	wg     sync.WaitGroup
}

// NewRpcOrchestrator builds an orchestrator with sieve's default polling
// cadence; override the exported fields before Start to change them.
func NewRpcOrchestrator(name string, rpc ChainRPC, log zerolog.Logger) *RpcOrchestrator {
	return &RpcOrchestrator{
		Name:                name,
		RPC:                 rpc,
		BlockPollInterval:   DefaultBlockPollInterval,
		PendingPollInterval: DefaultPendingPollInterval,
		RPCTimeout:          DefaultRPCTimeout,
		Log:                 log,
	}
}

func (o *RpcOrchestrator) State() State {
	return State(o.state.Load())
}

// Start transitions Idle -> Running and returns the merged event channel,
// buffered to ~10^4 entries per the reference implementation's bounded
// mpsc sizing. Calling Start while already running is an error.
func (o *RpcOrchestrator) Start(ctx context.Context) (<-chan event.Event, error) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, fmt.Errorf("network: orchestrator %s is not idle", o.Name)
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.out = make(chan event.Event, 10_000)

	o.wg.Add(2)
	go o.pollLatestBlock(runCtx)
	go o.pollPendingTx(runCtx)
	go func() {
		o.wg.Wait()
		close(o.out)
	}()
	return o.out, nil
}

// Stop transitions Running -> Stopping -> Idle and blocks until both
// pollers have exited. Stopping an orchestrator that isn't running is a
// no-op, matching the reference implementation's idempotent stop_chain.
func (o *RpcOrchestrator) Stop() error {
	if !o.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil
	}
	o.cancel()
	o.wg.Wait()
	o.state.Store(int32(StateIdle))
	return nil
}

func (o *RpcOrchestrator) pollLatestBlock(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.BlockPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.fetchLatestBlock(ctx)
		}
	}
}

func (o *RpcOrchestrator) fetchLatestBlock(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, o.RPCTimeout)
	defer cancel()

	header, err := o.RPC.LatestBlock(callCtx)
	if err != nil {
		o.Log.Warn().Err(err).Str("chain", o.Name).Msg("failed to fetch latest block")
		return
	}
	if header == nil {
		return
	}
	o.emit(ctx, event.BlockHeaderEvent{Header: header})

	blockHash := header.Hash()
	txs, err := o.RPC.BlockTransactions(callCtx, blockHash)
	if err != nil {
		o.Log.Warn().Err(err).Str("chain", o.Name).Msg("failed to fetch block transactions")
	} else {
		for _, tx := range txs {
			o.emit(ctx, event.TransactionEvent{Transaction: tx})
		}
	}
	logs, err := o.RPC.BlockLogs(callCtx, blockHash)
	if err != nil {
		o.Log.Warn().Err(err).Str("chain", o.Name).Msg("failed to fetch block logs")
	} else {
		for _, lg := range logs {
			o.emit(ctx, event.LogEvent{Log: lg})
		}
	}
}

func (o *RpcOrchestrator) pollPendingTx(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.PendingPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.fetchPendingTx(ctx)
		}
	}
}

func (o *RpcOrchestrator) fetchPendingTx(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, o.RPCTimeout)
	defer cancel()

	txs, err := o.RPC.PendingTransactions(callCtx)
	if err != nil {
		o.Log.Warn().Err(err).Str("chain", o.Name).Msg("failed to fetch pending transactions")
		return
	}
	for _, tx := range txs {
		o.emit(ctx, event.PendingTransactionEvent{Transaction: tx})
	}
}

// emit pushes ev onto the output channel, dropping it if the orchestrator
// is shutting down rather than blocking forever on a closed consumer.
func (o *RpcOrchestrator) emit(ctx context.Context, ev event.Event) {
	select {
	case o.out <- ev:
	case <-ctx.Done():
	}
}
