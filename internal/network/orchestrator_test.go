package network

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/rawblock/sieve/pkg/event"
)

type fakeRPC struct {
	blocks   atomic.Int64
	header   *gethtypes.Header
	pendErr  error
	pendings []event.Transaction
}

func (f *fakeRPC) LatestBlock(ctx context.Context) (*gethtypes.Header, error) {
	f.blocks.Add(1)
	return f.header, nil
}

func (f *fakeRPC) BlockTransactions(ctx context.Context, blockHash common.Hash) ([]event.Transaction, error) {
	return nil, nil
}

func (f *fakeRPC) BlockLogs(ctx context.Context, blockHash common.Hash) ([]gethtypes.Log, error) {
	return nil, nil
}

func (f *fakeRPC) PendingTransactions(ctx context.Context) ([]event.Transaction, error) {
	return f.pendings, f.pendErr
}

func TestRpcOrchestrator_StartEmitsBlockHeaderEvents(t *testing.T) {
	rpc := &fakeRPC{header: &gethtypes.Header{Number: big.NewInt(1)}}
	o := NewRpcOrchestrator("test", rpc, zerolog.Nop())
	o.BlockPollInterval = 5 * time.Millisecond
	o.PendingPollInterval = time.Hour

	events, err := o.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	select {
	case ev := <-events:
		if ev.Kind() != event.KindBlockHeader {
			t.Fatalf("expected a block header event, got kind %v", ev.Kind())
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a block header event within 1s of polling")
	}
}

func TestRpcOrchestrator_StartTwiceFails(t *testing.T) {
	rpc := &fakeRPC{header: &gethtypes.Header{Number: big.NewInt(1)}}
	o := NewRpcOrchestrator("test", rpc, zerolog.Nop())
	o.BlockPollInterval = time.Hour
	o.PendingPollInterval = time.Hour

	if _, err := o.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer o.Stop()

	if _, err := o.Start(context.Background()); err == nil {
		t.Fatalf("expected starting an already-running orchestrator to fail")
	}
}

func TestRpcOrchestrator_StopIsIdempotentAndClosesOutput(t *testing.T) {
	rpc := &fakeRPC{header: &gethtypes.Header{Number: big.NewInt(1)}}
	o := NewRpcOrchestrator("test", rpc, zerolog.Nop())
	o.BlockPollInterval = time.Hour
	o.PendingPollInterval = time.Hour

	events, err := o.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := o.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := o.Stop(); err != nil {
		t.Fatalf("expected a second Stop on an idle orchestrator to be a no-op, got %v", err)
	}
	if o.State() != StateIdle {
		t.Fatalf("expected state Idle after Stop, got %v", o.State())
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected the output channel to be closed after Stop")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected the output channel to close promptly after Stop")
	}
}

func TestRpcOrchestrator_StopWithoutStartIsNoOp(t *testing.T) {
	o := NewRpcOrchestrator("test", &fakeRPC{}, zerolog.Nop())
	if err := o.Stop(); err != nil {
		t.Fatalf("expected Stop on a never-started orchestrator to be a no-op, got %v", err)
	}
}
