package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rawblock/sieve/internal/metrics"
	"github.com/rawblock/sieve/internal/network"
	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

// ErrChainNotFound is returned by Subscribe for a chain the gateway never
// connected (or has since disconnected). StopChain and IsActive do not
// return it: they treat an unknown chain as a no-op and as inactive.
type ErrChainNotFound struct{ Chain chain.Chain }

func (e ErrChainNotFound) Error() string {
	return fmt.Sprintf("ingest: chain %s is not connected", e.Chain)
}

type chainState struct {
	stream       *ChainStream
	orchestrator *network.RpcOrchestrator
	rpc          *network.EthRPC
	cancel       context.CancelFunc
}

// Gateway owns the running {ChainStream, RpcOrchestrator} pair for every
// connected chain and is the sole entry point for subscribing to or
// tearing one down.
type Gateway struct {
	mu      sync.RWMutex
	states  map[chain.Chain]*chainState
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewGateway builds an empty Gateway. Call Connect to bring chains up.
func NewGateway(log zerolog.Logger) *Gateway {
	return &Gateway{states: make(map[chain.Chain]*chainState), log: log}
}

// WithMetrics attaches a Metrics handle; every connected chain's stream
// reports through it from then on.
func (g *Gateway) WithMetrics(m *metrics.Metrics) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.metrics = m
	return g
}

// Connect starts ingestion for every config with a non-empty RPCURL. A
// config with an empty RPCURL, or one whose dial fails, is logged and
// skipped rather than failing the whole call — the rest of the requested
// chains still come up.
func (g *Gateway) Connect(ctx context.Context, configs []chain.Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, cfg := range configs {
		if cfg.RPCURL == "" {
			g.log.Warn().Stringer("chain", cfg.Chain).Msg("skipping chain with no rpc_url")
			continue
		}
		if _, exists := g.states[cfg.Chain]; exists {
			continue
		}

		rpc, err := network.DialEthRPC(ctx, cfg.RPCURL)
		if err != nil {
			g.log.Error().Err(err).Stringer("chain", cfg.Chain).Msg("failed to dial chain rpc")
			continue
		}
		stream, err := NewChainStream(cfg.Chain)
		if err != nil {
			rpc.Close()
			return fmt.Errorf("ingest: build chain stream for %s: %w", cfg.Chain, err)
		}
		if g.metrics != nil {
			stream.WithMetrics(g.metrics)
		}
		orchestrator := network.NewRpcOrchestrator(cfg.Chain.String(), rpc, g.log)
		runCtx, cancel := context.WithCancel(ctx)
		events, err := orchestrator.Start(runCtx)
		if err != nil {
			cancel()
			rpc.Close()
			return fmt.Errorf("ingest: start orchestrator for %s: %w", cfg.Chain, err)
		}

		st := &chainState{stream: stream, orchestrator: orchestrator, rpc: rpc, cancel: cancel}
		g.states[cfg.Chain] = st
		go g.supervise(cfg.Chain, stream, events)
		g.log.Info().Stringer("chain", cfg.Chain).Msg("chain connected")
	}
	if g.metrics != nil {
		g.metrics.ActiveChains.Set(float64(len(g.states)))
	}
	return nil
}

// supervise drains one chain's orchestrator output into its stream until
// the orchestrator shuts down. It is the fan-in a single chain's pollers
// feed through.
func (g *Gateway) supervise(c chain.Chain, stream *ChainStream, events <-chan event.Event) {
	for ev := range events {
		stream.Process(ev)
	}
	g.log.Debug().Stringer("chain", c).Msg("chain supervisor exiting")
}

// Subscribe returns a live Subscription to a connected chain's deduplicated
// event stream.
func (g *Gateway) Subscribe(c chain.Chain) (Subscription, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st, ok := g.states[c]
	if !ok {
		return Subscription{}, ErrChainNotFound{Chain: c}
	}
	return st.stream.Subscribe(), nil
}

// IsActive reports whether a chain currently has a running orchestrator.
func (g *Gateway) IsActive(c chain.Chain) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st, ok := g.states[c]
	if !ok {
		return false
	}
	return st.orchestrator.State() == network.StateRunning
}

// ActiveChains lists every chain the gateway currently has connected.
func (g *Gateway) ActiveChains() []chain.Chain {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]chain.Chain, 0, len(g.states))
	for c := range g.states {
		out = append(out, c)
	}
	return out
}

// StopChain tears down one chain's orchestrator and releases its RPC
// connection. Stopping a chain that isn't connected is a no-op.
func (g *Gateway) StopChain(c chain.Chain) error {
	g.mu.Lock()
	st, ok := g.states[c]
	if ok {
		delete(g.states, c)
		if g.metrics != nil {
			g.metrics.ActiveChains.Set(float64(len(g.states)))
		}
	}
	g.mu.Unlock()
	if !ok {
		return nil
	}
	err := st.orchestrator.Stop()
	st.cancel()
	st.rpc.Close()
	return err
}

// StopAll tears down every connected chain concurrently.
func (g *Gateway) StopAll() error {
	g.mu.RLock()
	chains := make([]chain.Chain, 0, len(g.states))
	for c := range g.states {
		chains = append(chains, c)
	}
	g.mu.RUnlock()

	var eg errgroup.Group
	for _, c := range chains {
		c := c
		eg.Go(func() error { return g.StopChain(c) })
	}
	return eg.Wait()
}
