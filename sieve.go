// Package sieve is a real-time predicate-evaluation engine for EVM
// blockchain streams: connect to one or more chains, declare a filter
// against blocks, transactions, pending transactions, or logs, and receive
// matches as they happen. WatchWithin joins matches across several filters
// into a single correlated window.
package sieve

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rawblock/sieve/internal/correlation"
	"github.com/rawblock/sieve/internal/decode"
	"github.com/rawblock/sieve/internal/engine"
	"github.com/rawblock/sieve/internal/filter"
	"github.com/rawblock/sieve/internal/ingest"
	"github.com/rawblock/sieve/internal/metrics"
	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

// Match is one filter firing against one event.
type Match struct {
	FilterID uint64
	Chain    chain.Chain
	Event    event.Event
}

// Sieve is the engine's public entry point: it owns the per-chain ingest
// gateway and the decode cache shared by every evaluation.
type Sieve struct {
	gateway   *ingest.Gateway
	evaluator *engine.Evaluator
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// Option customizes a Sieve at construction time.
type Option func(*Sieve)

// WithDecoder overrides the default go-ethereum ABI decoder, e.g. with a
// mock for testing.
func WithDecoder(d decode.Decoder) Option {
	return func(s *Sieve) { s.evaluator.Decoder = d }
}

// WithDecodeCacheSize overrides the default 10,000-entry decode cache.
func WithDecodeCacheSize(size int) Option {
	return func(s *Sieve) {
		cache, err := decode.NewCache(size)
		if err != nil {
			return
		}
		s.evaluator.Store = cache
	}
}

// WithMetrics attaches a Prometheus metrics handle; every connected
// chain's ingestion and dedup, every decode cache hit/miss, and every
// correlation window from then on reports through it.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sieve) {
		s.gateway.WithMetrics(m)
		s.metrics = m
		if cache, ok := s.evaluator.Store.(*decode.Cache); ok {
			cache.WithMetrics(m)
		}
	}
}

// New builds a Sieve. Call Connect before Subscribe or WatchWithin.
func New(log zerolog.Logger, opts ...Option) *Sieve {
	cache, err := decode.NewCache(decode.DefaultSize)
	if err != nil {
		// decode.DefaultSize is a positive constant; NewCache only fails on
		// a non-positive size, so this is unreachable in practice.
		cache = nil
	}
	s := &Sieve{
		gateway:   ingest.NewGateway(log),
		evaluator: engine.New(cache, decode.EthDecoder{}),
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect brings up ingestion for every chain config with a non-empty
// RPCURL; configs with an empty RPCURL are skipped, not errored.
func (s *Sieve) Connect(ctx context.Context, configs []chain.Config) error {
	return s.gateway.Connect(ctx, configs)
}

// ActiveChains lists the chains currently ingesting.
func (s *Sieve) ActiveChains() []chain.Chain {
	return s.gateway.ActiveChains()
}

// IsActive reports whether c is currently connected.
func (s *Sieve) IsActive(c chain.Chain) bool {
	return s.gateway.IsActive(c)
}

// Disconnect tears down a single chain's ingestion.
func (s *Sieve) Disconnect(c chain.Chain) error {
	return s.gateway.StopChain(c)
}

// Close tears down every connected chain.
func (s *Sieve) Close() error {
	return s.gateway.StopAll()
}

// Subscribe evaluates f against every event on its chain and streams the
// matches until ctx is canceled. The returned channel is closed when ctx
// is done or the underlying chain subscription ends.
func (s *Sieve) Subscribe(ctx context.Context, f filter.Filter) (<-chan Match, error) {
	sub, err := s.gateway.Subscribe(f.Chain)
	if err != nil {
		return nil, err
	}

	out := make(chan Match, 256)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events:
				if !ok {
					return
				}
				matched, err := s.evaluator.Evaluate(f, ev)
				if err != nil {
					s.log.Error().Err(err).Uint64("filter_id", f.ID).Msg("filter evaluation failed")
					continue
				}
				if !matched {
					continue
				}
				if s.metrics != nil {
					s.metrics.FilterMatches.WithLabelValues(f.Chain.String()).Inc()
				}
				select {
				case out <- Match{FilterID: f.ID, Chain: f.Chain, Event: ev}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// WatchWithin correlates matches across filters (possibly spanning
// different chains), reporting a WindowResult each time every filter has
// matched within bound of the window's first match, or timing out a
// window whose slots never completed.
func (s *Sieve) WatchWithin(ctx context.Context, filters []filter.Filter, bound time.Duration) (<-chan correlation.WindowResult, error) {
	return correlation.WatchWithin(ctx, s.gateway, s.evaluator, filters, bound, s.log, s.metrics)
}
