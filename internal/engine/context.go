// Package engine evaluates a prepared filter.Filter against a single
// pkg/event.Event, pulling in ABI decodes through internal/decode at most
// once per (event, shape) pair.
package engine

import "github.com/rawblock/sieve/internal/decode"

// Evaluator binds a decode cache and decoder together for repeated
// Evaluate calls against a stream of events. It holds no per-event state,
// so one Evaluator can be shared across goroutines evaluating different
// events concurrently, as long as its Store is safe for concurrent use
// (decode.Cache is; decode.BatchCache is not and should be owned by a
// single evaluating goroutine per batch).
type Evaluator struct {
	Store   decode.Store
	Decoder decode.Decoder
}

// New builds an Evaluator from a decode store and decoder.
func New(store decode.Store, decoder decode.Decoder) *Evaluator {
	return &Evaluator{Store: store, Decoder: decoder}
}
