// Package ingest owns one ChainStream per connected chain (dedup + fan-out
// to subscribers) and the gateway that starts, stops, and looks them up by
// chain.
package ingest

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rawblock/sieve/internal/metrics"
	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

// dedupCacheSize bounds the per-kind identity cache at 10,000 entries, the
// same bound the reference implementation uses for its block/tx LRUs.
const dedupCacheSize = 10_000

// subscriberBuffer is how many events a slow subscriber can fall behind by
// before ChainStream starts dropping events destined for it.
const subscriberBuffer = 256

type subscriber struct {
	ch      chan event.Event
	lag     chan uint64
	dropped uint64
}

// ChainStream deduplicates one chain's event stream by identity and
// broadcasts the surviving events to every current subscriber. A
// subscriber that falls behind does not block the others: events that no
// longer fit in its buffer are dropped for it and its running drop count is
// signalled on its Lagged channel, the Go analogue of tokio::sync::broadcast's
// lagged-receiver error.
type ChainStream struct {
	Chain chain.Chain

	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextID      int

	blockSeen *lru.Cache[string, struct{}]
	txSeen    *lru.Cache[string, struct{}]
	logSeen   *lru.Cache[string, struct{}]

	metrics *metrics.Metrics // nil is fine; every use is nil-checked
}

// NewChainStream builds a ChainStream for c with fresh dedup caches.
func NewChainStream(c chain.Chain) (*ChainStream, error) {
	blockSeen, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		return nil, err
	}
	txSeen, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		return nil, err
	}
	logSeen, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		return nil, err
	}
	return &ChainStream{
		Chain:       c,
		subscribers: make(map[int]*subscriber),
		blockSeen:   blockSeen,
		txSeen:      txSeen,
		logSeen:     logSeen,
	}, nil
}

// WithMetrics attaches a Metrics handle so dedup drops and subscriber lag
// get recorded; call it once right after NewChainStream.
func (s *ChainStream) WithMetrics(m *metrics.Metrics) *ChainStream {
	s.metrics = m
	return s
}

// Subscription is a live handle on a ChainStream's fan-out.
type Subscription struct {
	id     int
	stream *ChainStream
	Events <-chan event.Event
	Lagged <-chan uint64
}

// Close unregisters the subscription; the stream stops sending to it.
func (s Subscription) Close() {
	s.stream.unsubscribe(s.id)
}

// Subscribe registers a new listener on this chain's deduplicated stream.
func (s *ChainStream) Subscribe() Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	sub := &subscriber{
		ch:  make(chan event.Event, subscriberBuffer),
		lag: make(chan uint64, 1),
	}
	s.subscribers[id] = sub
	return Subscription{id: id, stream: s, Events: sub.ch, Lagged: sub.lag}
}

func (s *ChainStream) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subscribers[id]; ok {
		close(sub.ch)
		delete(s.subscribers, id)
	}
}

func (s *ChainStream) cacheFor(k event.Kind) *lru.Cache[string, struct{}] {
	switch k {
	case event.KindBlockHeader:
		return s.blockSeen
	case event.KindTransaction, event.KindPendingTransaction:
		return s.txSeen
	case event.KindLog:
		return s.logSeen
	default:
		return nil
	}
}

// HasSeen reports whether an identity has already passed through dedup for
// the given kind, without recording it.
func (s *ChainStream) HasSeen(k event.Kind, identity string) bool {
	cache := s.cacheFor(k)
	if cache == nil {
		return false
	}
	return cache.Contains(identity)
}

// Process runs dedup and, for events seen for the first time, broadcasts
// to every current subscriber. Returns false if ev was a duplicate.
func (s *ChainStream) Process(ev event.Event) bool {
	if s.metrics != nil {
		s.metrics.EventsIngested.WithLabelValues(s.Chain.String(), ev.Kind().String()).Inc()
	}

	cache := s.cacheFor(ev.Kind())
	if cache != nil {
		if cache.Contains(ev.Identity()) {
			if s.metrics != nil {
				s.metrics.DedupDropped.WithLabelValues(s.Chain.String(), ev.Kind().String()).Inc()
			}
			return false
		}
		cache.Add(ev.Identity(), struct{}{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
			if s.metrics != nil {
				s.metrics.SubscriberLag.WithLabelValues(s.Chain.String()).Inc()
			}
			select {
			case sub.lag <- sub.dropped:
			default:
			}
		}
	}
	return true
}
