// Package correlation implements sieve's cross-filter join: watching N
// filters (possibly across chains) and reporting when all N have matched
// within a bound, in the order the filters were declared.
package correlation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rawblock/sieve/internal/engine"
	"github.com/rawblock/sieve/internal/filter"
	"github.com/rawblock/sieve/internal/ingest"
	"github.com/rawblock/sieve/internal/metrics"
	"github.com/rawblock/sieve/pkg/event"
)

// WindowResult is what a correlation emits: a completed join (Matched,
// Events populated in filter-declaration order) or a timeout (Matched
// false, Events nil, partial state discarded).
type WindowResult struct {
	ID      string
	Matched bool
	Events  []event.Event
}

type window struct {
	id        string
	slots     []event.Event
	filled    []bool
	startedAt time.Time
	timer     *time.Timer
}

func newWindow(n int, bound time.Duration, onTimeout func(id string)) *window {
	id := uuid.NewString()
	w := &window{
		id:        id,
		slots:     make([]event.Event, n),
		filled:    make([]bool, n),
		startedAt: time.Now(),
	}
	w.timer = time.AfterFunc(bound, func() { onTimeout(id) })
	return w
}

func (w *window) allFilled() bool {
	for _, f := range w.filled {
		if !f {
			return false
		}
	}
	return true
}

// correlator assigns incoming per-filter matches to windows under the
// earliest-start-wins rule: a match for filter i joins the oldest open
// window still missing slot i; if every open window already has slot i
// filled (a duplicate match for that filter), a fresh window opens instead
// of overwriting one. Windows complete once all N slots fill, or time out
// after bound with whatever partial state they held discarded.
type correlator struct {
	n     int
	bound time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	ordered []*window // oldest first
	out     chan WindowResult

	metrics *metrics.Metrics // nil is fine; every use is nil-checked
}

func newCorrelator(n int, bound time.Duration, log zerolog.Logger) *correlator {
	return &correlator{
		n:     n,
		bound: bound,
		log:   log,
		out:   make(chan WindowResult, 64),
	}
}

func (c *correlator) onMatch(idx int, ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var target *window
	for _, w := range c.ordered {
		if !w.filled[idx] {
			target = w
			break
		}
	}
	if target == nil {
		target = newWindow(c.n, c.bound, c.onTimeout)
		c.ordered = append(c.ordered, target)
		if c.metrics != nil {
			c.metrics.WindowsOpened.Inc()
		}
	}

	target.slots[idx] = ev
	target.filled[idx] = true
	if target.allFilled() {
		c.remove(target.id)
		target.timer.Stop()
		if c.metrics != nil {
			c.metrics.WindowsMatched.Inc()
		}
		c.emit(WindowResult{ID: target.id, Matched: true, Events: target.slots})
	}
}

func (c *correlator) onTimeout(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.remove(id) {
		return // already completed before the timer fired
	}
	if c.metrics != nil {
		c.metrics.WindowsTimedOut.Inc()
	}
	c.emit(WindowResult{ID: id, Matched: false})
}

// remove deletes the window with id from ordered and reports whether it
// was present. Must be called with mu held.
func (c *correlator) remove(id string) bool {
	for i, w := range c.ordered {
		if w.id == id {
			c.ordered = append(c.ordered[:i], c.ordered[i+1:]...)
			return true
		}
	}
	return false
}

func (c *correlator) emit(r WindowResult) {
	select {
	case c.out <- r:
	default:
		c.log.Warn().Str("window_id", r.ID).Msg("correlation result dropped: consumer too slow")
	}
}

// WatchWithin subscribes to each filter's chain stream and reports a
// WindowResult every time all len(filters) filters match within bound of
// each other, or a filter's slot times out unfilled. It runs until ctx is
// canceled.
func WatchWithin(ctx context.Context, gateway *ingest.Gateway, evaluator *engine.Evaluator, filters []filter.Filter, bound time.Duration, log zerolog.Logger, m *metrics.Metrics) (<-chan WindowResult, error) {
	subs := make([]ingest.Subscription, len(filters))
	for i, f := range filters {
		sub, err := gateway.Subscribe(f.Chain)
		if err != nil {
			for j := 0; j < i; j++ {
				subs[j].Close()
			}
			return nil, err
		}
		subs[i] = sub
	}

	c := newCorrelator(len(filters), bound, log)
	c.metrics = m

	for i, f := range filters {
		i, f := i, f
		go func() {
			defer subs[i].Close()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-subs[i].Events:
					if !ok {
						return
					}
					matched, err := evaluator.Evaluate(f, ev)
					if err != nil {
						log.Error().Err(err).Uint64("filter_id", f.ID).Msg("correlation filter evaluation failed")
						continue
					}
					if matched {
						c.onMatch(i, ev)
					}
				}
			}
		}()
	}

	go func() {
		<-ctx.Done()
		close(c.out)
	}()

	return c.out, nil
}
