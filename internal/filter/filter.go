package filter

import (
	"sync/atomic"

	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

// filterSeq is a process-wide monotonic counter handed out to every built
// Filter. It gives correlation windows a deterministic, allocation-free
// ordering key independent of wall-clock time.
var filterSeq atomic.Uint64

func nextFilterID() uint64 {
	return filterSeq.Add(1)
}

// Filter is a normalized, priority-ordered predicate tree bound to a chain
// and (optionally) a single event kind.
type Filter struct {
	ID        uint64
	Chain     chain.Chain
	EventKind *event.Kind // nil matches any kind the tree's leaves accept
	Root      FilterNode
}

// newFilter wraps a built FilterNode as a Filter, assigning it the next
// filter ID and running Prepare over the tree.
func newFilter(c chain.Chain, kind *event.Kind, root FilterNode) Filter {
	return Filter{
		ID:        nextFilterID(),
		Chain:     c,
		EventKind: kind,
		Root:      Prepare(root),
	}
}
