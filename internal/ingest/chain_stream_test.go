package ingest

import (
	"testing"
	"time"

	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

type fakeEvent struct {
	kind     event.Kind
	identity string
}

func (e fakeEvent) Kind() event.Kind  { return e.kind }
func (e fakeEvent) Identity() string { return e.identity }

func newTestStream(t *testing.T) *ChainStream {
	t.Helper()
	s, err := NewChainStream(chain.Ethereum)
	if err != nil {
		t.Fatalf("NewChainStream: %v", err)
	}
	return s
}

func TestChainStream_ProcessDropsDuplicateIdentity(t *testing.T) {
	s := newTestStream(t)
	ev := fakeEvent{kind: event.KindTransaction, identity: "0xabc"}

	if ok := s.Process(ev); !ok {
		t.Fatalf("expected the first occurrence of an identity to be processed")
	}
	if ok := s.Process(ev); ok {
		t.Fatalf("expected a repeated identity to be dropped as a duplicate")
	}
}

func TestChainStream_HasSeenWithoutRecording(t *testing.T) {
	s := newTestStream(t)
	ev := fakeEvent{kind: event.KindLog, identity: "0xdead"}

	if s.HasSeen(event.KindLog, "0xdead") {
		t.Fatalf("expected HasSeen to report false before the identity has been processed")
	}
	s.Process(ev)
	if !s.HasSeen(event.KindLog, "0xdead") {
		t.Fatalf("expected HasSeen to report true after the identity has been processed")
	}
}

func TestChainStream_BroadcastsToEverySubscriber(t *testing.T) {
	s := newTestStream(t)
	sub1 := s.Subscribe()
	sub2 := s.Subscribe()
	defer sub1.Close()
	defer sub2.Close()

	ev := fakeEvent{kind: event.KindTransaction, identity: "0x1"}
	s.Process(ev)

	for i, sub := range []Subscription{sub1, sub2} {
		select {
		case got := <-sub.Events:
			if got.Identity() != "0x1" {
				t.Fatalf("subscriber %d: expected identity 0x1, got %s", i, got.Identity())
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: expected to receive the broadcast event", i)
		}
	}
}

func TestChainStream_UnsubscribeClosesEventsChannel(t *testing.T) {
	s := newTestStream(t)
	sub := s.Subscribe()
	sub.Close()

	_, ok := <-sub.Events
	if ok {
		t.Fatalf("expected Events to be closed after unsubscribing")
	}
}

func TestChainStream_SlowSubscriberLagsWithoutBlockingOthers(t *testing.T) {
	s := newTestStream(t)
	slow := s.Subscribe()
	fast := s.Subscribe()
	defer slow.Close()
	defer fast.Close()

	// Fill the slow subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer+5; i++ {
		s.Process(fakeEvent{kind: event.KindTransaction, identity: itoaHex(i)})
	}

	select {
	case lagged := <-slow.Lagged:
		if lagged == 0 {
			t.Fatalf("expected a non-zero lag count once the slow subscriber's buffer overflowed")
		}
	default:
		t.Fatalf("expected a lag signal once the slow subscriber's buffer overflowed")
	}

	// Every Process call above returned even though neither subscriber was
	// drained during the loop; confirm the other subscriber still received
	// the events that fit in its buffer.
	drained := 0
	for {
		select {
		case <-fast.Events:
			drained++
		default:
			if drained == 0 {
				t.Fatalf("expected the fast subscriber to have received events")
			}
			return
		}
	}
}

func itoaHex(i int) string {
	const hex = "0123456789abcdef"
	if i == 0 {
		return "0x0"
	}
	out := []byte{'0', 'x'}
	var digits []byte
	for i > 0 {
		digits = append([]byte{hex[i%16]}, digits...)
		i /= 16
	}
	return string(append(out, digits...))
}
