// Package events implements the progress/event bus (C10): a sink-agnostic,
// non-blocking channel of typed events for any observer (TUI, logger,
// tracer). Grounded on
// theRebelliousNerd-codenerd/internal/transparency/event_bus.go's
// GlassBoxEventBus (atomic enabled flag, sequence counter for total
// ordering, per-subscriber buffered channel), generalized to the event
// vocabulary spec.md 4.10 names and simplified: this bus has no batching
// window, since the spec asks only for non-blocking emission with
// essential-event priority, not batched delivery.
package events

import (
	"sync"
	"sync/atomic"
)

// Kind is the closed set of event kinds spec.md 4.10 names.
type Kind string

const (
	KindInfo         Kind = "info"
	KindSuccess      Kind = "success"
	KindWarning      Kind = "warning"
	KindError        Kind = "error"
	KindStepChanged  Kind = "step_changed"
	KindActionChosen Kind = "action_chosen"
	KindThink        Kind = "think"
	KindURLCounts    Kind = "url_counts"
	KindTokenUsage   Kind = "token_usage"
	KindPersonaStats Kind = "persona_stats"
	KindVisitedURL   Kind = "visited_url"
	KindBatchStart   Kind = "batch_start"
	KindBatchTask    Kind = "batch_task"
	KindBatchEnd     Kind = "batch_end"
)

// essential events take priority under backpressure: when a subscriber's
// buffer is full, an essential event evicts the oldest buffered event
// instead of being dropped (see Emit). The evicted event may itself be
// essential.
var essential = map[Kind]bool{
	KindError:   true,
	KindSuccess: true, // "Complete" in spec prose maps to Success here
}

// Event is one bus message. Sequence gives total order across all
// subscribers even when events of different kinds interleave.
type Event struct {
	Sequence uint64
	Kind     Kind
	Message  string

	Step         int
	ActionName   string
	TotalURLs    int
	VisitedURLs  int
	TotalTokens  int
	PersonaName  string
	URL          string
	BatchID      string
	BatchTaskIdx int
}

// subscriberBuffer is the depth of each subscriber's channel. Events beyond
// this depth never block the emitting goroutine: a non-essential event is
// dropped and an essential one evicts the oldest buffered event (see Emit).
const subscriberBuffer = 256

type subscriber struct {
	ch chan Event
}

// Bus is a per-session value (spec.md 9: never a process-wide singleton).
// Construct one per Agent run.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	enabled     atomic.Bool
	sequence    atomic.Uint64
}

// New creates an enabled bus.
func New() *Bus {
	b := &Bus{}
	b.enabled.Store(true)
	return b
}

// Enable/Disable toggle emission; while disabled, Emit is a no-op.
func (b *Bus) Enable()  { b.enabled.Store(true) }
func (b *Bus) Disable() { b.enabled.Store(false) }
func (b *Bus) IsEnabled() bool { return b.enabled.Load() }

// Subscribe returns a receive-only channel of events. The channel is
// buffered; a slow subscriber causes future non-essential events to be
// dropped for it rather than blocking the producer.
func (b *Bus) Subscribe() <-chan Event {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()
	return sub.ch
}

// Emit publishes an event to every subscriber. Never blocks: if a
// subscriber's buffer is full, the event is dropped for that subscriber
// unless its kind is essential, in which case the oldest buffered event,
// whatever its kind, is evicted to make room, preserving relative order of
// what remains. If another Emit fills the freed slot first, the essential
// event is dropped.
func (b *Bus) Emit(e Event) {
	if !b.enabled.Load() {
		return
	}
	e.Sequence = b.sequence.Add(1)

	b.mu.RLock()
	subs := append([]*subscriber(nil), b.subscribers...)
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.ch <- e:
		default:
			if essential[e.Kind] {
				b.forceDeliver(s, e)
			}
			// non-essential: drop silently under backpressure
		}
	}
}

// forceDeliver drops the oldest buffered event (never reordering what
// remains) to make room for an essential one.
func (b *Bus) forceDeliver(s *subscriber, e Event) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- e:
	default:
	}
}
