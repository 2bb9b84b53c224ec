// Package budget implements the token budget tracker (C2): a thread-safe
// accumulator of per-tool usage records that exposes running totals and the
// fraction of the budget consumed. Grounded on
// theRebelliousNerd-codenerd/internal/usage/usage_tracker.go's
// mutex-guarded accumulate/read pattern, without that tracker's disk
// persistence — spec.md 4.2 asks only for an in-memory, thread-safe ledger,
// and spec.md 9 requires the tracker to be a per-session value, never a
// package-level global.
package budget

import "sync"

// Record is one per-tool usage report.
type Record struct {
	Tool             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Breakdown is the per-tool aggregate exposed by Snapshot.
type Breakdown struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Listener is notified once per recorded usage event, mirroring spec.md
// 4.2's "emits an event on every record." The tracker itself does not know
// about the event bus type; the agent wires a closure that forwards to it.
type Listener func(Record)

// Tracker accumulates usage across a single run. It is not safe to share
// across independent runs; construct one per session.
type Tracker struct {
	mu        sync.Mutex
	budget    int
	byTool    map[string]*Breakdown
	total     Record
	listeners []Listener
}

// New creates a Tracker against the given total token budget.
func New(tokenBudget int) *Tracker {
	return &Tracker{
		budget: tokenBudget,
		byTool: make(map[string]*Breakdown),
	}
}

// OnRecord registers a listener invoked synchronously after each Record
// call, in the order records arrive. Panics inside the listener are not
// recovered; callers wanting isolation should recover in their own closure.
func (t *Tracker) OnRecord(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Record appends a usage record. Safe for concurrent use; each call is
// serialized, and readers of Snapshot/FractionUsed always see a consistent
// view (never a partially-applied record).
func (t *Tracker) Record(r Record) {
	t.mu.Lock()
	b, ok := t.byTool[r.Tool]
	if !ok {
		b = &Breakdown{}
		t.byTool[r.Tool] = b
	}
	b.Calls++
	b.PromptTokens += r.PromptTokens
	b.CompletionTokens += r.CompletionTokens
	b.TotalTokens += r.TotalTokens

	t.total.PromptTokens += r.PromptTokens
	t.total.CompletionTokens += r.CompletionTokens
	t.total.TotalTokens += r.TotalTokens

	listeners := append([]Listener(nil), t.listeners...)
	t.mu.Unlock()

	for _, l := range listeners {
		l(r)
	}
}

// TotalTokens returns the running total across all tools. Monotonic
// non-decreasing for the lifetime of the tracker.
func (t *Tracker) TotalTokens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total.TotalTokens
}

// FractionUsed returns TotalTokens / budget, or 1.0 if the budget is
// non-positive (treat as immediately exhausted rather than dividing by
// zero).
func (t *Tracker) FractionUsed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.budget <= 0 {
		return 1.0
	}
	return float64(t.total.TotalTokens) / float64(t.budget)
}

// Snapshot returns a copy of the per-tool breakdown. Mutating the returned
// map does not affect the tracker.
func (t *Tracker) Snapshot() map[string]Breakdown {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Breakdown, len(t.byTool))
	for k, v := range t.byTool {
		out[k] = *v
	}
	return out
}
