package budget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerAccumulates(t *testing.T) {
	tr := New(1000)
	tr.Record(Record{Tool: "search", PromptTokens: 10, CompletionTokens: 0, TotalTokens: 10})
	tr.Record(Record{Tool: "llm", PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150})

	assert.Equal(t, 160, tr.TotalTokens())
	assert.InDelta(t, 0.16, tr.FractionUsed(), 1e-9)

	snap := tr.Snapshot()
	assert.Equal(t, 1, snap["search"].Calls)
	assert.Equal(t, 150, snap["llm"].TotalTokens)
}

func TestTrackerFractionUsedZeroBudget(t *testing.T) {
	tr := New(0)
	assert.Equal(t, 1.0, tr.FractionUsed())
}

func TestTrackerEmitsListenerPerRecord(t *testing.T) {
	tr := New(100)
	var seen []string
	tr.OnRecord(func(r Record) { seen = append(seen, r.Tool) })

	tr.Record(Record{Tool: "search", TotalTokens: 1})
	tr.Record(Record{Tool: "read", TotalTokens: 1})

	assert.Equal(t, []string{"search", "read"}, seen)
}

func TestTrackerConcurrentRecordsAreConsistent(t *testing.T) {
	tr := New(100000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(Record{Tool: "search", TotalTokens: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, tr.TotalTokens())
}

func TestTrackerMonotonicNonDecreasing(t *testing.T) {
	tr := New(1000)
	prev := 0
	for i := 0; i < 10; i++ {
		tr.Record(Record{Tool: "x", TotalTokens: i})
		cur := tr.TotalTokens()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}
