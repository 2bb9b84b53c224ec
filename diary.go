package deepagent

import (
	"fmt"
	"strings"
	"time"
)

// DiaryEntryKind tags one diary entry by the action that produced it.
type DiaryEntryKind string

const (
	DiarySearch  DiaryEntryKind = "search"
	DiaryRead    DiaryEntryKind = "read"
	DiaryReflect DiaryEntryKind = "reflect"
	DiaryAnswer  DiaryEntryKind = "answer"
	DiaryCoding  DiaryEntryKind = "coding"
	DiaryError   DiaryEntryKind = "error"
)

// DiaryEntry is one line of the ordered event log the prompt builder reads
// (spec.md 3's "diary (ordered event log for prompt)"). Entries are
// appended after an action's side-effects on the store are visible
// (spec.md 5's ordering guarantee), never before.
type DiaryEntry struct {
	Step      int
	Kind      DiaryEntryKind
	Summary   string
	Timestamp time.Time
}

// Diary is an append-only, insertion-ordered log. It is not safe for
// concurrent writers by design: entries are appended only from the single
// sequential agent loop, never from parallel sub-tasks (spec.md 5).
type Diary struct {
	entries []DiaryEntry
}

func newDiary() *Diary { return &Diary{} }

func (d *Diary) append(step int, kind DiaryEntryKind, summary string) {
	d.entries = append(d.entries, DiaryEntry{Step: step, Kind: kind, Summary: summary, Timestamp: time.Now()})
}

// Entries returns a copy of the diary in insertion order.
func (d *Diary) Entries() []DiaryEntry {
	out := make([]DiaryEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// FormatForPrompt renders the diary into a stable block for prompt
// inclusion, mirroring internal/knowledge.Store.FormatForPrompt's shape.
func (d *Diary) FormatForPrompt() string {
	if len(d.entries) == 0 {
		return "(no actions taken yet)"
	}
	var b strings.Builder
	for _, e := range d.entries {
		fmt.Fprintf(&b, "step %d [%s]: %s\n", e.Step, e.Kind, e.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}
