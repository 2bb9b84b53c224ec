package deepagent

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smhanov/deepagent/internal/events"
)

// LogLevel mirrors the level vocabulary a Session's logs carry (spec.md 6).
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one persisted log line: spec.md 6's
// logs[{timestamp, level, message}].
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// PersonaStats is the per-persona aggregate in the persistence format's
// personas{name -> stats} map.
type PersonaStats struct {
	Invocations int `json:"invocations"`
	Failures    int `json:"failures"`
}

// Timing bundles the coarse timing breakdown spec.md 6 names.
type Timing struct {
	TotalMS  int64 `json:"total_ms"`
	SearchMS int64 `json:"search_ms"`
	ReadMS   int64 `json:"read_ms"`
	LLMMS    int64 `json:"llm_ms"`
}

// Stats bundles the run's headline counters.
type Stats struct {
	Steps      int `json:"steps"`
	URLsFound  int `json:"urls_found"`
	TokensUsed int `json:"tokens_used"`
}

// BatchTask records one task fanned out under a parallel batch, grounded on
// events.KindBatchTask (spec.md 6's all_tasks[]).
type BatchTask struct {
	BatchID string `json:"batch_id"`
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
}

// ParallelBatch groups the tasks fanned out between one BatchStart/BatchEnd
// pair (spec.md 6's parallel_batches[]).
type ParallelBatch struct {
	BatchID string      `json:"batch_id"`
	Tasks   []BatchTask `json:"tasks"`
}

// Session is the persistence-format record for one agent run (spec.md 6).
type Session struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	References  []string   `json:"references"`
	VisitedURLs []string   `json:"visited_urls"`
	Logs        []LogEntry `json:"logs"`

	Personas map[string]PersonaStats `json:"personas"`
	Timing   Timing                  `json:"timing"`
	Stats    Stats                   `json:"stats"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	ParallelBatches []ParallelBatch `json:"parallel_batches"`
	AllTasks        []BatchTask     `json:"all_tasks"`
}

// Recorder subscribes to an Agent's event bus for the lifetime of one Run
// call and assembles a Session from the events it observes there; Finish
// then adds the agent's persona traces and the run's step, URL and token
// counts, read from the agent itself.
// Construct with NewRecorder before calling Agent.Run, then call Finish
// after Run returns.
type Recorder struct {
	agent *Agent
	ch    <-chan events.Event
	done  chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	session Session
	batches map[string]*ParallelBatch
}

// NewRecorder starts recording agent's event stream immediately. Callers
// must construct the Recorder before calling agent.Run, so no early events
// are missed.
func NewRecorder(agent *Agent, question string) *Recorder {
	r := &Recorder{
		agent:   agent,
		ch:      agent.Events(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		batches: make(map[string]*ParallelBatch),
		session: Session{
			ID:        uuid.NewString(),
			StartedAt: time.Now(),
			Question:  question,
			Personas:  make(map[string]PersonaStats),
		},
	}
	go r.loop()
	return r
}

func (r *Recorder) loop() {
	defer close(r.stopped)
	for {
		select {
		case e, ok := <-r.ch:
			if !ok {
				return
			}
			r.observe(e)
		case <-r.done:
			r.drain()
			return
		}
	}
}

// drain empties whatever is already buffered on the channel without
// blocking, so events emitted just before Run returned are not lost.
func (r *Recorder) drain() {
	for {
		select {
		case e := <-r.ch:
			r.observe(e)
		default:
			return
		}
	}
}

func (r *Recorder) observe(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	switch e.Kind {
	case events.KindInfo:
		r.session.Logs = append(r.session.Logs, LogEntry{Timestamp: now, Level: LogInfo, Message: e.Message})
	case events.KindSuccess:
		r.session.Logs = append(r.session.Logs, LogEntry{Timestamp: now, Level: LogInfo, Message: e.Message})
	case events.KindWarning:
		r.session.Logs = append(r.session.Logs, LogEntry{Timestamp: now, Level: LogWarning, Message: e.Message})
	case events.KindError:
		r.session.Logs = append(r.session.Logs, LogEntry{Timestamp: now, Level: LogError, Message: e.Message})
	case events.KindVisitedURL:
		r.session.VisitedURLs = append(r.session.VisitedURLs, e.URL)
	case events.KindBatchStart:
		r.batches[e.BatchID] = &ParallelBatch{BatchID: e.BatchID}
	case events.KindBatchTask:
		task := BatchTask{BatchID: e.BatchID, Index: e.BatchTaskIdx, Kind: e.ActionName}
		if b, ok := r.batches[e.BatchID]; ok {
			b.Tasks = append(b.Tasks, task)
		}
		r.session.AllTasks = append(r.session.AllTasks, task)
	}
}

// Finish stops the recorder, folds in the terminal AgentState and the
// agent's tracing/budget stores, and returns the completed Session.
func (r *Recorder) Finish(state AgentState) Session {
	close(r.done)
	<-r.stopped

	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.FinishedAt = time.Now()
	r.session.Timing.TotalMS = r.session.FinishedAt.Sub(r.session.StartedAt).Milliseconds()
	for _, t := range r.agent.Trace().Searches() {
		r.session.Timing.SearchMS += t.Latency().Milliseconds()
	}
	for _, t := range r.agent.Trace().Reads() {
		r.session.Timing.ReadMS += t.Latency().Milliseconds()
	}
	for _, t := range r.agent.Trace().Evaluations() {
		r.session.Timing.LLMMS += t.Latency().Milliseconds()
	}
	for _, m := range r.agent.Trace().Personas() {
		st := r.session.Personas[m.PersonaName]
		st.Invocations++
		if m.Failed {
			st.Failures++
		}
		r.session.Personas[m.PersonaName] = st
	}

	r.session.Stats = Stats{
		Steps:      r.agent.ac.TotalStep(),
		URLsFound:  r.agent.ac.Store.Count(),
		TokensUsed: r.agent.ac.Budget.TotalTokens(),
	}

	for id, b := range r.batches {
		_ = id
		r.session.ParallelBatches = append(r.session.ParallelBatches, *b)
	}

	switch state.Kind {
	case StateCompleted:
		r.session.Success = true
		r.session.Answer = state.Answer
		for _, ref := range state.References {
			r.session.References = append(r.session.References, formatReference(ref))
		}
	case StateFailed:
		r.session.Success = false
		r.session.Error = state.Reason
	}

	return r.session
}

func formatReference(ref Reference) string {
	title := ref.Title
	if title == "" {
		title = ref.Excerpt
	}
	return fmt.Sprintf("%s — %s", title, ref.SourceURL)
}

// MarshalJSON renders the Session in the persistence format spec.md 6
// fixes (a plain JSON object with the fields above).
func (s Session) MarshalJSON() ([]byte, error) {
	type alias Session // avoid infinite recursion through this method
	return json.Marshal(alias(s))
}

// RenderText renders the session as the human-readable text file spec.md 6
// requires alongside the JSON form, using section banners the way the
// teacher's own verbose-mode output separates phases with "---" lines.
func (s Session) RenderText() string {
	var b strings.Builder
	banner := func(title string) {
		fmt.Fprintf(&b, "\n=== %s ===\n", title)
	}

	banner("SESSION")
	fmt.Fprintf(&b, "id: %s\n", s.ID)
	fmt.Fprintf(&b, "started: %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "finished: %s\n", s.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "success: %v\n", s.Success)
	if s.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", s.Error)
	}

	banner("QUESTION")
	b.WriteString(s.Question + "\n")

	if s.Answer != "" {
		banner("ANSWER")
		b.WriteString(s.Answer + "\n")
	}

	if len(s.References) > 0 {
		banner("REFERENCES")
		for _, r := range s.References {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	banner("STATS")
	fmt.Fprintf(&b, "steps: %d\n", s.Stats.Steps)
	fmt.Fprintf(&b, "urls_found: %d\n", s.Stats.URLsFound)
	fmt.Fprintf(&b, "tokens_used: %d\n", s.Stats.TokensUsed)
	fmt.Fprintf(&b, "total_ms: %d search_ms: %d read_ms: %d llm_ms: %d\n",
		s.Timing.TotalMS, s.Timing.SearchMS, s.Timing.ReadMS, s.Timing.LLMMS)

	if len(s.Personas) > 0 {
		banner("PERSONAS")
		for name, st := range s.Personas {
			fmt.Fprintf(&b, "%s: invocations=%d failures=%d\n", name, st.Invocations, st.Failures)
		}
	}

	if len(s.VisitedURLs) > 0 {
		banner("VISITED URLS")
		for _, u := range s.VisitedURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	banner("LOGS")
	for _, l := range s.Logs {
		fmt.Fprintf(&b, "[%s] %s %s\n", l.Timestamp.Format(time.RFC3339), strings.ToUpper(string(l.Level)), l.Message)
	}

	return b.String()
}
