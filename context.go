package deepagent

import (
	"github.com/smhanov/deepagent/internal/budget"
	"github.com/smhanov/deepagent/internal/knowledge"
)

// AgentContext is the aggregate spec.md 3 names: it owns everything one run
// touches, exclusively — no other component retains a reference after the
// run completes. Sub-tasks spawned within a step receive snapshots or
// return values the loop merges back (spec.md 5); nothing here is handed
// out for direct concurrent mutation.
type AgentContext struct {
	Original Question

	queue []Question // FIFO; Original is re-enqueued so it stays reachable

	Store   *knowledge.Store
	Budget  *budget.Tracker
	Diary   *Diary

	Topic TopicCategory

	step               int
	totalStep          int
	gapQuestionsThisStep int

	executedQueries []SerpQuery
}

// newAgentContext constructs the context for one run.
func newAgentContext(original Question, tokenBudget int, topic TopicCategory) *AgentContext {
	ac := &AgentContext{
		Original: original,
		Store:    knowledge.New(),
		Budget:   budget.New(tokenBudget),
		Diary:    newDiary(),
		Topic:    topic,
	}
	ac.queue = append(ac.queue, original)
	return ac
}

// Step returns the current within-BeastMode-cycle step counter.
func (ac *AgentContext) Step() int { return ac.step }

// TotalStep returns the run's total step counter. It advances once per
// Processing step and is never reset; only Step is reset.
func (ac *AgentContext) TotalStep() int { return ac.totalStep }

// rotateQuestion pops the head of the FIFO queue, re-enqueues the Original
// question so it stays reachable (spec.md 4.9 step 1), and returns the
// question the step should work on.
func (ac *AgentContext) rotateQuestion() Question {
	if len(ac.queue) == 0 {
		ac.queue = append(ac.queue, ac.Original)
	}
	current := ac.queue[0]
	ac.queue = ac.queue[1:]
	if current.Origin == OriginOriginal {
		ac.queue = append(ac.queue, current)
	}
	ac.gapQuestionsThisStep = 0
	return current
}

// enqueueGapQuestions appends reflection questions to the queue, capped by
// maxPerStep. Returns how many were actually added, since callers must
// enforce spec.md 4.9's "capped per step" note.
func (ac *AgentContext) enqueueGapQuestions(questions []string, maxPerStep int) int {
	added := 0
	for _, q := range questions {
		if ac.gapQuestionsThisStep >= maxPerStep {
			break
		}
		ac.queue = append(ac.queue, Question{Text: q, Origin: OriginGapReflection})
		ac.gapQuestionsThisStep++
		added++
	}
	return added
}

// gapQuestionsAddedThisStep reports how many gap questions this step has
// already added, for the reflect permission check (spec.md 4.8).
func (ac *AgentContext) gapQuestionsAddedThisStep() int { return ac.gapQuestionsThisStep }

// advanceTotalStep increments the run's total step counter. Called once at
// the start of every Processing step, so TotalStep() == 1 during the whole
// first step, regardless of how that step ends.
func (ac *AgentContext) advanceTotalStep() { ac.totalStep++ }

// advanceStep increments the within-BeastMode-cycle step counter. Called
// only once a step has completed normally: spec.md 7 says a recoverable
// error advances total_step but not step.
func (ac *AgentContext) advanceStep() { ac.step++ }

// resetStepCounter zeroes the within-cycle step counter without touching
// totalStep, used on the Processing->BeastMode transition (spec.md 3: "step
// counter resets only on certain transitions").
func (ac *AgentContext) resetStepCounter() { ac.step = 0 }

// recordExecutedQuery tracks a query as executed this run, for dedup
// seeding of future batches (spec.md 4.5).
func (ac *AgentContext) recordExecutedQuery(q SerpQuery) {
	ac.executedQueries = append(ac.executedQueries, q)
}

// ExecutedQueries returns every query executed so far this run.
func (ac *AgentContext) ExecutedQueries() []SerpQuery {
	out := make([]SerpQuery, len(ac.executedQueries))
	copy(out, ac.executedQueries)
	return out
}

// BudgetUsed returns the fraction of the token budget consumed so far.
func (ac *AgentContext) BudgetUsed() float64 { return ac.Budget.FractionUsed() }
