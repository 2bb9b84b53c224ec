package deepagent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/smhanov/deepagent/internal/budget"
	"github.com/smhanov/deepagent/internal/dedup"
	"github.com/smhanov/deepagent/internal/events"
	"github.com/smhanov/deepagent/internal/evaluator"
	"github.com/smhanov/deepagent/internal/persona"
	"github.com/smhanov/deepagent/internal/tracing"
)

// Agent coordinates the persona orchestrator, dedup gate, evaluator
// pipeline, and search/read/sandbox adapters through the per-step
// procedure spec.md 4.9 defines, mirroring the shape of the teacher's own
// Agent (a small struct of collaborators plus a New constructor taking
// functional Options) generalized from laconic's fixed plan/synthesize/
// finalize loop to this engine's five-action state machine.
type Agent struct {
	opts *options

	ac    *AgentContext
	state AgentState

	registry     *persona.Registry
	orchestrator *persona.Orchestrator
	dedupGate    *dedup.Gate
	tracing      *tracing.Store
	required     *evaluator.RequiredEvaluationDeterminer
}

// New constructs an Agent for a single question. The Original question is
// immutable for the run's lifetime (spec.md 3).
func New(question string, opts ...Option) (*Agent, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.llm == nil {
		return nil, errors.New("deepagent: WithLLM is required")
	}

	personas := o.personas
	if personas == nil {
		personas = persona.BuildDefaultSet(o.clock, o.translator, o.targetLanguage)
	}
	registry, err := persona.NewRegistry(personas...)
	if err != nil {
		return nil, fmt.Errorf("deepagent: building persona registry: %w", err)
	}

	var embedder dedup.Embedder
	if o.embedder != nil {
		embedder = o.embedder
	}
	gate := dedup.New(embedder, o.config.DedupThreshold, func(reason string) {
		o.bus.Emit(events.Event{Kind: events.KindWarning, Message: "dedup degraded: " + reason})
	})

	original := Question{Text: question, Origin: OriginOriginal}
	topic := classifyTopic(question)
	ac := newAgentContext(original, o.config.TokenBudget, topic)
	ac.Budget.OnRecord(func(r budget.Record) {
		o.bus.Emit(events.Event{Kind: events.KindTokenUsage, TotalTokens: ac.Budget.TotalTokens()})
	})

	return &Agent{
		opts:         o,
		ac:           ac,
		state:        NewProcessing(original),
		registry:     registry,
		orchestrator: persona.NewOrchestrator(registry),
		dedupGate:    gate,
		tracing:      tracing.New(),
		required:     &evaluator.RequiredEvaluationDeterminer{},
	}, nil
}

// State returns the agent's current state.
func (a *Agent) State() AgentState { return a.state }

// Trace exposes the run's tracing store (C11) for evidence reporting.
func (a *Agent) Trace() *tracing.Store { return a.tracing }

// Events returns the read side of the run's progress/event bus (C10).
func (a *Agent) Events() <-chan events.Event { return a.opts.bus.Subscribe() }

// Run drives the agent state machine to a terminal state, honoring ctx
// cancellation as a global deadline (spec.md 5): on cancellation, in-flight
// work is abandoned and the run moves to BeastMode (if not already there)
// or Failed.
func (a *Agent) Run(ctx context.Context) (AgentState, error) {
	for !a.state.IsTerminal() {
		select {
		case <-ctx.Done():
			a.onDeadline()
			continue
		default:
		}

		var err error
		if a.state.IsBeastMode() {
			err = a.stepBeastMode(ctx)
		} else {
			err = a.stepProcessing(ctx)
		}
		if err != nil && (IsFatal(err) || IsPermanentExternal(err)) {
			a.state = AgentState{Kind: StateFailed, Reason: err.Error(), PartialKnowledge: a.ac.Store.Knowledge()}
			return a.state, err
		}
	}
	return a.state, nil
}

// onDeadline handles a canceled/expired run context per spec.md 5's
// cancellation clause.
func (a *Agent) onDeadline() {
	if a.state.IsBeastMode() {
		a.state = AgentState{Kind: StateFailed, Reason: "deadline exceeded in BeastMode", PartialKnowledge: a.ac.Store.Knowledge()}
		return
	}
	a.enterBeastMode()
}

func (a *Agent) enterBeastMode() {
	a.ac.resetStepCounter()
	a.state = AgentState{Kind: StateBeastMode, Attempts: 0}
	a.opts.bus.Emit(events.Event{Kind: events.KindWarning, Message: "entering BeastMode"})
}

// maybeEnterBeastMode implements spec.md 4.9 step 6: once budget_used
// crosses the threshold and no answer has been produced, the run moves to
// BeastMode regardless of what the current step's action was.
func (a *Agent) maybeEnterBeastMode() {
	if a.state.IsTerminal() {
		return
	}
	if a.ac.BudgetUsed() >= a.opts.config.BeastModeThreshold {
		a.enterBeastMode()
	}
}

func (a *Agent) recordLLMUsage(tool string, u Usage) {
	a.ac.Budget.Record(budget.Record{
		Tool:             tool,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	})
}

func (a *Agent) logger() *zap.Logger { return a.opts.logger }
