package deepagent

import (
	"context"

	"go.uber.org/zap"

	"github.com/smhanov/deepagent/internal/events"
)

// stepProcessing runs one iteration of the Processing per-step procedure,
// spec.md 4.9 steps 1-6.
func (a *Agent) stepProcessing(ctx context.Context) error {
	ac := a.ac

	// TotalStep advances unconditionally up front, so "step 1"
	// (TotalStep() == 1) covers the whole first iteration, matching both
	// the direct-answer shortcut in executeAnswer and the step > 1
	// permission rule in computePermissions. The within-cycle step counter
	// (advanceStep, below) only advances once the step actually completes:
	// spec.md 7 says a recoverable error advances total_step but not step.
	ac.advanceTotalStep()

	current := ac.rotateQuestion()
	perms := computePermissions(ac, a.opts.config)

	a.opts.bus.Emit(events.Event{Kind: events.KindStepChanged, Step: ac.TotalStep()})

	prompt := buildStepPrompt(ac, current, perms)
	action, usage, err := a.opts.llm.DecideAction(ctx, prompt, perms)
	a.recordLLMUsage("llm.decide_action", usage)

	// spec.md 7: a contract violation (schema mismatch, or an action type
	// outside the allowed set) discards the step and gets one retry with a
	// stricter re-prompt. A second violation in the same step forces
	// BeastMode outright, regardless of budget_used.
	if isDecideViolation(action, perms, err) {
		reason := decideViolationReason(action, perms, err)
		ac.Diary.append(ac.TotalStep(), DiaryError, "contract violation ("+reason+"); retrying with a stricter prompt")
		a.opts.bus.Emit(events.Event{Kind: events.KindWarning, Message: "contract violation, retrying: " + reason})

		retryPrompt := buildStrictStepPrompt(ac, current, perms, reason)
		action, usage, err = a.opts.llm.DecideAction(ctx, retryPrompt, perms)
		a.recordLLMUsage("llm.decide_action_retry", usage)

		if isDecideViolation(action, perms, err) {
			ac.Diary.append(ac.TotalStep(), DiaryError, "second contract violation in step; forcing BeastMode")
			a.enterBeastMode()
			return nil
		}
	}

	if err != nil {
		a.logger().Warn("decide_action failed", zap.Error(err))
		ac.Diary.append(ac.TotalStep(), DiaryError, "decide_action failed: "+err.Error())
		a.maybeEnterBeastMode()
		return unwrapUnrecoverable(err)
	}

	a.opts.bus.Emit(events.Event{Kind: events.KindActionChosen, ActionName: string(action.Type)})

	switch action.Type {
	case ActionSearch:
		a.executeSearch(ctx, current, action)
	case ActionRead:
		a.executeRead(ctx, action)
	case ActionReflect:
		a.executeReflect(action)
	case ActionAnswer:
		a.executeAnswer(ctx, current, action)
	case ActionCoding:
		a.executeCoding(ctx, action)
	}

	if !a.state.IsTerminal() {
		ac.advanceStep()
		a.maybeEnterBeastMode()
	}
	return nil
}

// isDecideViolation reports whether a DecideAction outcome counts as a
// contract violation per spec.md 7: either the adapter itself reported a
// schema mismatch, or it chose an action type outside the allowed set.
func isDecideViolation(action Action, perms ActionPermissions, err error) bool {
	if err != nil {
		return IsContractViolation(err)
	}
	return !perms.IsAllowed(action.Type)
}

func decideViolationReason(action Action, perms ActionPermissions, err error) string {
	if err != nil {
		return err.Error()
	}
	return "disallowed action: " + string(action.Type)
}

// stepBeastMode runs one forced-answer attempt in BeastMode, per spec.md
// 4.9's BeastMode semantics: only Answer is allowed, attempts are capped.
func (a *Agent) stepBeastMode(ctx context.Context) error {
	ac := a.ac
	perms := BeastModePermissions()

	prompt := buildBeastModePrompt(ac)
	action, usage, err := a.opts.llm.DecideAction(ctx, beastModeSystemPrompt+"\n\n"+prompt, perms)
	a.recordLLMUsage("llm.beast_mode_answer", usage)
	if err != nil {
		return a.failBeastAttempt("beast mode decide_action failed: " + err.Error())
	}
	if action.Type != ActionAnswer {
		return a.failBeastAttempt("beast mode model did not answer")
	}

	results := a.evaluateAnswer(ctx, ac.Original, action.AnswerText)
	if allPassedOrEmpty(results) {
		a.completeWith(action, false)
		return nil
	}
	return a.failBeastAttempt("beast mode answer failed evaluation")
}

func (a *Agent) failBeastAttempt(reason string) error {
	attempts := a.state.Attempts + 1
	a.opts.bus.Emit(events.Event{Kind: events.KindWarning, Message: reason})
	if attempts >= a.opts.config.MaxBeastAttempts {
		a.state = AgentState{Kind: StateFailed, Reason: reason, PartialKnowledge: a.ac.Store.Knowledge()}
		return nil
	}
	a.state = AgentState{Kind: StateBeastMode, Attempts: attempts, LastFailure: reason}
	return nil
}

// unwrapUnrecoverable lets fatal and permanent-external errors propagate out
// of a step to Agent.Run, which aborts the run for either (spec.md 7);
// every other error kind is absorbed here and only recorded to the diary.
func unwrapUnrecoverable(err error) error {
	if IsFatal(err) || IsPermanentExternal(err) {
		return err
	}
	return nil
}
