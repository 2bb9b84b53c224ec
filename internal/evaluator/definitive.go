package evaluator

import (
	"context"
	"strings"

	"github.com/smhanov/deepagent/internal/domain"
)

var hedgingMarkers = []string{
	"i'm not sure", "i am not sure", "it depends", "might be", "could be",
	"possibly", "perhaps", "i don't know", "i do not know", "unclear",
	"hard to say", "not certain",
}

// Definitive fails an answer that hedges without confidence, or that an LLM
// judges non-committal. Always applicable (spec.md 4.7).
type Definitive struct{}

func (Definitive) Type() domain.EvaluationType { return domain.EvalDefinitive }

func (Definitive) Applicable(string, EvaluationContext) bool { return true }

func (Definitive) Prompt(question, answer string) (string, string) {
	system := "You judge whether an answer commits to a definitive claim rather than hedging. " +
		"Respond with whether the answer is definitive, a confidence in [0,1], and your reasoning."
	user := "Question: " + question + "\nAnswer: " + answer
	return system, user
}

func (d Definitive) Evaluate(ctx context.Context, question, answer string, ectx EvaluationContext, judge LLMJudge) domain.EvaluationResult {
	cfg := DefaultConfig(domain.EvalDefinitive)

	if strings.TrimSpace(answer) == "" {
		return domain.EvaluationResult{
			EvalType:    domain.EvalDefinitive,
			Passed:      false,
			Confidence:  0,
			Reasoning:   "answer is empty",
			Suggestions: []string{"produce a non-empty, direct answer"},
		}
	}

	lower := strings.ToLower(answer)
	hedgeCount := 0
	for _, m := range hedgingMarkers {
		if strings.Contains(lower, m) {
			hedgeCount++
		}
	}
	if hedgeCount == 0 {
		// No lexical hedging: still allow the LLM to catch non-committal
		// phrasing the marker list misses.
	}

	if judge == nil {
		passed := hedgeCount == 0
		conf := 1.0
		if !passed {
			conf = 0.4
		}
		suggestions := []string{}
		if !passed {
			suggestions = append(suggestions, "state a direct, committed answer instead of hedging")
		}
		return domain.EvaluationResult{EvalType: domain.EvalDefinitive, Passed: passed, Confidence: conf, Suggestions: suggestions}
	}

	system, user := d.Prompt(question, answer)
	result := timedJudge(ctx, cfg, domain.EvalDefinitive, judge, system, user)
	if hedgeCount > 0 && result.Confidence < 0.7 {
		result.Passed = false
		if len(result.Suggestions) == 0 {
			result.Suggestions = []string{"state a direct, committed answer instead of hedging"}
		}
	}
	return result
}
