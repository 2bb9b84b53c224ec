package evaluator

import (
	"context"
	"strings"

	"github.com/smhanov/deepagent/internal/domain"
)

// Strict is a bias-to-reject evaluator checking depth, specificity, and
// insight. It applies only to the Original question, never to
// gap-reflection questions (spec.md 4.7).
type Strict struct{}

func (Strict) Type() domain.EvaluationType { return domain.EvalStrict }

func (Strict) Applicable(question string, ctx EvaluationContext) bool {
	return ctx.IsOriginal
}

func (Strict) Prompt(question, answer string) (string, string) {
	system := "You are a harsh reviewer biased toward rejection. Judge depth, specificity, and " +
		"insight; a superficial or generic answer must fail even if factually correct."
	user := "Question: " + question + "\nAnswer: " + answer
	return system, user
}

func (s Strict) Evaluate(ctx context.Context, question, answer string, ectx EvaluationContext, judge LLMJudge) domain.EvaluationResult {
	cfg := DefaultConfig(domain.EvalStrict)

	if judge == nil {
		// Without an LLM judge, fall back to a length/specificity
		// heuristic biased toward rejection, matching the evaluator's
		// stated bias.
		words := len(strings.Fields(answer))
		if words < 20 {
			return domain.EvaluationResult{
				EvalType:    domain.EvalStrict,
				Passed:      false,
				Confidence:  0.6,
				Reasoning:   "answer is too short to demonstrate depth or specificity",
				Suggestions: []string{"expand the answer with specific detail and supporting evidence"},
			}
		}
		return domain.EvaluationResult{EvalType: domain.EvalStrict, Passed: true, Confidence: 0.55}
	}

	system, user := s.Prompt(question, answer)
	return timedJudge(ctx, cfg, domain.EvalStrict, judge, system, user)
}
