package evaluator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smhanov/deepagent/internal/domain"
)

var aspectConjunctions = regexp.MustCompile(`(?i)\b(and|as well as|,\s*and|also)\b`)

// Completeness requires coverage of at least 80% of the aspects a
// multi-part question decomposes into (spec.md 4.7).
type Completeness struct{}

func (Completeness) Type() domain.EvaluationType { return domain.EvalCompleteness }

func (Completeness) Applicable(question string, ctx EvaluationContext) bool {
	return len(extractAspects(question)) > 1
}

// extractAspects splits a question on conjunctions that multiply aspects,
// e.g. "What is X and how does Y work" -> ["What is X", "how does Y work"].
func extractAspects(question string) []string {
	parts := aspectConjunctions.Split(question, -1)
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); len(t) > 3 {
			out = append(out, t)
		}
	}
	return out
}

func (Completeness) Prompt(question, answer string) (string, string) {
	system := "You judge whether an answer addresses every aspect a multi-part question raises."
	user := "Question: " + question + "\nAnswer: " + answer
	return system, user
}

func (c Completeness) Evaluate(ctx context.Context, question, answer string, ectx EvaluationContext, judge LLMJudge) domain.EvaluationResult {
	aspects := extractAspects(question)
	if len(aspects) <= 1 {
		return domain.EvaluationResult{EvalType: domain.EvalCompleteness, Passed: true, Confidence: 1.0}
	}

	lowerAnswer := strings.ToLower(answer)
	covered := 0
	for _, aspect := range aspects {
		words := strings.Fields(strings.ToLower(aspect))
		hits := 0
		for _, w := range words {
			if len(w) > 3 && strings.Contains(lowerAnswer, w) {
				hits++
			}
		}
		if len(words) > 0 && float64(hits)/float64(len(words)) >= 0.3 {
			covered++
		}
	}
	ratio := float64(covered) / float64(len(aspects))
	if ratio >= 0.8 {
		return domain.EvaluationResult{EvalType: domain.EvalCompleteness, Passed: true, Confidence: ratio}
	}
	return domain.EvaluationResult{
		EvalType:    domain.EvalCompleteness,
		Passed:      false,
		Confidence:  ratio,
		Reasoning:   fmt.Sprintf("answer covers %d/%d question aspects", covered, len(aspects)),
		Suggestions: []string{"address the remaining aspects of the question explicitly"},
	}
}
