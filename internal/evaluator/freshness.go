package evaluator

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/smhanov/deepagent/internal/domain"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Freshness fails if dated information in the answer is older than a
// topic-derived threshold (spec.md 4.7, thresholds in evaluator.go).
type Freshness struct {
	Topic domain.TopicCategory
}

func (Freshness) Type() domain.EvaluationType { return domain.EvalFreshness }

func (Freshness) Applicable(question string, ctx EvaluationContext) bool {
	return mentionsRecency(question)
}

func mentionsRecency(question string) bool {
	lower := regexp.MustCompile(`(?i)\b(current|currently|latest|now|today|this year|recent)\b`)
	return lower.MatchString(question) || yearPattern.MatchString(question)
}

func (Freshness) Prompt(question, answer string) (string, string) {
	system := "You judge whether the dated information in an answer is stale relative to the current date."
	user := "Question: " + question + "\nAnswer: " + answer
	return system, user
}

func (f Freshness) Evaluate(ctx context.Context, question, answer string, ectx EvaluationContext, judge LLMJudge) domain.EvaluationResult {
	threshold := FreshnessThreshold(f.Topic)
	years := yearPattern.FindAllString(answer, -1)
	if len(years) == 0 {
		return domain.EvaluationResult{EvalType: domain.EvalFreshness, Passed: true, Confidence: 0.5, Reasoning: "no dated information detected"}
	}

	now := ectx.Now
	if now.IsZero() {
		now = time.Now()
	}

	oldestStale := false
	for _, y := range years {
		year, err := strconv.Atoi(y)
		if err != nil {
			continue
		}
		mentioned := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		if now.Sub(mentioned) > threshold {
			oldestStale = true
		}
	}
	if oldestStale {
		return domain.EvaluationResult{
			EvalType:    domain.EvalFreshness,
			Passed:      false,
			Confidence:  0.7,
			Reasoning:   "answer cites information older than the freshness threshold for this topic",
			Suggestions: []string{"search for more recent sources and update the answer"},
		}
	}
	return domain.EvaluationResult{EvalType: domain.EvalFreshness, Passed: true, Confidence: 0.8}
}
