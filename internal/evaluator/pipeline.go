package evaluator

import (
	"context"

	"github.com/smhanov/deepagent/internal/domain"
)

// Pipeline runs the ordered evaluator set with fail-fast semantics
// (spec.md 4.7's evaluate_sequential).
type Pipeline struct {
	evaluators map[domain.EvaluationType]Evaluator
}

// NewPipeline builds the pipeline from the five built-in evaluators. topic
// parametrizes the Freshness evaluator's threshold lookup.
func NewPipeline(topic domain.TopicCategory) *Pipeline {
	return &Pipeline{evaluators: map[domain.EvaluationType]Evaluator{
		domain.EvalDefinitive:   Definitive{},
		domain.EvalFreshness:    Freshness{Topic: topic},
		domain.EvalPlurality:    Plurality{},
		domain.EvalCompleteness: Completeness{},
		domain.EvalStrict:       Strict{},
	}}
}

// EvaluateSequential runs evaluators in domain.EvaluationOrder, skipping any
// not in requiredTypes, and returns on the first passed=false. It returns
// every result produced, in evaluation order, so the caller can tell which
// one (if any) failed and build the KnowledgeItem::Error variant.
func (p *Pipeline) EvaluateSequential(
	ctx context.Context,
	question, answer string,
	ectx EvaluationContext,
	judge LLMJudge,
	requiredTypes []domain.EvaluationType,
) []domain.EvaluationResult {
	required := make(map[domain.EvaluationType]bool, len(requiredTypes))
	for _, t := range requiredTypes {
		required[t] = true
	}

	var results []domain.EvaluationResult
	for _, t := range domain.EvaluationOrder {
		if !required[t] {
			continue
		}
		ev, ok := p.evaluators[t]
		if !ok {
			continue
		}
		if !ev.Applicable(question, ectx) {
			continue
		}
		result := ev.Evaluate(ctx, question, answer, ectx, judge)
		results = append(results, result)
		if !result.Passed {
			return results
		}
	}
	return results
}

// AllPassed reports whether every result in results passed (an empty slice
// counts as passed: nothing failed).
func AllPassed(results []domain.EvaluationResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// FirstFailure returns the first failing result, if any.
func FirstFailure(results []domain.EvaluationResult) (domain.EvaluationResult, bool) {
	for _, r := range results {
		if !r.Passed {
			return r, true
		}
	}
	return domain.EvaluationResult{}, false
}
