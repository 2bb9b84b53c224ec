package deepagent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smhanov/deepagent/internal/evaluator"
)

// llmJudgeAdapter satisfies evaluator.LLMJudge by asking the LLM contract's
// GenerateStructured for a JSON verdict object and parsing it, since
// LLMProvider (spec.md 6) declares only a raw string return for structured
// calls, leaving the schema to the caller.
type llmJudgeAdapter struct {
	llm    LLMProvider
	record func(tool string, u Usage)
}

type verdictJSON struct {
	Passed      bool     `json:"passed"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions"`
}

func (a llmJudgeAdapter) Judge(ctx context.Context, system, user string) (evaluator.Verdict, error) {
	raw, usage, err := a.llm.GenerateStructured(ctx, system, user)
	if a.record != nil {
		a.record("evaluator.judge", usage)
	}
	if err != nil {
		return evaluator.Verdict{}, err
	}

	var parsed verdictJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return evaluator.Verdict{}, NewStepError(KindContractViolation, "evaluator.judge", fmt.Errorf("verdict schema mismatch: %w", err))
	}
	return evaluator.Verdict{
		Passed:      parsed.Passed,
		Confidence:  parsed.Confidence,
		Reasoning:   parsed.Reasoning,
		Suggestions: parsed.Suggestions,
	}, nil
}
