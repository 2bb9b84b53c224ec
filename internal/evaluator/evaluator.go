// Package evaluator implements the multi-dimensional evaluator pipeline
// (C7): an ordered list of evaluators, each judging a candidate answer, run
// fail-fast so the first failure short-circuits the rest. Grounded on
// original_source/rust-implementation/src/evaluation/mod.rs's EvaluationType
// enum, per-type default_config, and freshness_threshold table, expressed in
// Go as tagged values rather than the Rust enum-with-methods shape.
package evaluator

import (
	"context"
	"time"

	"github.com/smhanov/deepagent/internal/domain"
)

// LLMJudge is the structured-output contract an evaluator consumes to ask
// the LLM contract (spec.md 6) for a judgment, replacing untyped dynamic
// responses (spec.md 9) with a declared shape.
type LLMJudge interface {
	// Judge asks the LLM the given system/user prompt pair and returns a
	// parsed verdict. Implementations must surface schema mismatches as a
	// typed error, never a panic.
	Judge(ctx context.Context, system, user string) (Verdict, error)
}

// Verdict is the structured judgment an LLMJudge returns.
type Verdict struct {
	Passed      bool
	Confidence  float64
	Reasoning   string
	Suggestions []string
}

// EvaluationContext is what an evaluator needs beyond the question/answer
// pair: the knowledge collected so far, and whether this question is the
// Original one (Strict never applies to gap-reflection questions).
type EvaluationContext struct {
	Knowledge      []domain.KnowledgeItem
	IsOriginal     bool
	Now            time.Time
}

// Evaluator is implemented by each of the five evaluation types.
type Evaluator interface {
	Type() domain.EvaluationType
	// Applicable reports whether this evaluator should run at all for the
	// given question/context (e.g. Strict is inapplicable to non-Original
	// questions).
	Applicable(question string, ctx EvaluationContext) bool
	Prompt(question, answer string) (system, user string)
	Evaluate(ctx context.Context, question, answer string, ectx EvaluationContext, judge LLMJudge) domain.EvaluationResult
}

// Config is the per-type {max_retries, timeout, weight} tuple from
// original_source's default_config().
type Config struct {
	MaxRetries int
	Timeout    time.Duration
	Weight     float64
}

// DefaultConfig returns the retry/timeout/weight tuple for t, grounded on
// original_source/evaluation/mod.rs's default_config().
func DefaultConfig(t domain.EvaluationType) Config {
	switch t {
	case domain.EvalDefinitive:
		return Config{MaxRetries: 2, Timeout: 30 * time.Second, Weight: 1.0}
	case domain.EvalFreshness:
		return Config{MaxRetries: 1, Timeout: 20 * time.Second, Weight: 0.8}
	case domain.EvalPlurality:
		return Config{MaxRetries: 1, Timeout: 15 * time.Second, Weight: 0.6}
	case domain.EvalCompleteness:
		return Config{MaxRetries: 2, Timeout: 25 * time.Second, Weight: 0.9}
	case domain.EvalStrict:
		return Config{MaxRetries: 3, Timeout: 45 * time.Second, Weight: 1.5}
	default:
		return Config{MaxRetries: 1, Timeout: 20 * time.Second, Weight: 1.0}
	}
}

// FreshnessThreshold returns the maximum staleness allowed for topic,
// grounded on original_source's freshness_threshold() table and matching
// spec.md 4.7 exactly: Finance 2h, News 1d, Technology 30d, Science 365d,
// History unbounded, default 7d.
func FreshnessThreshold(topic domain.TopicCategory) time.Duration {
	switch topic {
	case domain.TopicFinance:
		return 2 * time.Hour
	case domain.TopicNews:
		return 24 * time.Hour
	case domain.TopicTechnology:
		return 30 * 24 * time.Hour
	case domain.TopicScience:
		return 365 * 24 * time.Hour
	case domain.TopicHistory:
		return time.Duration(1<<63 - 1) // unbounded
	default:
		return 7 * 24 * time.Hour
	}
}

func newResult(t domain.EvaluationType, v Verdict, dur time.Duration) domain.EvaluationResult {
	return domain.EvaluationResult{
		EvalType:    t,
		Passed:      v.Passed,
		Confidence:  v.Confidence,
		Reasoning:   v.Reasoning,
		Suggestions: v.Suggestions,
		Duration:    dur,
	}
}

func timedJudge(ctx context.Context, cfg Config, t domain.EvaluationType, judge LLMJudge, system, user string) domain.EvaluationResult {
	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	v, err := judge.Judge(callCtx, system, user)
	dur := time.Since(start)
	if err != nil {
		return domain.EvaluationResult{
			EvalType:   t,
			Passed:     false,
			Confidence: 0,
			Reasoning:  "evaluator call failed: " + err.Error(),
			Duration:   dur,
		}
	}
	return newResult(t, v, dur)
}
