package evaluator

import (
	"context"
	"regexp"

	"github.com/smhanov/deepagent/internal/domain"
)

var (
	recencyKeywordPattern = regexp.MustCompile(`(?i)\b(year|current|currently|latest|now|today)\b`)
	pluralityKeywordPattern = pluralityPattern
	completenessAspectMin   = 2
)

// RequiredEvaluationDeterminer computes determine_required_evaluations
// (spec.md 4.7): deterministic keyword-and-structure rules, with an
// optional cacheable LLM fallback for rule misses.
type RequiredEvaluationDeterminer struct {
	// Fallback is consulted only when the deterministic rules produce no
	// signal beyond the always-on Definitive/Strict pair. It is optional;
	// nil disables the fallback entirely (rule-only mode).
	Fallback func(ctx context.Context, question string) ([]domain.EvaluationType, error)
	cache    map[string][]domain.EvaluationType
}

// Determine returns the required evaluation types for question. isOriginal
// controls whether Strict is included (spec.md: "Definitive and Strict
// always on for the Original question").
func (d *RequiredEvaluationDeterminer) Determine(ctx context.Context, question string, isOriginal bool) []domain.EvaluationType {
	required := []domain.EvaluationType{domain.EvalDefinitive}
	if isOriginal {
		required = append(required, domain.EvalStrict)
	}

	ruleMatched := false
	if recencyKeywordPattern.MatchString(question) {
		required = append(required, domain.EvalFreshness)
		ruleMatched = true
	}
	if pluralityKeywordPattern.MatchString(question) {
		required = append(required, domain.EvalPlurality)
		ruleMatched = true
	}
	if len(extractAspects(question)) >= completenessAspectMin {
		required = append(required, domain.EvalCompleteness)
		ruleMatched = true
	}

	if !ruleMatched && d.Fallback != nil {
		if cached, ok := d.cachedLookup(question); ok {
			return dedupeTypes(append(required, cached...))
		}
		extra, err := d.Fallback(ctx, question)
		if err == nil && len(extra) > 0 {
			d.cacheStore(question, extra)
			required = append(required, extra...)
		}
	}

	return dedupeTypes(required)
}

func (d *RequiredEvaluationDeterminer) cachedLookup(question string) ([]domain.EvaluationType, bool) {
	if d.cache == nil {
		return nil, false
	}
	v, ok := d.cache[question]
	return v, ok
}

func (d *RequiredEvaluationDeterminer) cacheStore(question string, types []domain.EvaluationType) {
	if d.cache == nil {
		d.cache = make(map[string][]domain.EvaluationType)
	}
	d.cache[question] = types
}

func dedupeTypes(in []domain.EvaluationType) []domain.EvaluationType {
	seen := make(map[domain.EvaluationType]bool)
	var out []domain.EvaluationType
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
