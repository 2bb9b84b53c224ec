package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitiveRejectsEmptyAnswerWithZeroConfidence(t *testing.T) {
	d := Definitive{}
	result := d.Evaluate(context.Background(), "What is 2+2?", "", EvaluationContext{}, nil)
	assert.False(t, result.Passed)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestPluralityFailsWithSuggestionCountOne(t *testing.T) {
	p := Plurality{}
	answer := "1. Postgres\n2. MySQL\n3. SQLite\n4. MariaDB"
	result := p.Evaluate(context.Background(), "List 5 open-source BSD-licensed databases.", answer, EvaluationContext{}, nil)
	require.False(t, result.Passed)
	assert.Len(t, result.Suggestions, 1)
}

func TestPluralityPassesWhenCountMet(t *testing.T) {
	p := Plurality{}
	answer := "1. A\n2. B\n3. C\n4. D\n5. E"
	result := p.Evaluate(context.Background(), "List 5 things.", answer, EvaluationContext{}, nil)
	assert.True(t, result.Passed)
}

func TestFreshnessThresholdsMatchSpec(t *testing.T) {
	assert.Equal(t, 2*time.Hour, FreshnessThreshold(domain.TopicFinance))
	assert.Equal(t, 24*time.Hour, FreshnessThreshold(domain.TopicNews))
	assert.Equal(t, 30*24*time.Hour, FreshnessThreshold(domain.TopicTechnology))
	assert.Equal(t, 365*24*time.Hour, FreshnessThreshold(domain.TopicScience))
	assert.Equal(t, 7*24*time.Hour, FreshnessThreshold(domain.TopicOther))
}

func TestStrictOnlyAppliesToOriginal(t *testing.T) {
	s := Strict{}
	assert.True(t, s.Applicable("q", EvaluationContext{IsOriginal: true}))
	assert.False(t, s.Applicable("q", EvaluationContext{IsOriginal: false}))
}

func TestPipelineFailFastStopsAtFirstFailure(t *testing.T) {
	pipeline := NewPipeline(domain.TopicOther)
	results := pipeline.EvaluateSequential(
		context.Background(),
		"List 5 things.",
		"", // empty answer: Definitive fails immediately
		EvaluationContext{IsOriginal: true},
		nil,
		[]domain.EvaluationType{domain.EvalDefinitive, domain.EvalPlurality, domain.EvalStrict},
	)
	require.Len(t, results, 1)
	assert.Equal(t, domain.EvalDefinitive, results[0].EvalType)
	assert.False(t, AllPassed(results))
}

func TestDetermineRequiredEvaluationsAlwaysIncludesDefinitive(t *testing.T) {
	det := &RequiredEvaluationDeterminer{}
	types := det.Determine(context.Background(), "What is the capital of France?", false)
	assert.Contains(t, types, domain.EvalDefinitive)
	assert.NotContains(t, types, domain.EvalStrict)
}

func TestDetermineRequiredEvaluationsStrictOnlyForOriginal(t *testing.T) {
	det := &RequiredEvaluationDeterminer{}
	types := det.Determine(context.Background(), "What is the capital of France?", true)
	assert.Contains(t, types, domain.EvalStrict)
}

func TestDetermineRequiredEvaluationsDetectsPlurality(t *testing.T) {
	det := &RequiredEvaluationDeterminer{}
	types := det.Determine(context.Background(), "List 5 open-source databases", false)
	assert.Contains(t, types, domain.EvalPlurality)
}

func TestDetermineRequiredEvaluationsDetectsFreshness(t *testing.T) {
	det := &RequiredEvaluationDeterminer{}
	types := det.Determine(context.Background(), "What is the current price of gold?", false)
	assert.Contains(t, types, domain.EvalFreshness)
}
