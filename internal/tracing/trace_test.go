package tracing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchEvidenceAggregates(t *testing.T) {
	s := New()
	base := time.Now()
	s.RecordSearch(SearchTrace{RequestTS: base, ResponseTS: base.Add(100 * time.Millisecond), ResultsCount: 3, Bytes: 100})
	s.RecordSearch(SearchTrace{RequestTS: base, ResponseTS: base.Add(200 * time.Millisecond), ResultsCount: 0, Bytes: 50})

	report := s.SearchEvidence()
	assert.Equal(t, 2, report.TotalSearches)
	assert.Equal(t, 0.5, report.SuccessRate)
	assert.Equal(t, 150, report.TotalBytes)
}

func TestEvaluationEvidenceAggregates(t *testing.T) {
	s := New()
	base := time.Now()
	s.RecordEvaluation(EvaluationTrace{Start: base, End: base.Add(10 * time.Millisecond), Passed: true, TokensUsed: 100})
	s.RecordEvaluation(EvaluationTrace{Start: base, End: base.Add(20 * time.Millisecond), Passed: false, TokensUsed: 50})

	report := s.EvaluationEvidence()
	assert.Equal(t, 2, report.TotalEvaluations)
	assert.Equal(t, 0.5, report.PassRate)
	assert.Equal(t, 75.0, report.TokensPerEval)
}

func TestEmptyStoreReportsZeroValue(t *testing.T) {
	s := New()
	assert.Equal(t, SearchEvidenceReport{}, s.SearchEvidence())
	assert.Equal(t, EvaluationEvidenceReport{}, s.EvaluationEvidence())
}
