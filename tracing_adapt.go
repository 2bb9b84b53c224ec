package deepagent

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/smhanov/deepagent/internal/persona"
	"github.com/smhanov/deepagent/internal/tracing"
)

// personaMetricFrom converts a persona.ExecutionMetric into the plain
// tracing.PersonaMetric shape (internal/tracing intentionally does not
// import internal/persona, see its doc comment). ExecutionMetric carries no
// timestamps, so Start and End are both set to the time of this conversion.
func personaMetricFrom(m persona.ExecutionMetric) tracing.PersonaMetric {
	now := time.Now()
	return tracing.PersonaMetric{
		PersonaName: m.PersonaName,
		Start:       now,
		End:         now,
		Input:       m.Input,
		OutputQuery: m.OutputQuery.Q,
		Failed:      m.Err != nil,
	}
}

func traceSearch(q SerpQuery, res SearchResult, start, end time.Time, err error) tracing.SearchTrace {
	t := tracing.SearchTrace{
		TraceID:   uuid.NewString(),
		Origin:    "agent",
		Query:     q.Q,
		API:       "search",
		RequestTS: start,
		ResponseTS: end,
	}
	if err == nil {
		t.ResultsCount = len(res.Snippets)
		for _, s := range res.Snippets {
			t.Bytes += len(s.Excerpt)
		}
		t.URLsExtracted = len(res.Snippets)
	}
	return t
}

func traceRead(url string, res ReadResult, start, end time.Time, err error) tracing.ReadTrace {
	t := tracing.ReadTrace{
		URL:        url,
		RequestTS:  start,
		ResponseTS: end,
		Failed:     err != nil,
	}
	if err == nil {
		t.BytesRead = res.BytesRead
	}
	return t
}

func traceEvaluation(question string, r domain.EvaluationResult) tracing.EvaluationTrace {
	sum := sha256.Sum256([]byte(question))
	end := time.Now()
	return tracing.EvaluationTrace{
		TraceID:      uuid.NewString(),
		EvalType:     r.EvalType,
		Question:     question,
		AnswerHash:   hex.EncodeToString(sum[:8]),
		Start:        end.Add(-r.Duration),
		End:          end,
		Passed:       r.Passed,
		Confidence:   r.Confidence,
		ReasoningLen: len(r.Reasoning),
	}
}
