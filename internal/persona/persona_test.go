package persona

import (
	"context"
	"testing"
	"time"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestBuiltinPersonasValidate(t *testing.T) {
	clock := fixedClock(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
	set := BuildDefaultSet(clock, Identity, "fr")
	require.Len(t, set, 7)

	reg, err := NewRegistry(set...)
	require.NoError(t, err)
	assert.Len(t, reg.Active(), 7)
}

func TestPersonaExpansionIsDeterministic(t *testing.T) {
	clock := fixedClock(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
	p := NewHistoricalResearcher(clock)
	ctx := ExpansionContext{Question: "quantum computing breakthroughs"}

	q1, err1 := p.Expand(ctx)
	q2, err2 := p.Expand(ctx)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, q1, q2)
	assert.Equal(t, "qdr:y", q1.TBS)
}

func TestGlobalizerUsesIdentityByDefault(t *testing.T) {
	p := NewGlobalizer(nil, "fr")
	q, err := p.Expand(ExpansionContext{Question: "hello world", Topic: "finance"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", q.Q)
	assert.Equal(t, "us", q.Location)
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	reg, err := NewRegistry(NewExpertSkeptic())
	require.NoError(t, err)
	err = reg.Register(NewExpertSkeptic())
	assert.Error(t, err)
}

func TestRegistryRejectsShortFocus(t *testing.T) {
	reg := &Registry{byName: make(map[string]Persona)}
	bad := simplePersona{name: "Bad", focus: "short", weight: 1.0, expandFunc: func(ExpansionContext) (domain.SerpQuery, error) {
		return domain.SerpQuery{}, nil
	}}
	err := reg.Register(bad)
	assert.Error(t, err)
}

func TestRegistryRejectsOutOfRangeWeight(t *testing.T) {
	reg := &Registry{byName: make(map[string]Persona)}
	bad := simplePersona{name: "Bad", focus: "a sufficiently long focus string", weight: 3.0, expandFunc: func(ExpansionContext) (domain.SerpQuery, error) {
		return domain.SerpQuery{}, nil
	}}
	err := reg.Register(bad)
	assert.Error(t, err)
}

func TestOrchestratorExpandParallelRunsAllApplicablePersonas(t *testing.T) {
	clock := fixedClock(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
	reg, err := NewRegistry(BuildDefaultSet(clock, Identity, "fr")...)
	require.NoError(t, err)
	orch := NewOrchestrator(reg)

	queries, metrics := orch.ExpandParallel(context.Background(), "who invented the transistor", ExpansionContext{Question: "who invented the transistor"})
	assert.LessOrEqual(t, len(queries), 7)
	assert.Len(t, metrics, 7)
	for _, m := range metrics {
		assert.NoError(t, m.Err)
	}
}

func TestOrchestratorExpandBatch(t *testing.T) {
	clock := fixedClock(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
	reg, err := NewRegistry(BuildDefaultSet(clock, Identity, "fr")...)
	require.NoError(t, err)
	orch := NewOrchestrator(reg)

	queries, _ := orch.ExpandBatch(context.Background(), []string{"a question", "another question"}, ExpansionContext{})
	assert.NotEmpty(t, queries)
}
