package persona

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/smhanov/deepagent/internal/domain"
)

// Orchestrator runs the registered personas against one or more input
// queries using a work-stealing CPU pool sized to the machine, per spec.md
// 5's requirement that persona expansion needs true multi-core parallelism,
// not a single cooperative goroutine. golang.org/x/sync/semaphore bounds
// concurrency the same way kalambet-tbyd's embedder bounds its I/O fan-out
// with errgroup.SetLimit, but here the semaphore gates CPU work
// specifically so it stays a separate stratum from the I/O errgroup pools
// used in internal/adapters.
type Orchestrator struct {
	registry *Registry
	sem      *semaphore.Weighted
}

// NewOrchestrator builds an orchestrator over registry, sized to
// GOMAXPROCS goroutines of concurrent persona work.
func NewOrchestrator(registry *Registry) *Orchestrator {
	n := int64(runtime.GOMAXPROCS(0))
	if n < 1 {
		n = 1
	}
	return &Orchestrator{registry: registry, sem: semaphore.NewWeighted(n)}
}

// ExecutionMetric records one persona invocation, grounded on
// original_source's PersonaExecutionMetrics.
type ExecutionMetric struct {
	PersonaName string
	Input       string
	OutputQuery domain.SerpQuery
	Err         error
}

// ExpandParallel runs every applicable, registered persona against q
// concurrently and returns the resulting WeightedQuery set plus one
// ExecutionMetric per attempted persona (including failures). Order of the
// returned queries is registration order, not completion order, so callers
// see a deterministic sequence even though the work itself ran in
// parallel.
func (o *Orchestrator) ExpandParallel(ctx context.Context, q string, ectx ExpansionContext) ([]domain.WeightedQuery, []ExecutionMetric) {
	personas := o.registry.Active()
	results := make([]*domain.WeightedQuery, len(personas))
	metrics := make([]ExecutionMetric, len(personas))

	var wg sync.WaitGroup
	for i, p := range personas {
		if !p.IsApplicable(ectx) {
			metrics[i] = ExecutionMetric{PersonaName: p.Name(), Input: q}
			continue
		}
		wg.Add(1)
		go func(i int, p Persona) {
			defer wg.Done()
			if err := o.sem.Acquire(ctx, 1); err != nil {
				metrics[i] = ExecutionMetric{PersonaName: p.Name(), Input: q, Err: err}
				return
			}
			defer o.sem.Release(1)

			query, err := p.Expand(ectx)
			metrics[i] = ExecutionMetric{PersonaName: p.Name(), Input: q, OutputQuery: query, Err: err}
			if err != nil {
				return
			}
			results[i] = &domain.WeightedQuery{Query: query, Weight: p.Weight(), SourcePersona: p.Name()}
		}(i, p)
	}
	wg.Wait()

	out := make([]domain.WeightedQuery, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return dedupeSameNormalizedQuery(out, o.registry), metrics
}

// ExpandBatch parallelizes ExpandParallel across every input query as well,
// matching spec.md 4.4's expand_batch.
func (o *Orchestrator) ExpandBatch(ctx context.Context, qs []string, ectx ExpansionContext) ([]domain.WeightedQuery, []ExecutionMetric) {
	type batchResult struct {
		queries []domain.WeightedQuery
		metrics []ExecutionMetric
	}
	results := make([]batchResult, len(qs))
	var wg sync.WaitGroup
	for i, q := range qs {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			localCtx := ectx
			localCtx.Question = q
			queries, metrics := o.ExpandParallel(ctx, q, localCtx)
			results[i] = batchResult{queries: queries, metrics: metrics}
		}(i, q)
	}
	wg.Wait()

	var allQueries []domain.WeightedQuery
	var allMetrics []ExecutionMetric
	for _, r := range results {
		allQueries = append(allQueries, r.queries...)
		allMetrics = append(allMetrics, r.metrics...)
	}
	return allQueries, allMetrics
}

// dedupeSameNormalizedQuery implements spec.md 4.9's tie-break: when
// multiple personas produce the same normalized query string, keep the
// instance with the highest weight, breaking ties by registration order.
func dedupeSameNormalizedQuery(in []domain.WeightedQuery, registry *Registry) []domain.WeightedQuery {
	best := make(map[string]domain.WeightedQuery)
	order := make([]string, 0, len(in))
	for _, wq := range in {
		key := domain.NormalizedText(wq.Query.Q)
		cur, exists := best[key]
		if !exists {
			best[key] = wq
			order = append(order, key)
			continue
		}
		if wq.Weight > cur.Weight {
			best[key] = wq
		} else if wq.Weight == cur.Weight {
			if registry.RegistrationRank(wq.SourcePersona) < registry.RegistrationRank(cur.SourcePersona) {
				best[key] = wq
			}
		}
	}
	out := make([]domain.WeightedQuery, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
