package deepagent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/smhanov/deepagent/internal/evaluator"
	"github.com/smhanov/deepagent/internal/events"
	"github.com/smhanov/deepagent/internal/knowledge"
	"github.com/smhanov/deepagent/internal/persona"
)

// ioFanoutLimit bounds concurrent search/read calls per step, the same way
// kalambet-tbyd's embedder.go bounds its errgroup fan-out with SetLimit
// rather than letting one step spawn an unbounded number of outbound
// requests.
const ioFanoutLimit = 4

// executeSearch implements spec.md 4.9's Search action: expand_batch (C4)
// -> dedup (C5) -> parallel search calls (C6); append new URLs (C3) and
// snippets as SideInfo knowledge; append a Search diary entry.
func (a *Agent) executeSearch(ctx context.Context, current Question, action Action) {
	ac := a.ac
	queries := action.Queries
	if len(queries) == 0 {
		queries = []string{current.Text}
	}

	ectx := persona.ExpansionContext{Question: current.Text, Topic: ac.Topic}
	weighted, metrics := a.orchestrator.ExpandBatch(ctx, queries, ectx)
	for _, m := range metrics {
		a.tracing.RecordPersona(personaMetricFrom(m))
	}

	candidates := make([]SerpQuery, len(weighted))
	weightOf := make(map[SerpQuery]float64, len(weighted))
	for i, wq := range weighted {
		candidates[i] = wq.Query
		if w, ok := weightOf[wq.Query]; !ok || wq.Weight > w {
			weightOf[wq.Query] = wq.Weight
		}
	}
	a.dedupGate.SeedExecuted(ctx, ac.ExecutedQueries())
	accepted := a.dedupGate.Filter(ctx, candidates)

	if a.opts.search == nil {
		ac.Diary.append(ac.TotalStep(), DiarySearch, "no search provider configured")
		return
	}

	type outcome struct {
		query  SerpQuery
		result SearchResult
		err    error
	}
	outcomes := make([]outcome, len(accepted))

	batchID := ""
	if len(accepted) > 0 {
		batchID = uuid.NewString()
		a.opts.bus.Emit(events.Event{Kind: events.KindBatchStart, BatchID: batchID, ActionName: "search"})
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ioFanoutLimit)
	for i, q := range accepted {
		i, q := i, q
		g.Go(func() error {
			start := time.Now()
			res, err := a.opts.search.Search(gctx, q)
			a.tracing.RecordSearch(traceSearch(q, res, start, time.Now(), err))
			outcomes[i] = outcome{query: q, result: res, err: err}
			a.opts.bus.Emit(events.Event{Kind: events.KindBatchTask, BatchID: batchID, BatchTaskIdx: i, ActionName: "search"})
			return nil
		})
	}
	_ = g.Wait() // per-query errors are captured in outcomes, not propagated
	if len(accepted) > 0 {
		a.opts.bus.Emit(events.Event{Kind: events.KindBatchEnd, BatchID: batchID, ActionName: "search"})
	}

	var candidateURLs []string
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		for _, snippet := range o.result.Snippets {
			candidateURLs = append(candidateURLs, snippet.URL)
		}
	}
	rankBoost := rerankBoost(ctx, a.opts.rerank, current.Text, candidateURLs)

	newURLs := 0
	for _, o := range outcomes {
		ac.recordExecutedQuery(o.query)
		if o.err != nil {
			a.logger().Warn("search call failed", zap.String("query", o.query.Q), zap.Error(o.err))
			continue
		}
		for _, snippet := range o.result.Snippets {
			score := searchResultScore(o.query, snippet) * weightOf[o.query] * rankBoost[snippet.URL]
			canonical, inserted, err := ac.Store.AddURL(snippet.URL, score, ac.TotalStep())
			if err != nil {
				continue
			}
			if inserted {
				newURLs++
			}
			ac.Store.AppendKnowledge(domain.KnowledgeItem{
				Type:       KnowledgeSideInfo,
				Question:   current.Text,
				Answer:     snippet.Title + ": " + snippet.Excerpt,
				SourceURL:  canonical,
				InsertedAt: time.Now(),
			})
		}
	}

	a.opts.bus.Emit(events.Event{Kind: events.KindURLCounts, TotalURLs: ac.Store.Count()})
	ac.Diary.append(ac.TotalStep(), DiarySearch, fmt.Sprintf("ran %d quer(ies), found %d new URLs", len(accepted), newURLs))
}

// searchResultScore computes the per-snippet part of URLRecord.Score per
// spec.md 3 (the product of persona weight x frequency x hostname-boost x
// path-boost x optional rerank). Frequency is not tracked at this call site
// (it needs cross-call aggregation the store already performs via AddURL's
// "keep max score" merge), so it stays at 1.0, and the hostname/path boost
// is a single 1.1 multiplier for snippets that carry an excerpt. The caller
// multiplies in the persona weight of the query that found the snippet and
// the optional rerank factor from rerankBoost, since reranking operates over
// the whole step's candidate URL set rather than one snippet at a time.
func searchResultScore(q SerpQuery, snippet SearchSnippet) float64 {
	score := 1.0
	if snippet.Excerpt != "" {
		score *= 1.1 // hostname/path boost stand-in: prefer results with excerpts
	}
	return score
}

// rerankBoost asks the optional RerankProvider (spec.md 4.6) to order this
// step's candidate URLs by relevance to question, then converts rank
// position into a score multiplier: of n ranked URLs the first gets 1.5 and
// each later position a linearly smaller boost, down to 1+0.5/n for the
// last; candidates the reranker leaves out keep 1.0. Returns a map
// defaulting to 1.0 for every candidate,
// including when rerank is nil or fails, so callers can look up any URL
// unconditionally.
func rerankBoost(ctx context.Context, rerank RerankProvider, question string, candidateURLs []string) map[string]float64 {
	boost := make(map[string]float64, len(candidateURLs))
	for _, u := range candidateURLs {
		boost[u] = 1.0
	}
	if rerank == nil || len(candidateURLs) == 0 {
		return boost
	}

	ordered, err := rerank.Rerank(ctx, question, candidateURLs)
	if err != nil {
		return boost
	}

	n := len(ordered)
	for i, u := range ordered {
		if _, ok := boost[u]; !ok {
			continue // rerank must not invent URLs outside the candidate set
		}
		boost[u] = 1.0 + 0.5*float64(n-i)/float64(n)
	}
	return boost
}

// executeRead implements spec.md 4.9's Read action.
func (a *Agent) executeRead(ctx context.Context, action Action) {
	ac := a.ac
	cfg := a.opts.config

	targets := action.URLs
	if len(targets) == 0 {
		for _, r := range ac.Store.TopNUnvisited(cfg.MaxURLsPerStep) {
			targets = append(targets, r.URL)
		}
	}
	if len(targets) > cfg.MaxURLsPerStep {
		targets = targets[:cfg.MaxURLsPerStep]
	}

	if a.opts.reader == nil || len(targets) == 0 {
		ac.Diary.append(ac.TotalStep(), DiaryRead, "no readable URLs")
		return
	}

	type outcome struct {
		url    string
		result ReadResult
		err    error
	}
	outcomes := make([]outcome, len(targets))

	batchID := uuid.NewString()
	a.opts.bus.Emit(events.Event{Kind: events.KindBatchStart, BatchID: batchID, ActionName: "read"})
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ioFanoutLimit)
	for i, u := range targets {
		i, u := i, u
		g.Go(func() error {
			start := time.Now()
			res, err := a.opts.reader.Read(gctx, u)
			a.tracing.RecordRead(traceRead(u, res, start, time.Now(), err))
			outcomes[i] = outcome{url: u, result: res, err: err}
			a.opts.bus.Emit(events.Event{Kind: events.KindBatchTask, BatchID: batchID, BatchTaskIdx: i, ActionName: "read"})
			return nil
		})
	}
	_ = g.Wait()
	a.opts.bus.Emit(events.Event{Kind: events.KindBatchEnd, BatchID: batchID, ActionName: "read"})

	visited := 0
	for _, o := range outcomes {
		canonical, err := knowledge.Canonicalize(o.url)
		if err != nil {
			continue
		}
		if o.err != nil {
			a.logger().Warn("read call failed", zap.String("url", o.url), zap.Error(o.err))
			continue
		}
		if ac.Store.MarkVisited(canonical) {
			visited++
			a.opts.bus.Emit(events.Event{Kind: events.KindVisitedURL, URL: canonical})
		}
		ac.Store.AppendKnowledge(domain.KnowledgeItem{
			Type:       KnowledgeSideInfo,
			Answer:     o.result.Text,
			SourceURL:  canonical,
			InsertedAt: time.Now(),
		})
	}

	a.opts.bus.Emit(events.Event{Kind: events.KindURLCounts, TotalURLs: ac.Store.Count(), VisitedURLs: visited})
	ac.Diary.append(ac.TotalStep(), DiaryRead, fmt.Sprintf("read %d URL(s)", len(targets)))
}

// executeReflect implements spec.md 4.9's Reflect action: append gap
// questions to the queue, capped per step. A reflection whose new questions
// all fail dedup against existing questions is a no-op and is logged.
func (a *Agent) executeReflect(action Action) {
	ac := a.ac
	existing := make(map[string]bool)
	existing[domain.NormalizedText(ac.Original.Text)] = true
	for _, q := range ac.queue {
		existing[domain.NormalizedText(q.Text)] = true
	}

	var fresh []string
	for _, q := range action.GapQuestions {
		if !existing[domain.NormalizedText(q)] {
			fresh = append(fresh, q)
			existing[domain.NormalizedText(q)] = true
		}
	}

	if len(fresh) == 0 {
		ac.Diary.append(ac.TotalStep(), DiaryReflect, "reflection produced no novel gap questions (no-op)")
		return
	}

	added := ac.enqueueGapQuestions(fresh, a.opts.config.MaxReflectPerStep)
	ac.Diary.append(ac.TotalStep(), DiaryReflect, fmt.Sprintf("added %d gap question(s)", added))
}

// executeAnswer implements spec.md 4.9's Answer action.
func (a *Agent) executeAnswer(ctx context.Context, current Question, action Action) {
	ac := a.ac

	if ac.TotalStep() == 1 && a.opts.config.AllowDirectAnswer {
		a.completeWith(action, true)
		return
	}

	results := a.evaluateAnswer(ctx, current, action.AnswerText)
	if allPassedOrEmpty(results) {
		a.completeWith(action, false)
		return
	}

	failure, _ := evaluator.FirstFailure(results)
	ac.Store.AppendKnowledge(domain.KnowledgeItem{
		Type:            KnowledgeError,
		Question:        current.Text,
		AttemptedAnswer: action.AnswerText,
		EvalTypeFailed:  failure.EvalType,
		Reason:          failure.Reasoning,
		Suggestions:     failure.Suggestions,
		InsertedAt:      time.Now(),
	})
	ac.Diary.append(ac.TotalStep(), DiaryAnswer, fmt.Sprintf("answer rejected by %s evaluator", failure.EvalType))
}

// evaluateAnswer runs the evaluator pipeline (C7) with the required
// evaluation types for question, per spec.md 4.7/4.9.
func (a *Agent) evaluateAnswer(ctx context.Context, question Question, answer string) []domain.EvaluationResult {
	ac := a.ac
	isOriginal := question.Origin == OriginOriginal
	required := a.required.Determine(ctx, question.Text, isOriginal)

	ectx := evaluator.EvaluationContext{
		Knowledge:  ac.Store.Knowledge(),
		IsOriginal: isOriginal,
		Now:        time.Now(),
	}

	var judge evaluator.LLMJudge
	if a.opts.llm != nil {
		judge = llmJudgeAdapter{llm: a.opts.llm, record: a.recordLLMUsage}
	}

	pipeline := evaluator.NewPipeline(ac.Topic)
	results := pipeline.EvaluateSequential(ctx, question.Text, answer, ectx, judge, required)
	for _, r := range results {
		a.tracing.RecordEvaluation(traceEvaluation(question.Text, r))
	}
	return results
}

func allPassedOrEmpty(results []domain.EvaluationResult) bool {
	return evaluator.AllPassed(results)
}

// completeWith transitions the run to Completed, deriving references from
// the answer text against visited-URL knowledge (spec.md 4.3's
// extract_references) when the action did not already supply them.
func (a *Agent) completeWith(action Action, trivial bool) {
	ac := a.ac
	refs := action.AnswerRefs
	if len(refs) == 0 {
		refs = knowledge.ExtractReferences(action.AnswerText, ac.Store.Knowledge(), func(url string) bool {
			r, ok := ac.Store.Get(url)
			return ok && r.Visited
		})
	}
	a.state = AgentState{Kind: StateCompleted, Answer: action.AnswerText, References: refs, Trivial: trivial}
	ac.Diary.append(ac.TotalStep(), DiaryAnswer, "answer accepted")
	a.opts.bus.Emit(events.Event{Kind: events.KindSuccess, Message: "run completed"})
}

// executeCoding implements spec.md 4.9's Coding action: delegate to the
// sandbox contract, treat output as SideInfo knowledge.
func (a *Agent) executeCoding(ctx context.Context, action Action) {
	ac := a.ac
	if a.opts.sandbox == nil {
		ac.Diary.append(ac.TotalStep(), DiaryCoding, "no sandbox configured")
		return
	}
	result, err := a.opts.sandbox.Execute(ctx, action.Code)
	if err != nil {
		a.logger().Warn("sandbox execution failed", zap.Error(err))
		ac.Diary.append(ac.TotalStep(), DiaryCoding, "sandbox execution failed: "+err.Error())
		return
	}
	ac.Store.AppendKnowledge(domain.KnowledgeItem{
		Type:       KnowledgeSideInfo,
		Answer:     fmt.Sprintf("exit=%d stdout=%s stderr=%s", result.ExitCode, result.Stdout, result.Stderr),
		InsertedAt: time.Now(),
	})
	ac.Diary.append(ac.TotalStep(), DiaryCoding, fmt.Sprintf("code executed, exit=%d", result.ExitCode))
}
