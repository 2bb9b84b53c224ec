// Package dedup implements the query dedup gate (C5): rejects candidate
// SerpQueries that are near-duplicates (by embedding cosine similarity) of
// already-executed or already-accepted queries, falling back to
// exact-string comparison if the embedding provider degrades. Grounded on
// spec.md 4.5 and the similarity kernel in internal/similarity.
package dedup

import (
	"context"
	"fmt"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/smhanov/deepagent/internal/similarity"
)

// Embedder is the minimal embedding contract this package consumes (spec.md
// 6's embedding contract): embed a batch of texts, preserving order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EventSink receives a degraded-mode notice when the embedding provider
// fails and the gate falls back to exact-string dedup.
type EventSink func(reason string)

// Gate holds the pool of embeddings for queries already executed or
// accepted this run. It caches within one AgentContext's lifetime only —
// never across sessions, per spec.md's non-goal on cross-session caching.
type Gate struct {
	embedder  Embedder
	threshold float32
	onDegrade EventSink

	acceptedEmbs [][]float32
	acceptedText map[string]bool
}

// New builds an empty Gate; SeedExecuted adds the queries already executed
// in prior steps.
func New(embedder Embedder, threshold float64, onDegrade EventSink) *Gate {
	return &Gate{
		embedder:     embedder,
		threshold:    float32(threshold),
		onDegrade:    onDegrade,
		acceptedText: make(map[string]bool),
	}
}

// SeedExecuted registers queries already executed so future candidates
// dedup against them too. Safe to call multiple times, including with a
// growing superset of the same queries each time: anything already in the
// pool (whether seeded here or accepted through Filter) is skipped rather
// than re-embedded, so a caller re-seeding the whole run history every step
// does not re-embed it or grow the pool every step.
func (g *Gate) SeedExecuted(ctx context.Context, queries []domain.SerpQuery) {
	var fresh []domain.SerpQuery
	for _, q := range queries {
		if !g.acceptedText[domain.NormalizedText(q.Q)] {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		return
	}
	g.acceptOrDegrade(ctx, fresh)
}

// Filter runs the dedup procedure over a batch of candidates, in order:
// compute embeddings for the batch, and for each candidate (in input
// order) reject it if it is a near-duplicate of anything already
// accepted (executed queries seeded earlier, or accepted so far this
// call); otherwise accept it and add its embedding to the pool. Output
// preserves input order of accepted items.
func (g *Gate) Filter(ctx context.Context, candidates []domain.SerpQuery) []domain.SerpQuery {
	if g.embedder == nil {
		return g.filterExactString(candidates)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Q
	}
	embs, err := g.embedder.Embed(ctx, texts)
	if err != nil || len(embs) != len(candidates) {
		g.degrade(fmt.Sprintf("embedding provider failed: %v", err))
		return g.filterExactString(candidates)
	}

	var accepted []domain.SerpQuery
	for i, cand := range candidates {
		if similarity.DedupAgainst(embs[i], g.acceptedEmbs, g.threshold) {
			continue
		}
		g.acceptedEmbs = append(g.acceptedEmbs, embs[i])
		g.acceptedText[domain.NormalizedText(cand.Q)] = true
		accepted = append(accepted, cand)
	}
	return accepted
}

// filterExactString is the degraded-mode fallback: exact normalized-string
// comparison instead of embedding cosine similarity.
func (g *Gate) filterExactString(candidates []domain.SerpQuery) []domain.SerpQuery {
	var accepted []domain.SerpQuery
	for _, cand := range candidates {
		key := domain.NormalizedText(cand.Q)
		if g.acceptedText[key] {
			continue
		}
		g.acceptedText[key] = true
		accepted = append(accepted, cand)
	}
	return accepted
}

func (g *Gate) acceptOrDegrade(ctx context.Context, queries []domain.SerpQuery) {
	if g.embedder == nil {
		g.filterExactString(queries)
		return
	}
	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Q
	}
	embs, err := g.embedder.Embed(ctx, texts)
	if err != nil || len(embs) != len(queries) {
		g.degrade(fmt.Sprintf("embedding provider failed while seeding: %v", err))
		g.filterExactString(queries)
		return
	}
	for i, q := range queries {
		g.acceptedEmbs = append(g.acceptedEmbs, embs[i])
		g.acceptedText[domain.NormalizedText(q.Q)] = true
	}
}

func (g *Gate) degrade(reason string) {
	if g.onDegrade != nil {
		g.onDegrade(reason)
	}
}
