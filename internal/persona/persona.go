// Package persona implements the persona orchestrator (C4): seven built-in
// query-expansion strategies plus a dynamic registry and a parallel
// orchestrator that fans a single input query out to N perspective-shifted
// SerpQueries. Grounded on
// original_source/rust-implementation/src/personas/traits.rs's
// CognitivePersona trait (name/focus/weight/expand_query/is_applicable).
package persona

import (
	"time"

	"github.com/smhanov/deepagent/internal/domain"
)

// ExpansionContext carries what a persona needs to expand a query, standing
// in for the richer AgentContext the loop owns (spec.md 9: sub-tasks get
// snapshots, not the live context).
type ExpansionContext struct {
	Question string
	Topic    domain.TopicCategory
}

// Persona is the query-expansion contract. Implementations must be
// deterministic for a given (persona, original query, context): the same
// inputs always produce the same SerpQuery, except where a persona
// intentionally consumes the current date — those personas take a Clock at
// construction rather than reading time.Now() directly, so tests can pin it.
type Persona interface {
	Name() string
	Focus() string
	Weight() float64
	IsApplicable(ctx ExpansionContext) bool
	Expand(ctx ExpansionContext) (domain.SerpQuery, error)
}

// Clock returns the current time. Production code wires time.Now; tests
// inject a fixed value so date-dependent personas stay deterministic.
type Clock func() time.Time

// Translator translates text into a target language. The identity
// translator (Identity) satisfies spec.md 9's open question: the Globalizer
// persona's translation backend is pluggable, and tests must work with the
// identity function.
type Translator func(text, targetLanguage string) string

// Identity is a Translator that returns its input unchanged.
func Identity(text, _ string) string { return text }
