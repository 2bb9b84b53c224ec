package persona

import (
	"fmt"
	"strings"

	"github.com/smhanov/deepagent/internal/domain"
)

// The seven built-in personas, grounded on
// original_source/rust-implementation/src/personas/all_personas.rs, ported
// to Go idiom: no rand::seq::SliceRandom pick (that made ExpertSkeptic
// non-deterministic in the original; spec.md 4.4 requires determinism for a
// fixed input, so the skeptic term is chosen by a stable hash of the query
// instead of randomly).

type simplePersona struct {
	name       string
	focus      string
	weight     float64
	expandFunc func(ExpansionContext) (domain.SerpQuery, error)
	applicable func(ExpansionContext) bool
}

func (p simplePersona) Name() string   { return p.name }
func (p simplePersona) Focus() string  { return p.focus }
func (p simplePersona) Weight() float64 { return p.weight }

func (p simplePersona) IsApplicable(ctx ExpansionContext) bool {
	if p.applicable == nil {
		return true
	}
	return p.applicable(ctx)
}

func (p simplePersona) Expand(ctx ExpansionContext) (domain.SerpQuery, error) {
	return p.expandFunc(ctx)
}

var skepticTerms = []string{
	"criticism", "controversy", "debunked", "myth", "fact check",
}

// stableTermPick chooses deterministically among terms using a simple
// rolling hash of q, replacing the original's random pick so persona
// expansion stays deterministic for a fixed input (spec.md 4.4).
func stableTermPick(q string, terms []string) string {
	var h uint32 = 2166136261
	for _, b := range []byte(q) {
		h ^= uint32(b)
		h *= 16777619
	}
	return terms[h%uint32(len(terms))]
}

func extractMainTopic(q string) string {
	fields := strings.Fields(q)
	if len(fields) <= 6 {
		return q
	}
	return strings.Join(fields[:6], " ")
}

// NewExpertSkeptic appends a skepticism-oriented term to surface
// counter-evidence.
func NewExpertSkeptic() Persona {
	return simplePersona{
		name:   "ExpertSkeptic",
		focus:  "Surfaces criticism, controversy, and counter-evidence an uncritical search would miss",
		weight: 1.0,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			term := stableTermPick(ctx.Question, skepticTerms)
			topic := extractMainTopic(ctx.Question)
			return domain.SerpQuery{Q: fmt.Sprintf("%s %s", topic, term)}, nil
		},
	}
}

// NewDetailAnalyst asks for precise, granular detail rather than an
// overview.
func NewDetailAnalyst() Persona {
	return simplePersona{
		name:   "DetailAnalyst",
		focus:  "Seeks precise technical detail, numbers, and specifications over general overviews",
		weight: 1.0,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			return domain.SerpQuery{Q: ctx.Question + " detailed specifications data"}, nil
		},
	}
}

// NewHistoricalResearcher looks five years back from the injected clock,
// following original_source's chrono-based "current year minus 5" and
// tbs=qdr:y recency hint.
func NewHistoricalResearcher(clock Clock) Persona {
	return simplePersona{
		name:   "HistoricalResearcher",
		focus:  "Looks for historical background and how the topic has evolved over recent years",
		weight: 1.0,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			year := clock().Year() - 5
			return domain.SerpQuery{
				Q:   fmt.Sprintf("%s history since %d", ctx.Question, year),
				TBS: "qdr:y",
			}, nil
		},
	}
}

// NewComparativeThinker asks for alternatives and comparisons.
func NewComparativeThinker() Persona {
	return simplePersona{
		name:   "ComparativeThinker",
		focus:  "Looks for alternatives, comparisons, and how the topic stacks up against others",
		weight: 1.0,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			return domain.SerpQuery{Q: ctx.Question + " vs alternatives comparison"}, nil
		},
	}
}

// NewTemporalContext weights recency higher (1.2) and restricts to the
// current month via tbs=qdr:m, per original_source.
func NewTemporalContext(clock Clock) Persona {
	return simplePersona{
		name:   "TemporalContext",
		focus:  "Prioritizes the most recent information available, weighting recency above depth",
		weight: 1.2,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			now := clock()
			return domain.SerpQuery{
				Q:   fmt.Sprintf("%s %d-%02d", ctx.Question, now.Year(), now.Month()),
				TBS: "qdr:m",
			}, nil
		},
	}
}

// regionByTopic maps a TopicCategory to a search region hint, standing in
// for original_source's per-category translate_to_* helpers.
var regionByTopic = map[domain.TopicCategory]string{
	domain.TopicFinance:    "us",
	domain.TopicNews:       "us",
	domain.TopicTechnology: "us",
	domain.TopicScience:    "us",
	domain.TopicHistory:    "eu",
	domain.TopicOther:      "",
}

// NewGlobalizer optionally translates the query and sets a region hint by
// topic category. The translator is pluggable (spec.md 9); pass Identity
// for tests or when no translation backend is wired.
func NewGlobalizer(translator Translator, targetLanguage string) Persona {
	if translator == nil {
		translator = Identity
	}
	return simplePersona{
		name:   "Globalizer",
		focus:  "Broadens the search to international sources by translating the query and setting a region",
		weight: 1.0,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			translated := translator(ctx.Question, targetLanguage)
			return domain.SerpQuery{
				Q:        translated,
				Location: regionByTopic[ctx.Topic],
			}, nil
		},
	}
}

// NewRealitySkepticalist questions whether the premise of the question
// itself holds, distinct from ExpertSkeptic's evidence-level skepticism.
func NewRealitySkepticalist() Persona {
	return simplePersona{
		name:   "RealitySkepticalist",
		focus:  "Questions the premise of the question itself, checking whether its assumptions are accurate",
		weight: 0.9,
		expandFunc: func(ctx ExpansionContext) (domain.SerpQuery, error) {
			return domain.SerpQuery{Q: "is it true that " + ctx.Question}, nil
		},
	}
}

// BuildDefaultSet returns the seven built-in personas, following
// original_source's persona catalog with the same names and foci.
func BuildDefaultSet(clock Clock, translator Translator, targetLanguage string) []Persona {
	if targetLanguage == "" {
		targetLanguage = "fr"
	}
	return []Persona{
		NewExpertSkeptic(),
		NewDetailAnalyst(),
		NewHistoricalResearcher(clock),
		NewComparativeThinker(),
		NewTemporalContext(clock),
		NewGlobalizer(translator, targetLanguage),
		NewRealitySkepticalist(),
	}
}
