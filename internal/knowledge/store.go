// Package knowledge implements the knowledge/URL store (C3): a canonicalized,
// dedup set of URLRecords plus an insertion-ordered list of KnowledgeItems.
// Grounded on the teacher's own idea of a growing, append-mostly collection
// (graph.Notebook.Clues in the now-removed graph_reader_strategy.go kept a
// similar "append and dedupe on read" shape) generalized to the full
// URLRecord/KnowledgeItem model spec.md 3/4.3 require.
package knowledge

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/smhanov/deepagent/internal/domain"
)

// Store is one of the three shared-mutable tables spec.md 9 names. Every
// write is serialized under a single mutex; no lock is ever held across a
// suspension point (there are none here — the store does no I/O).
type Store struct {
	mu   sync.Mutex
	urls map[string]*domain.URLRecord // keyed by canonical URL
	// order preserves URL discovery order for tie-breaks (earlier first).
	order     []string
	knowledge []domain.KnowledgeItem
}

// New creates an empty store.
func New() *Store {
	return &Store{urls: make(map[string]*domain.URLRecord)}
}

// Canonicalize lowercases scheme and host, removes default ports, strips the
// fragment, and preserves the query string. canonicalize(canonicalize(u)) ==
// canonicalize(u) for any u it accepts.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("canonicalize %q: not an absolute URL", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	host = stripDefaultPort(u.Scheme, host)
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func stripDefaultPort(scheme, host string) string {
	suffix := ""
	switch scheme {
	case "http":
		suffix = ":80"
	case "https":
		suffix = ":443"
	default:
		return host
	}
	return strings.TrimSuffix(host, suffix)
}

// AddURL inserts (or re-scores) a canonicalized URL. score is the product of
// persona weight x frequency x hostname-boost x path-boost x optional
// rerank, computed by the caller (C4/C6 have that context; the store just
// stores the result). Returns the canonical form and whether it was newly
// inserted. Invariant: URLs are unique by canonical form across the store.
func (s *Store) AddURL(raw string, score float64, step int) (canonical string, inserted bool, err error) {
	canonical, err = Canonicalize(raw)
	if err != nil {
		return "", false, err
	}
	host := ""
	if u, perr := url.Parse(canonical); perr == nil {
		host = u.Host
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.urls[canonical]; ok {
		if score > existing.Score {
			existing.Score = score
		}
		return canonical, false, nil
	}
	s.urls[canonical] = &domain.URLRecord{
		URL:          canonical,
		Hostname:     host,
		Score:        score,
		DiscoveredAt: step,
	}
	s.order = append(s.order, canonical)
	return canonical, true, nil
}

// MarkVisited flips Visited false->true for a canonical URL. One-way: it is
// a no-op (returns false) if the URL is unknown or already visited.
func (s *Store) MarkVisited(canonical string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.urls[canonical]
	if !ok || r.Visited {
		return false
	}
	r.Visited = true
	return true
}

// Count returns the total number of distinct URLs in the store.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Get returns a copy of the record for canonical, if present.
func (s *Store) Get(canonical string) (domain.URLRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.urls[canonical]
	if !ok {
		return domain.URLRecord{}, false
	}
	return *r, true
}

// Filter returns a copy of every record matching pred, in discovery order.
func (s *Store) Filter(pred func(domain.URLRecord) bool) []domain.URLRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.URLRecord
	for _, canonical := range s.order {
		r := *s.urls[canonical]
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// TopNUnvisited returns up to n unvisited URLRecords ordered by score
// descending, breaking ties by discovery order (earlier first), per
// spec.md 4.9's tie-break rule.
func (s *Store) TopNUnvisited(n int) []domain.URLRecord {
	unvisited := s.Filter(func(r domain.URLRecord) bool { return !r.Visited })
	discoveryRank := make(map[string]int, len(unvisited))
	for i, r := range unvisited {
		discoveryRank[r.URL] = i
	}
	sort.SliceStable(unvisited, func(i, j int) bool {
		if unvisited[i].Score != unvisited[j].Score {
			return unvisited[i].Score > unvisited[j].Score
		}
		return discoveryRank[unvisited[i].URL] < discoveryRank[unvisited[j].URL]
	})
	if n >= 0 && n < len(unvisited) {
		unvisited = unvisited[:n]
	}
	return unvisited
}

// AppendKnowledge appends a KnowledgeItem, preserving insertion order.
func (s *Store) AppendKnowledge(item domain.KnowledgeItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knowledge = append(s.knowledge, item)
}

// Knowledge returns a copy of the knowledge list in insertion order.
func (s *Store) Knowledge() []domain.KnowledgeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.KnowledgeItem, len(s.knowledge))
	copy(out, s.knowledge)
	return out
}

// FormatForPrompt renders the knowledge list into a stable textual block
// suitable for inclusion in an LLM prompt. Stability means the same
// knowledge list always renders to the same string, so prompt caching (a
// concern of the LLM adapter, not this store) can key off it.
func (s *Store) FormatForPrompt() string {
	items := s.Knowledge()
	if len(items) == 0 {
		return "(no knowledge collected yet)"
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "[%d] ", i+1)
		switch item.Type {
		case domain.KnowledgeQA:
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", item.Question, item.Answer)
		case domain.KnowledgeSideInfo:
			fmt.Fprintf(&b, "Note (from %s): %s\n", item.SourceURL, item.Answer)
		case domain.KnowledgeError:
			fmt.Fprintf(&b, "Rejected answer (%s failed): %s\nReason: %s\n", item.EvalTypeFailed, item.AttemptedAnswer, item.Reason)
			if len(item.Suggestions) > 0 {
				fmt.Fprintf(&b, "Suggestions: %s\n", strings.Join(item.Suggestions, "; "))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ExtractReferences produces Reference records for sentences in answer that
// overlap a KnowledgeItem carrying a source URL. This implements
// extract_references_from_knowledge per spec.md 9's open question: the
// matching rule (sentence-level word overlap) is an implementation choice,
// not a fixed contract; the invariant it must uphold is that every returned
// Reference's SourceURL exists in the store with Visited=true, which this
// function enforces itself by skipping every item whose SourceURL fails
// isVisited, so callers may pass the whole knowledge list.
func ExtractReferences(answer string, items []domain.KnowledgeItem, isVisited func(url string) bool) []domain.Reference {
	sentences := splitSentences(answer)
	var refs []domain.Reference
	seen := make(map[string]bool)
	for _, item := range items {
		if item.Type != domain.KnowledgeSideInfo || item.SourceURL == "" {
			continue
		}
		if !isVisited(item.SourceURL) {
			continue
		}
		for _, sentence := range sentences {
			if sentenceOverlap(sentence, item.Answer) >= 0.4 {
				key := item.SourceURL + "|" + sentence
				if seen[key] {
					continue
				}
				seen[key] = true
				refs = append(refs, domain.Reference{
					Excerpt:   strings.TrimSpace(sentence),
					SourceURL: item.SourceURL,
				})
				break
			}
		}
	}
	return refs
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var out []string
	for _, s := range raw {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// sentenceOverlap returns the fraction of words in a that also appear in b,
// a cheap word-overlap ratio standing in for a semantic match.
func sentenceOverlap(a, b string) float64 {
	aw := strings.Fields(strings.ToLower(a))
	if len(aw) == 0 {
		return 0
	}
	bset := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(b)) {
		bset[w] = true
	}
	hits := 0
	for _, w := range aw {
		if bset[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(aw))
}
