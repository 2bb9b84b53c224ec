package knowledge

import (
	"testing"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeIsIdempotent(t *testing.T) {
	in := "HTTPS://Example.COM:443/Path?q=1#frag"
	c1, err := Canonicalize(in)
	require.NoError(t, err)
	c2, err := Canonicalize(c1)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.NotContains(t, c1, "#frag")
	assert.NotContains(t, c1, ":443")
}

func TestAddURLDedupsByCanonicalForm(t *testing.T) {
	s := New()
	c1, inserted1, err := s.AddURL("https://Example.com/a", 1.0, 0)
	require.NoError(t, err)
	assert.True(t, inserted1)

	c2, inserted2, err := s.AddURL("https://example.com:443/a", 2.0, 1)
	require.NoError(t, err)
	assert.False(t, inserted2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, 1, s.Count())

	rec, ok := s.Get(c1)
	require.True(t, ok)
	assert.Equal(t, 2.0, rec.Score) // re-score takes the higher score
}

func TestTopNUnvisitedOrdersByScoreThenDiscovery(t *testing.T) {
	s := New()
	s.AddURL("https://a.com", 1.0, 0)
	s.AddURL("https://b.com", 2.0, 1)
	s.AddURL("https://c.com", 2.0, 2)

	top := s.TopNUnvisited(2)
	require.Len(t, top, 2)
	assert.Equal(t, "https://b.com", top[0].URL) // earlier discovery wins the tie
	assert.Equal(t, "https://c.com", top[1].URL)
}

func TestMarkVisitedIsOneWay(t *testing.T) {
	s := New()
	c, _, _ := s.AddURL("https://a.com", 1.0, 0)
	assert.True(t, s.MarkVisited(c))
	assert.False(t, s.MarkVisited(c)) // already visited: no-op
	rec, _ := s.Get(c)
	assert.True(t, rec.Visited)
}

func TestFormatForPromptStableAcrossCalls(t *testing.T) {
	s := New()
	s.AppendKnowledge(domain.KnowledgeItem{Type: domain.KnowledgeQA, Question: "q", Answer: "a"})
	first := s.FormatForPrompt()
	second := s.FormatForPrompt()
	assert.Equal(t, first, second)
}

func TestExtractReferencesRequiresVisitedURL(t *testing.T) {
	items := []domain.KnowledgeItem{
		{Type: domain.KnowledgeSideInfo, SourceURL: "https://a.com", Answer: "the sky is blue today"},
	}
	refs := ExtractReferences("The sky is blue.", items, func(string) bool { return false })
	assert.Empty(t, refs)

	refs = ExtractReferences("The sky is blue.", items, func(string) bool { return true })
	require.Len(t, refs, 1)
	assert.Equal(t, "https://a.com", refs[0].SourceURL)
}
