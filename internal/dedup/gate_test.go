package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/smhanov/deepagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns pinned vectors for known texts so cosine similarity
// is predictable.
type fakeEmbedder struct {
	byText map[string][]float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.byText[t]
		if !ok {
			v = []float32{0, 0, 1} // orthogonal default: never a duplicate
		}
		out[i] = v
	}
	return out, nil
}

func TestFilterDropsNearDuplicates(t *testing.T) {
	emb := &fakeEmbedder{byText: map[string][]float32{
		"best databases":     {1, 0, 0},
		"best database":      {1, 0, 0}, // identical vector: cosine 1.0 >= 0.86
		"completely unrelated": {0, 1, 0},
	}}
	g := New(emb, 0.86, nil)

	out := g.Filter(context.Background(), []domain.SerpQuery{
		{Q: "best databases"},
		{Q: "best database"},
		{Q: "completely unrelated"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "best databases", out[0].Q)
	assert.Equal(t, "completely unrelated", out[1].Q)
}

func TestFilterFallsBackToExactStringOnEmbedFailure(t *testing.T) {
	var degraded string
	emb := &fakeEmbedder{err: errors.New("boom")}
	g := New(emb, 0.86, func(reason string) { degraded = reason })

	out := g.Filter(context.Background(), []domain.SerpQuery{
		{Q: "Same Query"},
		{Q: "same query"}, // normalizes to the same string
		{Q: "different query"},
	})

	require.Len(t, out, 2)
	assert.NotEmpty(t, degraded)
}

func TestSeedExecutedAffectsSubsequentFilter(t *testing.T) {
	emb := &fakeEmbedder{byText: map[string][]float32{
		"already searched": {1, 0, 0},
		"already-ish":       {1, 0, 0},
	}}
	g := New(emb, 0.86, nil)
	g.SeedExecuted(context.Background(), []domain.SerpQuery{{Q: "already searched"}})

	out := g.Filter(context.Background(), []domain.SerpQuery{{Q: "already-ish"}})
	assert.Empty(t, out)
}
