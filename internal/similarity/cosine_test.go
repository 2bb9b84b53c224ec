package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func naiveCosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestCosineMatchesNaiveReference(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3, 0.4, -0.5}
	b := []float32{0.5, -0.1, 0.2, 0.4, 0.1}

	got := Cosine(a, b)
	want := naiveCosine(a, b)

	assert.InDelta(t, want, float64(got), 1e-5)
}

func TestCosineZeroNorm(t *testing.T) {
	zero := []float32{0, 0, 0}
	other := []float32{1, 2, 3}

	assert.Equal(t, float32(0), Cosine(zero, other))
	assert.Equal(t, float32(0), Cosine(zero, zero))
}

func TestCosineMismatchedLength(t *testing.T) {
	assert.Equal(t, float32(0), Cosine([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestCosineIdentical(t *testing.T) {
	v := []float32{1, 2, 3, 4}
	assert.InDelta(t, 1.0, float64(Cosine(v, v)), 1e-5)
}

func TestDedupAgainstThresholdIsInclusive(t *testing.T) {
	// Two vectors engineered to have cosine similarity of exactly 1.0 (a
	// scaled copy), which is >= any threshold <= 1.0, including a threshold
	// equal to the similarity itself.
	a := []float32{1, 0}
	b := []float32{2, 0}
	assert.True(t, DedupAgainst(a, [][]float32{b}, 0.86))
	assert.True(t, DedupAgainst(a, [][]float32{b}, 1.0))
}

func TestDedupAgainstNoMatch(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.False(t, DedupAgainst(a, [][]float32{b}, 0.86))
}

func TestDedupIsIdempotent(t *testing.T) {
	accepted := [][]float32{{1, 0}, {0, 1}, {0.7, 0.7}}
	// Running dedup on every already-accepted vector against the others
	// yields the same membership decision every time.
	for i, v := range accepted {
		rest := append(append([][]float32{}, accepted[:i]...), accepted[i+1:]...)
		first := DedupAgainst(v, rest, 0.86)
		second := DedupAgainst(v, rest, 0.86)
		assert.Equal(t, first, second)
	}
}
