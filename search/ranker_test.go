package search

import (
	"log/slog"
	"testing"

	"github.com/poiesic/answerdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRanker(t *testing.T, opts ...Option) *Ranker {
	t.Helper()
	r, err := NewRanker(opts...)
	require.NoError(t, err)
	return r
}

func TestNewRanker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := NewRanker()
		require.NoError(t, err)
		assert.NotNil(t, r)
		assert.False(t, r.unitVectors)
	})

	t.Run("with custom logger", func(t *testing.T) {
		r, err := NewRanker(WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		r, err := NewRanker(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r.logger)
	})

	t.Run("unit vectors", func(t *testing.T) {
		r, err := NewRanker(WithUnitVectors(true))
		require.NoError(t, err)
		assert.True(t, r.unitVectors)
	})
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1.0},
		{"zero left", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"zero right", []float32{1, 1}, []float32{0, 0}, 0.0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosine_Symmetric(t *testing.T) {
	pairs := [][2][]float32{
		{{0.1, 0.7, -0.3}, {0.9, -0.2, 0.4}},
		{{1, 2, 3, 4}, {4, 3, 2, 1}},
		{{0.001, 1000}, {-5, 0.25}},
	}
	for _, p := range pairs {
		assert.Equal(t, Cosine(p[0], p[1]), Cosine(p[1], p[0]))
	}
}

func TestCosine_SelfSimilarity(t *testing.T) {
	for _, v := range [][]float32{{0.3, 0.4}, {7, -1, 2}, {1e-3, 5e-3, 9e-3}} {
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
	}
}

func TestCosine_ExactBoundaryPair(t *testing.T) {
	// |b| = 5, dot = 2
	a := []float32{1, 0, 0, 0}
	b := []float32{2, 4, 2, 1}
	assert.Equal(t, 0.4, Cosine(a, b))
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}), 1e-9)
	assert.Equal(t, 0.0, Dot([]float32{1}, []float32{1, 2}))
}

func TestRank_ThresholdInclusive(t *testing.T) {
	r := newTestRanker(t)
	query := []float32{1, 0, 0, 0}
	corpus := [][]float32{{2, 4, 2, 1}}

	matches := r.Rank(query, corpus, 5, 0.4)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)
	assert.Equal(t, 0.4, matches[0].Similarity)

	assert.Empty(t, r.Rank(query, corpus, 5, 0.400001))
}

func TestRank_OrderAndTruncation(t *testing.T) {
	r := newTestRanker(t)
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},   // 0.0
		{1, 1},   // ~0.707
		{1, 0},   // 1.0
		{1, 0.2}, // ~0.98
		{1, 2},   // ~0.447
		{-1, 0},  // -1.0
	}

	matches := r.Rank(query, corpus, 3, 0.4)
	require.Len(t, matches, 3)
	assert.Equal(t, []int{2, 3, 1}, indices(matches))
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}

	all := r.Rank(query, corpus, 10, 0.4)
	assert.Equal(t, []int{2, 3, 1, 4}, indices(all))
}

func TestRank_StableTies(t *testing.T) {
	r := newTestRanker(t)
	query := []float32{1, 1}
	corpus := [][]float32{
		{1, 0},
		{1, 1},
		{0, 1},
		{1, 1},
		{1, 0},
	}

	matches := r.Rank(query, corpus, 10, 0)
	// indices 1 and 3 score 1.0; 0, 2 and 4 score ~0.707
	assert.Equal(t, []int{1, 3, 0, 2, 4}, indices(matches))
}

func TestRank_ZeroVectors(t *testing.T) {
	r := newTestRanker(t)
	corpus := [][]float32{{0, 0, 0}, {0, 0, 0}}

	assert.Empty(t, r.Rank([]float32{1, 0, 0}, corpus, 5, 0.4))

	matches := r.Rank([]float32{1, 0, 0}, corpus, 5, 0)
	require.Len(t, matches, 2)
	assert.Equal(t, 0.0, matches[0].Similarity)
}

func TestRank_EdgeCases(t *testing.T) {
	r := newTestRanker(t)

	assert.Empty(t, r.Rank([]float32{1}, nil, 5, 0))
	assert.Empty(t, r.Rank([]float32{1}, [][]float32{{1}}, 0, 0))
	assert.Empty(t, r.Rank([]float32{1}, [][]float32{{1}}, -1, 0))

	// mismatched dimensions score 0
	matches := r.Rank([]float32{1, 0}, [][]float32{{1, 0, 0}}, 5, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Similarity)
}

func TestRank_UnitVectorsMatchCosine(t *testing.T) {
	cos := newTestRanker(t)
	dot := newTestRanker(t, WithUnitVectors(true))

	query := []float32{0.6, 0.8}
	corpus := [][]float32{{1, 0}, {0, 1}, {0.8, 0.6}}

	a := cos.Rank(query, corpus, 3, 0)
	b := dot.Rank(query, corpus, 3, 0)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Index, b[i].Index)
		assert.InDelta(t, a[i].Similarity, b[i].Similarity, 1e-6)
	}
}

type recordingMonitor struct {
	started  bool
	scored   map[int]float64
	kept     int
	finished []core.RankedMatch
}

func (m *recordingMonitor) Start(_, _ int, _ float64) { m.started = true }
func (m *recordingMonitor) Scored(i int, s float64) {
	if m.scored == nil {
		m.scored = make(map[int]float64)
	}
	m.scored[i] = s
}
func (m *recordingMonitor) AfterThreshold(kept int)          { m.kept = kept }
func (m *recordingMonitor) Finish(matches []core.RankedMatch) { m.finished = matches }

func TestRankWithMonitor(t *testing.T) {
	r := newTestRanker(t)
	m := &recordingMonitor{}

	matches := r.RankWithMonitor([]float32{1, 0}, [][]float32{{1, 0}, {0, 1}, {1, 1}}, 1, 0.5, m)

	assert.True(t, m.started)
	assert.Len(t, m.scored, 3)
	assert.Equal(t, 2, m.kept)
	assert.Equal(t, matches, m.finished)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)
}

func indices(matches []core.RankedMatch) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}
