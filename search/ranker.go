package search

import (
	"log/slog"
	"math"
	"slices"

	"github.com/poiesic/answerdesk/core"
)

// Ranker scores corpus vectors against a query vector by cosine similarity.
type Ranker struct {
	unitVectors bool
	logger      *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithUnitVectors declares that every vector handed to Rank has unit
// length, letting the ranker score with a plain dot product.
func WithUnitVectors(unit bool) Option {
	return func(r *Ranker) error {
		r.unitVectors = unit
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(opts ...Option) (*Ranker, error) {
	r := &Ranker{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "ranker")

	return r, nil
}

// Rank scores every corpus vector against query and returns at most topK
// matches with similarity >= threshold, best first. Equal similarities keep
// corpus order. Returned matches carry Index and Similarity only.
func (r *Ranker) Rank(query []float32, corpus [][]float32, topK int, threshold float64) []core.RankedMatch {
	return r.RankWithMonitor(query, corpus, topK, threshold, nil)
}

// RankWithMonitor is Rank with callbacks at each stage.
func (r *Ranker) RankWithMonitor(query []float32, corpus [][]float32, topK int, threshold float64, monitor RankMonitor) []core.RankedMatch {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(len(corpus), topK, threshold)

	if topK <= 0 || len(corpus) == 0 {
		monitor.Finish(nil)
		return nil
	}

	scored := make([]core.RankedMatch, 0, len(corpus))
	for i, vec := range corpus {
		if len(vec) != len(query) {
			r.logger.Warn("dimension mismatch", "index", i, "want", len(query), "got", len(vec))
		}
		sim := r.similarity(query, vec)
		monitor.Scored(i, sim)
		if sim < threshold {
			continue
		}
		scored = append(scored, core.RankedMatch{Index: i, Similarity: sim})
	}
	monitor.AfterThreshold(len(scored))

	slices.SortStableFunc(scored, func(a, b core.RankedMatch) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	monitor.Finish(scored)

	r.logger.Debug("ranked corpus", "corpus", len(corpus), "hits", len(scored))
	return scored
}

func (r *Ranker) similarity(a, b []float32) float64 {
	if r.unitVectors && len(a) == len(b) {
		return Dot(a, b)
	}
	return Cosine(a, b)
}

// Dot returns the dot product of a and b, accumulated in float64.
// Vectors of different length give 0.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns dot(a,b) / (|a|*|b|). It is 0 when either vector has zero
// norm or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
