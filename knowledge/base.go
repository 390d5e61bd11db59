package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/answerdesk/ai"
	"github.com/poiesic/answerdesk/core"
	"github.com/poiesic/answerdesk/normalize"
	"github.com/poiesic/answerdesk/storage"
)

// KnowledgeBase holds the loaded corpus as parallel collections: index i of
// questions, answers and embeddings always describes the same entry.
// It is immutable after Build and safe for concurrent readers.
type KnowledgeBase struct {
	questions  []string
	answers    []string
	embeddings [][]float32
	dimension  int
	unitLength bool
	degraded   bool
}

type buildOptions struct {
	logger     *slog.Logger
	normalizer *normalize.Normalizer
	cache      storage.EmbeddingCache
	model      string
}

// Option configures Build.
type Option func(*buildOptions) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *buildOptions) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithNormalizer sets the normalizer applied to questions before embedding.
// Default is normalize.Default().
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *buildOptions) error {
		if n != nil {
			o.normalizer = n
		}
		return nil
	}
}

// WithCache enables the embedding cache. model scopes cache keys so vectors
// from a different model are never reused.
func WithCache(cache storage.EmbeddingCache, model string) Option {
	return func(o *buildOptions) error {
		o.cache = cache
		o.model = model
		return nil
	}
}

// Load reads a knowledge source file and builds a knowledge base from it.
func Load(ctx context.Context, path string, embedder ai.Embedder, opts ...Option) (*KnowledgeBase, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(ctx, entries, embedder, opts...)
}

// Build embeds the normalized questions of entries and returns the
// resulting knowledge base. Entry order is preserved.
//
// If the embedder fails for the corpus, every entry gets a zero vector and
// the knowledge base reports Degraded. Such a corpus never matches.
func Build(ctx context.Context, entries []core.KnowledgeEntry, embedder ai.Embedder, opts ...Option) (*KnowledgeBase, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	o := &buildOptions{
		logger:     slog.Default(),
		normalizer: normalize.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	logger := o.logger.With("component", "knowledge")

	kb := &KnowledgeBase{
		questions:  make([]string, len(entries)),
		answers:    make([]string, len(entries)),
		unitLength: ai.IsUnitLength(embedder),
	}
	normalized := make([]string, len(entries))
	for i, e := range entries {
		if err := core.ValidateKnowledgeEntry(&e); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrLoad, i+1, err)
		}
		kb.questions[i] = e.Question
		kb.answers[i] = e.Answer
		normalized[i] = o.normalizer.Normalize(e.Question)
	}

	embeddings, err := embedCorpus(ctx, embedder, normalized, o, logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		dim := embedder.Dimension()
		if dim <= 0 {
			dim = 1
		}
		logger.Error("corpus embedding failed, using zero vectors",
			"degraded", true, "count", len(entries), "err", err)
		embeddings = ai.ZeroVectors(len(entries), dim)
		kb.degraded = true
	}
	kb.embeddings = embeddings
	kb.dimension = len(embeddings[0])

	logger.Info("knowledge base ready", "count", kb.Len(), "dimension", kb.dimension, "degraded", kb.degraded)
	return kb, nil
}

// embedCorpus embeds texts in one batch call, serving what it can from the
// cache and storing freshly computed vectors back.
func embedCorpus(ctx context.Context, embedder ai.Embedder, texts []string, o *buildOptions, logger *slog.Logger) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var keys []core.Key
	if o.cache != nil {
		keys = make([]core.Key, len(texts))
		for i, t := range texts {
			keys[i] = core.KeyFromContent(o.model, t)
		}
		cached, err := o.cache.GetVectors(ctx, keys...)
		if err != nil {
			logger.Warn("embedding cache read failed", "err", err)
		}
		for i, k := range keys {
			if v, ok := cached[k]; ok {
				out[i] = v
			}
		}
	}

	var missing []int
	for i := range texts {
		if out[i] == nil {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		logger.Debug("all corpus embeddings served from cache", "count", len(texts))
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vectors, err := embedder.EmbedTexts(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}

	fresh := make(map[core.Key][]float32, len(missing))
	for j, i := range missing {
		out[i] = vectors[j]
		if keys != nil {
			fresh[keys[i]] = vectors[j]
		}
	}
	if o.cache != nil {
		if err := o.cache.PutVectors(ctx, fresh); err != nil {
			logger.Warn("embedding cache write failed", "err", err)
		}
	}
	logger.Debug("embedded corpus", "embedded", len(missing), "cached", len(texts)-len(missing))
	return out, nil
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int {
	return len(kb.questions)
}

// Question returns the question of entry i.
func (kb *KnowledgeBase) Question(i int) string {
	return kb.questions[i]
}

// Answer returns the answer of entry i.
func (kb *KnowledgeBase) Answer(i int) string {
	return kb.answers[i]
}

// Entry returns entry i including its embedding.
func (kb *KnowledgeBase) Entry(i int) core.KnowledgeEntry {
	return core.KnowledgeEntry{
		Question:  kb.questions[i],
		Answer:    kb.answers[i],
		Embedding: kb.embeddings[i],
	}
}

// Questions returns a copy of all questions in corpus order.
func (kb *KnowledgeBase) Questions() []string {
	return append([]string(nil), kb.questions...)
}

// Embeddings returns the corpus vectors in corpus order.
// The returned slices are shared and must not be modified.
func (kb *KnowledgeBase) Embeddings() [][]float32 {
	return kb.embeddings
}

// Dimension returns the vector length of the corpus embeddings.
func (kb *KnowledgeBase) Dimension() int {
	return kb.dimension
}

// UnitLength reports whether the corpus vectors are unit length.
func (kb *KnowledgeBase) UnitLength() bool {
	return kb.unitLength && !kb.degraded
}

// Degraded reports whether the corpus fell back to zero vectors.
func (kb *KnowledgeBase) Degraded() bool {
	return kb.degraded
}

// Resolve fills Question and Answer on ranked matches from their Index.
func (kb *KnowledgeBase) Resolve(matches []core.RankedMatch) []core.RankedMatch {
	for i := range matches {
		matches[i].Question = kb.questions[matches[i].Index]
		matches[i].Answer = kb.answers[matches[i].Index]
	}
	return matches
}
