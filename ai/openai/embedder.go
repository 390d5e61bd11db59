package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/answerdesk/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder  embeddings.Embedder
	normalize bool
	logger    *slog.Logger

	mu  sync.Mutex // protects dim on first call
	dim int
}

var (
	_ ai.Embedder       = (*Embedder)(nil)
	_ ai.UnitNormalizer = (*Embedder)(nil)
)

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services ignore the token, so "none" is accepted.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:  embedder,
		normalize: config.NormalizeEmbeddings,
		dim:       config.Dimension,
		logger:    slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
// It goes through the same batch endpoint as EmbedTexts so both paths agree
// numerically for the same input.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
	}

	e.detectDimension(vectors[0])
	if e.normalize {
		for i := range vectors {
			vectors[i] = ai.NormalizeVector(vectors[i])
		}
	}
	return vectors, nil
}

// Dimension returns the configured or detected vector length.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

// UnitLength reports whether vectors are scaled to unit length.
func (e *Embedder) UnitLength() bool {
	return e.normalize
}

func (e *Embedder) detectDimension(v []float32) {
	if len(v) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.dim == 0:
		e.dim = len(v)
		e.logger.Info("auto-detected embedding dimension", "dimension", e.dim)
	case e.dim != len(v):
		e.logger.Warn("embedding dimension differs from configuration", "configured", e.dim, "actual", len(v))
		e.dim = len(v)
	}
}
