package answerdesk

import (
	"context"
	"fmt"

	"github.com/poiesic/answerdesk/ai"
	"github.com/poiesic/answerdesk/ai/openai"
	"github.com/poiesic/answerdesk/answer"
	"github.com/poiesic/answerdesk/config"
	"github.com/poiesic/answerdesk/knowledge"
	"github.com/poiesic/answerdesk/normalize"
	"github.com/poiesic/answerdesk/questionlog"
	"github.com/poiesic/answerdesk/storage/badger"
)

// NewFromConfig builds a Service from cfg using the OpenAI-compatible
// embedder it describes.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	embedder, err := openai.NewEmbedder(cfg.AIConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return Open(ctx, cfg, embedder, opts...)
}

// Open builds a Service from cfg with the given embedder. It loads the
// knowledge base, opens the embedding cache when configured and opens the
// question log when enabled. A knowledge base that cannot be loaded is
// fatal. Options override components derived from cfg.
func Open(ctx context.Context, cfg *config.Config, embedder ai.Embedder, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	defaults := []Option{WithNormalizer(normalize.New(cfg.Acronyms...))}
	o, err := applyOptions(append(defaults, opts...))
	if err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	kbOpts := []knowledge.Option{
		knowledge.WithLogger(o.logger),
		knowledge.WithNormalizer(o.normalizer),
	}
	if cfg.Embedding.CacheDir != "" {
		cache, err := badger.OpenEmbeddingCache(cfg.Embedding.CacheDir, badger.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open embedding cache: %w", err)
		}
		closers = append(closers, cache.Close)
		kbOpts = append(kbOpts, knowledge.WithCache(cache, cfg.Embedding.Model))
	}

	kb, err := knowledge.Load(ctx, cfg.Knowledge.Path, embedder, kbOpts...)
	if err != nil {
		cleanup()
		return nil, err
	}

	if o.composer == nil {
		o.composer, err = answer.NewComposer(cfg.Policy,
			answer.WithNotFoundMessage(cfg.Messages.NotFound),
			answer.WithReferenceLabel(cfg.Messages.Reference),
			answer.WithRelatedHeader(cfg.Messages.RelatedHeader),
		)
		if err != nil {
			cleanup()
			return nil, err
		}
	}

	if o.questionLog == nil && cfg.QuestionLog.Enabled {
		o.questionLog, err = questionlog.Open(ctx, cfg.QuestionLog.Path,
			questionlog.WithLogger(o.logger),
			questionlog.WithMaxRetries(cfg.QuestionLog.MaxRetries),
			questionlog.WithRetryDelay(cfg.QuestionLog.RetryDelay),
			questionlog.WithRecorder(o.recorder),
		)
		if err != nil {
			cleanup()
			return nil, err
		}
	}

	s, err := newService(kb, embedder, o)
	if err != nil {
		cleanup()
		return nil, err
	}
	s.closers = closers
	return s, nil
}
