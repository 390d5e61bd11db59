// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package answerdesk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/answerdesk/ai"
	"github.com/poiesic/answerdesk/answer"
	"github.com/poiesic/answerdesk/core"
	"github.com/poiesic/answerdesk/knowledge"
	"github.com/poiesic/answerdesk/metrics"
	"github.com/poiesic/answerdesk/normalize"
	"github.com/poiesic/answerdesk/questionlog"
	"github.com/poiesic/answerdesk/search"
)

// Service answers questions against a loaded knowledge base.
// It is safe for concurrent use once constructed.
type Service struct {
	kb          *knowledge.KnowledgeBase
	embedder    ai.Embedder
	normalizer  *normalize.Normalizer
	ranker      *search.Ranker
	composer    *answer.Composer
	questionLog *questionlog.Log
	recorder    metrics.Recorder
	logger      *slog.Logger

	syncLogging bool
	pool        *ants.Pool
	pending     sync.WaitGroup

	closers   []func() error
	closeOnce sync.Once
	closeErr  error
}

// Stats summarizes the service state for health reporting.
type Stats struct {
	KnowledgeBaseSize int  `json:"knowledge_base_size"`
	Degraded          bool `json:"degraded"`
	LoggingEnabled    bool `json:"logging_enabled"`
	Unanswered        int  `json:"unanswered"`
	PendingOverflow   bool `json:"pending_overflow"`
}

// New creates a Service over an already built knowledge base. The
// normalizer passed with WithNormalizer must be the one kb was built with.
func New(kb *knowledge.KnowledgeBase, embedder ai.Embedder, opts ...Option) (*Service, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return newService(kb, embedder, o)
}

func newService(kb *knowledge.KnowledgeBase, embedder ai.Embedder, o *options) (*Service, error) {
	if kb == nil {
		return nil, ErrKnowledgeBaseRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	logger := o.logger.With("component", "answerdesk")

	composer := o.composer
	if composer == nil {
		var err error
		composer, err = answer.NewComposer(answer.DefaultPolicy())
		if err != nil {
			return nil, err
		}
	}

	ranker, err := search.NewRanker(
		search.WithLogger(o.logger),
		search.WithUnitVectors(kb.UnitLength() && ai.IsUnitLength(embedder)),
	)
	if err != nil {
		return nil, err
	}

	s := &Service{
		kb:          kb,
		embedder:    embedder,
		normalizer:  o.normalizer,
		ranker:      ranker,
		composer:    composer,
		questionLog: o.questionLog,
		recorder:    o.recorder,
		logger:      logger,
		syncLogging: o.syncLogging,
	}

	if s.questionLog != nil && !s.syncLogging {
		pool, err := ants.NewPool(o.poolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create logging pool: %w", err)
		}
		s.pool = pool
	}

	s.recorder.SetKnowledgeBase(kb.Len(), kb.Degraded())
	logger.Info("service ready",
		"entries", kb.Len(),
		"dimension", kb.Dimension(),
		"degraded", kb.Degraded(),
		"logging", s.questionLog != nil)
	return s, nil
}

// GenerateAnswer returns the response text for question. A question with
// no match at or above the policy threshold returns the not-found message
// and is recorded in the question log. Errors from embedding the query are
// returned wrapped in ErrRetrieval.
func (s *Service) GenerateAnswer(ctx context.Context, question string) (string, error) {
	done := metrics.TimeQuery(s.recorder)
	if strings.TrimSpace(question) == "" {
		done(metrics.OutcomeError)
		return "", core.ErrEmptyQuestion
	}

	matches, err := s.retrieve(ctx, question)
	if err != nil {
		done(metrics.OutcomeError)
		s.logger.Error("retrieval failed", "question", question, "err", err)
		return "", err
	}

	text, found := s.composer.Compose(matches)
	if !found {
		done(metrics.OutcomeMiss)
		s.logger.Info("no answer found", "question", question)
		s.logMiss(ctx, question)
		return text, nil
	}
	done(metrics.OutcomeHit)
	s.logger.Debug("answer found",
		"question", question,
		"match", matches[0].Question,
		"similarity", matches[0].Similarity)
	return text, nil
}

// Retrieve returns the resolved matches for question without composing a
// response or logging a miss.
func (s *Service) Retrieve(ctx context.Context, question string) ([]core.RankedMatch, error) {
	if strings.TrimSpace(question) == "" {
		return nil, core.ErrEmptyQuestion
	}
	return s.retrieve(ctx, question)
}

func (s *Service) retrieve(ctx context.Context, question string) ([]core.RankedMatch, error) {
	vec, err := s.embedder.EmbedText(ctx, s.normalizer.Normalize(question))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if dim := s.kb.Dimension(); !s.kb.Degraded() && dim > 0 && len(vec) != dim {
		return nil, fmt.Errorf("%w: %w: query has %d, corpus has %d",
			ErrRetrieval, search.ErrDimensionMismatch, len(vec), dim)
	}
	policy := s.composer.Policy()
	matches := s.ranker.Rank(vec, s.kb.Embeddings(), policy.TopK, policy.Threshold)
	return s.kb.Resolve(matches), nil
}

// logMiss hands the question to the question log. The write runs detached
// from ctx so that an ending request does not cut the retry budget short.
func (s *Service) logMiss(ctx context.Context, question string) {
	if s.questionLog == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	record := func() {
		if _, err := s.questionLog.Record(detached, question); err != nil {
			s.logger.Error("failed to record unanswered question", "question", question, "err", err)
		}
	}
	if s.pool == nil {
		record()
		return
	}
	s.pending.Add(1)
	err := s.pool.Submit(func() {
		defer s.pending.Done()
		record()
	})
	if err != nil {
		s.pending.Done()
		s.logger.Warn("logging pool unavailable, recording inline", "err", err)
		record()
	}
}

// Flush blocks until every queued miss has been recorded.
func (s *Service) Flush() {
	s.pending.Wait()
}

// KnowledgeBase returns the loaded knowledge base.
func (s *Service) KnowledgeBase() *knowledge.KnowledgeBase {
	return s.kb
}

// KnowledgeBaseSize returns the number of loaded entries.
func (s *Service) KnowledgeBaseSize() int {
	return s.kb.Len()
}

// Degraded reports whether the knowledge base fell back to zero vectors.
func (s *Service) Degraded() bool {
	return s.kb.Degraded()
}

// QuestionLog returns the question log, or nil when logging is disabled.
func (s *Service) QuestionLog() *questionlog.Log {
	return s.questionLog
}

// UnansweredCount returns the number of UNANSWERED rows in the log.
func (s *Service) UnansweredCount(ctx context.Context) int {
	if s.questionLog == nil {
		return 0
	}
	return s.questionLog.CountUnanswered(ctx)
}

// Questions returns every logged question.
func (s *Service) Questions(ctx context.Context) []core.LogRecord {
	if s.questionLog == nil {
		return []core.LogRecord{}
	}
	return s.questionLog.ListAll(ctx)
}

// MarkAnswered flags the first logged row matching question as ANSWERED.
func (s *Service) MarkAnswered(ctx context.Context, question, note string) bool {
	if s.questionLog == nil {
		return false
	}
	return s.questionLog.MarkAnswered(ctx, question, note)
}

// MergePending moves spilled questions into the durable log.
func (s *Service) MergePending(ctx context.Context) (int, error) {
	if s.questionLog == nil {
		return 0, nil
	}
	return s.questionLog.MergePending(ctx)
}

// Stats returns a snapshot of the service state.
func (s *Service) Stats(ctx context.Context) Stats {
	st := Stats{
		KnowledgeBaseSize: s.kb.Len(),
		Degraded:          s.kb.Degraded(),
		LoggingEnabled:    s.questionLog != nil,
	}
	if s.questionLog != nil {
		st.Unanswered = s.questionLog.CountUnanswered(ctx)
		st.PendingOverflow = s.questionLog.HasPending()
	}
	return st
}

// Close waits for queued log writes, stops the worker pool and releases
// any resources the service opened.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.Flush()
		if s.pool != nil {
			s.pool.Release()
		}
		var errs []error
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
