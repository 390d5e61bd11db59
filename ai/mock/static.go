package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/poiesic/answerdesk/ai"
)

// ErrUnknownText is returned by StaticEmbedder for text without a vector.
var ErrUnknownText = errors.New("no vector registered for text")

// StaticEmbedder returns hand-chosen vectors keyed by exact text.
// It lets tests craft precise similarities, including boundary values.
type StaticEmbedder struct {
	mu       sync.RWMutex
	vectors  map[string][]float32
	fallback []float32
	dim      int
	err      error

	batchCalls  atomic.Int64
	singleCalls atomic.Int64
}

var _ ai.Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates an embedder for the given text-to-vector table.
// All vectors should share one dimension.
func NewStaticEmbedder(vectors map[string][]float32) *StaticEmbedder {
	s := &StaticEmbedder{vectors: make(map[string][]float32, len(vectors))}
	for text, v := range vectors {
		s.vectors[text] = v
		s.dim = len(v)
	}
	return s
}

// WithFallback sets the vector returned for unknown text instead of an error.
func (s *StaticEmbedder) WithFallback(v []float32) *StaticEmbedder {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = v
	if s.dim == 0 {
		s.dim = len(v)
	}
	return s
}

// Set registers or replaces the vector for text.
func (s *StaticEmbedder) Set(text string, v []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[text] = v
	s.dim = len(v)
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *StaticEmbedder) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// EmbedText returns the registered vector for text.
func (s *StaticEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	s.singleCalls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(text)
}

// EmbedTexts returns the registered vectors in input order.
func (s *StaticEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	s.batchCalls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.lookup(text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimension returns the length of the registered vectors.
func (s *StaticEmbedder) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// BatchCalls returns how many times EmbedTexts was called.
func (s *StaticEmbedder) BatchCalls() int { return int(s.batchCalls.Load()) }

// SingleCalls returns how many times EmbedText was called.
func (s *StaticEmbedder) SingleCalls() int { return int(s.singleCalls.Load()) }

func (s *StaticEmbedder) lookup(text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return append([]float32(nil), v...), nil
	}
	if s.fallback != nil {
		return append([]float32(nil), s.fallback...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownText, text)
}
