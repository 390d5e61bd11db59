package openai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/answerdesk/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingServer answers /v1/embeddings with a vector of [len(input), 0, 3, 4]
// for every input.
func fakeEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			data[i] = datum{Object: "embedding", Embedding: []float32{0, 0, 3, 4}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingModel("")))
	require.Error(t, err)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	srv := fakeEmbeddingServer(t)
	defer srv.Close()

	t.Run("normalized", func(t *testing.T) {
		e, err := newEmbedder(ai.NewConfig(
			ai.WithEmbeddingHost(srv.URL),
			ai.WithDimension(0),
		))
		require.NoError(t, err)

		vecs, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.InDeltaSlice(t, []float32{0, 0, 0.6, 0.8}, vecs[0], 1e-6)
		assert.Equal(t, 4, e.Dimension())
		assert.True(t, e.UnitLength())
	})

	t.Run("raw", func(t *testing.T) {
		e, err := newEmbedder(ai.NewConfig(
			ai.WithEmbeddingHost(srv.URL),
			ai.WithNormalizeEmbeddings(false),
		))
		require.NoError(t, err)

		vec, err := e.EmbedText(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 3, 4}, vec)
		assert.False(t, e.UnitLength())

		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		assert.Equal(t, 5.0, math.Sqrt(norm))
	})

	t.Run("empty batch", func(t *testing.T) {
		e, err := newEmbedder(ai.NewConfig(ai.WithEmbeddingHost(srv.URL)))
		require.NoError(t, err)
		vecs, err := e.EmbedTexts(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})
}

func TestEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(srv.URL)))
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "a")
	require.Error(t, err)
	assert.Nil(t, vec)
}
