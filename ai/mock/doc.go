// Package mock provides test double implementations of ai.Embedder.
//
// # Usage in Tests
//
//	// Deterministic hash-based vectors
//	embedder := mock.NewMockEmbedder()
//	vec, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Hand-chosen vectors
//	static := mock.NewStaticEmbedder(map[string][]float32{
//	    "WiFi password?": {1, 0},
//	    "VPN setup":      {0, 1},
//	})
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - StaticEmbedder: Returns registered vectors, ErrUnknownText otherwise
package mock
