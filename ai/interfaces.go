package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails; callers must not
	// substitute a placeholder vector on error.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts,
	// and each element must be numerically consistent with EmbedText for the
	// same input.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the length of produced vectors, or 0 if it is not
	// known until the first call.
	Dimension() int
}

// UnitNormalizer is implemented by embedders that can report whether their
// output is scaled to unit length.
type UnitNormalizer interface {
	// UnitLength reports whether every produced vector has norm 1 (or is all zeros).
	UnitLength() bool
}

// IsUnitLength reports whether e declares unit-length output.
func IsUnitLength(e Embedder) bool {
	u, ok := e.(UnitNormalizer)
	return ok && u.UnitLength()
}
