package domain

import (
	"context"
	"fmt"
)

// MaxEmbeddingInputChars caps the text submitted to the embedding provider.
const MaxEmbeddingInputChars = 32000

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// UnavailableEmbedder is the embedder used when no provider credential is configured.
// Every call fails with ErrEmbeddingUnavailable.
type UnavailableEmbedder struct{}

// Embed always returns ErrEmbeddingUnavailable.
func (UnavailableEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{}, fmt.Errorf("embedding model not configured: %w", ErrEmbeddingUnavailable)
}

// HealthCheck reports the embedder as unavailable.
func (UnavailableEmbedder) HealthCheck(context.Context) error {
	return ErrEmbeddingUnavailable
}

// IsConfigured reports whether e can produce embeddings at all.
func IsConfigured(e Embedder) bool {
	switch e.(type) {
	case nil, UnavailableEmbedder, *UnavailableEmbedder:
		return false
	}
	return true
}

// TruncateInput cuts text to MaxEmbeddingInputChars characters.
func TruncateInput(text string) string {
	if len(text) <= MaxEmbeddingInputChars {
		return text
	}
	n := 0
	for i := range text {
		if n == MaxEmbeddingInputChars {
			return text[:i]
		}
		n++
	}
	return text
}
