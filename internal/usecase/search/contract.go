package search

import (
	"context"

	"github.com/kailas-cloud/agora/internal/domain"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/search"
	"github.com/kailas-cloud/agora/internal/domain/vote"
)

// QuestionStore is the storage contract for ranked search.
type QuestionStore interface {
	SimilaritySearch(
		ctx context.Context, vector []float32, forumID string, threshold float64, limit int,
	) ([]search.Match, error)

	// FilterByKeywords returns the ids that contain every word. Order is not significant.
	FilterByKeywords(ctx context.Context, ids, words []string) ([]string, error)

	// GetByIDs returns the questions in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]domq.Question, error)
}

// VoteReader reads the caller's votes.
type VoteReader interface {
	GetMany(ctx context.Context, userID string, questionIDs []string) (map[string]vote.Value, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
