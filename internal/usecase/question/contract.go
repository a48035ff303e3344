package question

import (
	"context"

	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/vote"
)

// Repository is the storage contract for question listing and creation.
type Repository interface {
	List(ctx context.Context, f domq.Filter, s domq.Sort, offset, limit int) ([]domq.Question, error)
	Count(ctx context.Context, f domq.Filter) (int, error)
	Get(ctx context.Context, id string) (domq.Question, error)
	Create(ctx context.Context, d domq.Draft) (domq.Question, error)
	ListUnanswered(ctx context.Context, limit int) ([]domq.Question, error)
	CountUnanswered(ctx context.Context) (int, error)
	ForumExists(ctx context.Context, id string) (bool, error)
}

// VoteReader reads the caller's votes.
type VoteReader interface {
	Get(ctx context.Context, userID, questionID string) (vote.Value, error)
	GetMany(ctx context.Context, userID string, questionIDs []string) (map[string]vote.Value, error)
}

// Indexer attaches embeddings to new questions in the background.
type Indexer interface {
	Submit(questionID, text string)
}
