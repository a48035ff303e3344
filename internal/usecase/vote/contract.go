package vote

import (
	"context"

	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/vote"
)

// QuestionGetter loads the question being voted on.
type QuestionGetter interface {
	Get(ctx context.Context, id string) (domq.Question, error)
}

// Store reads and writes vote records.
type Store interface {
	Get(ctx context.Context, userID, questionID string) (vote.Value, error)
	// Apply writes the record only if the stored vote still equals t.From,
	// failing with domain.ErrVoteChanged otherwise.
	Apply(ctx context.Context, userID, questionID string, t vote.Transition) (vote.Counts, error)
}
