// Package vote applies vote transitions to questions.
package vote

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kailas-cloud/agora/internal/domain"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/vote"
	"github.com/kailas-cloud/agora/internal/metrics"
	"github.com/kailas-cloud/agora/internal/tracing"
)

// MaxAttempts bounds the read-decide-write loop when the stored vote keeps changing.
const MaxAttempts = 3

// Service applies vote requests.
type Service struct {
	questions QuestionGetter
	votes     Store
}

// New creates a vote service.
func New(questions QuestionGetter, votes Store) *Service {
	return &Service{questions: questions, votes: votes}
}

// Vote moves the caller's vote on a question to requested and returns the
// question with its updated counters and the caller's new vote.
func (s *Service) Vote(ctx context.Context, userID, questionID string, requested vote.Value) (_ domq.View, err error) {
	ctx, span := tracing.Start(ctx, "vote.Vote",
		attribute.String("vote.question_id", questionID),
		attribute.String("vote.requested", string(requested)),
	)
	defer func() { tracing.End(span, err) }()

	if userID == "" {
		return domq.View{}, domain.ErrUnauthenticated
	}
	if _, err := vote.Parse(string(requested)); err != nil {
		return domq.View{}, err
	}

	q, err := s.questions.Get(ctx, questionID)
	if err != nil {
		return domq.View{}, fmt.Errorf("get question: %w", err)
	}

	for attempt := 1; ; attempt++ {
		t, counts, err := s.attempt(ctx, userID, questionID, requested)
		if err == nil {
			span.SetAttributes(attribute.Int("vote.attempts", attempt))
			return domq.View{Question: q.WithCounts(counts), UserVote: t.To}, nil
		}
		if !errors.Is(err, domain.ErrVoteChanged) {
			return domq.View{}, err
		}
		if attempt == MaxAttempts {
			return domq.View{}, fmt.Errorf("vote on %s after %d attempts: %w", questionID, attempt, err)
		}
		metrics.VoteRetriesTotal.Inc()
	}
}

// attempt reads the current vote, decides the transition and applies it.
func (s *Service) attempt(
	ctx context.Context, userID, questionID string, requested vote.Value,
) (vote.Transition, vote.Counts, error) {
	current, err := s.votes.Get(ctx, userID, questionID)
	if err != nil {
		return vote.Transition{}, vote.Counts{}, fmt.Errorf("get vote: %w", err)
	}

	t, err := vote.Decide(current, requested)
	if err != nil {
		observe(current, requested, err)
		return vote.Transition{}, vote.Counts{}, err
	}

	counts, err := s.votes.Apply(ctx, userID, questionID, t)
	observe(t.From, t.To, err)
	if err != nil {
		return vote.Transition{}, vote.Counts{}, fmt.Errorf("apply vote: %w", err)
	}
	return t, counts, nil
}

func observe(from, to vote.Value, err error) {
	metrics.VoteTransitionsTotal.WithLabelValues(
		string(from.Normalize()), string(to.Normalize()), outcome(err),
	).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, domain.ErrNoVoteToRemove):
		return "no_vote"
	case errors.Is(err, domain.ErrVoteChanged):
		return "changed"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid"
	default:
		return "error"
	}
}
