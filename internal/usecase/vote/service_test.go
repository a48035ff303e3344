package vote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/agora/internal/domain"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/vote"
	"github.com/kailas-cloud/agora/internal/metrics"
)

// --- Mocks ---

type mockQuestions struct {
	err error
}

func (m *mockQuestions) Get(_ context.Context, id string) (domq.Question, error) {
	if m.err != nil {
		return domq.Question{}, m.err
	}
	return domq.Reconstruct(id, "t", "b", "f1", "general", "author", "ada", 0, 0, 0, time.Unix(0, 0)), nil
}

// memStore keeps one user's votes and counts in memory. Each entry in races
// is written as the stored vote right before the next Apply, simulating a
// concurrent request that wins the race.
type memStore struct {
	votes  map[string]vote.Value
	counts vote.Counts
	races  []vote.Value

	getErr   error
	applyErr error
	applied  int
}

func newMemStore(current vote.Value, counts vote.Counts) *memStore {
	s := &memStore{votes: map[string]vote.Value{}, counts: counts}
	if current != vote.None {
		s.votes["q1"] = current
	}
	return s
}

func (s *memStore) Get(_ context.Context, _, questionID string) (vote.Value, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	if v, ok := s.votes[questionID]; ok {
		return v, nil
	}
	return vote.None, nil
}

func (s *memStore) Apply(_ context.Context, _, questionID string, t vote.Transition) (vote.Counts, error) {
	if s.applyErr != nil {
		return vote.Counts{}, s.applyErr
	}
	if len(s.races) > 0 {
		s.set(questionID, s.races[0])
		s.races = s.races[1:]
	}
	stored := vote.None
	if v, ok := s.votes[questionID]; ok {
		stored = v
	}
	if stored != t.From {
		return vote.Counts{}, domain.ErrVoteChanged
	}
	s.set(questionID, t.To)
	s.counts = s.counts.Apply(t)
	s.applied++
	return s.counts, nil
}

func (s *memStore) set(id string, v vote.Value) {
	if v.IsNone() {
		delete(s.votes, id)
		return
	}
	s.votes[id] = v
}

// --- Tests ---

func TestVote_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		current   vote.Value
		requested vote.Value
		start     vote.Counts
		want      vote.Counts
	}{
		{"absent to up", vote.None, vote.Up, vote.Counts{}, vote.Counts{Upvotes: 1}},
		{"down to up", vote.Down, vote.Up, vote.Counts{Downvotes: 1}, vote.Counts{Upvotes: 1}},
		{"up to none", vote.Up, vote.None, vote.Counts{Upvotes: 3}, vote.Counts{Upvotes: 2}},
		{"up to down", vote.Up, vote.Down, vote.Counts{Upvotes: 1}, vote.Counts{Downvotes: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(tt.current, tt.start)
			svc := New(&mockQuestions{}, store)

			v, err := svc.Vote(context.Background(), "u1", "q1", tt.requested)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Counts() != tt.want {
				t.Errorf("counts = %+v, want %+v", v.Counts(), tt.want)
			}
			if v.Score() != tt.want.Upvotes-tt.want.Downvotes {
				t.Errorf("score = %d", v.Score())
			}
			if v.UserVote != tt.requested {
				t.Errorf("user vote = %q, want %q", v.UserVote, tt.requested)
			}
		})
	}
}

func TestVote_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		current   vote.Value
		requested vote.Value
		want      error
		msg       string
	}{
		{"up twice", vote.Up, vote.Up, domain.ErrAlreadyVoted, "already upvoted"},
		{"down twice", vote.Down, vote.Down, domain.ErrAlreadyVoted, "already downvoted"},
		{"nothing to remove", vote.None, vote.None, domain.ErrNoVoteToRemove, "no vote to remove"},
		{"unknown value", vote.None, "sideways", domain.ErrInvalidRequest, ""},
		{"empty value", vote.None, "", domain.ErrInvalidRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(tt.current, vote.Counts{Upvotes: 1})
			svc := New(&mockQuestions{}, store)

			_, err := svc.Vote(context.Background(), "u1", "q1", tt.requested)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
			if store.applied != 0 {
				t.Error("rejected votes must not be applied")
			}
		})
	}
}

func TestVote_Unauthenticated(t *testing.T) {
	svc := New(&mockQuestions{}, newMemStore(vote.None, vote.Counts{}))
	if _, err := svc.Vote(context.Background(), "", "q1", vote.Up); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVote_QuestionNotFound(t *testing.T) {
	store := newMemStore(vote.None, vote.Counts{})
	svc := New(&mockQuestions{err: domain.ErrQuestionNotFound}, store)

	if _, err := svc.Vote(context.Background(), "u1", "missing", vote.Up); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if store.applied != 0 {
		t.Error("nothing may be applied for an unknown question")
	}
}

func TestVote_RetriesAfterConcurrentChange(t *testing.T) {
	// Another request upvotes between our read and write; the retry sees
	// the upvote and turns it into a downvote.
	store := newMemStore(vote.None, vote.Counts{})
	store.races = []vote.Value{vote.Up}
	store.counts = vote.Counts{Upvotes: 1}
	svc := New(&mockQuestions{}, store)

	before := testutil.ToFloat64(metrics.VoteRetriesTotal)

	v, err := svc.Vote(context.Background(), "u1", "q1", vote.Down)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Counts() != (vote.Counts{Downvotes: 1}) {
		t.Errorf("counts = %+v, want one downvote", v.Counts())
	}
	if got := testutil.ToFloat64(metrics.VoteRetriesTotal) - before; got != 1 {
		t.Errorf("retries = %f, want 1", got)
	}
}

func TestVote_RaceTurnsIntoConflict(t *testing.T) {
	// A concurrent request already cast the same vote; the retry decides
	// up/up and reports the conflict instead of double counting.
	store := newMemStore(vote.None, vote.Counts{Upvotes: 1})
	store.races = []vote.Value{vote.Up}
	svc := New(&mockQuestions{}, store)

	_, err := svc.Vote(context.Background(), "u1", "q1", vote.Up)
	if !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if store.counts.Upvotes != 1 {
		t.Errorf("upvotes = %d, want 1", store.counts.Upvotes)
	}
}

func TestVote_RetriesExhausted(t *testing.T) {
	store := newMemStore(vote.None, vote.Counts{})
	store.applyErr = domain.ErrVoteChanged
	svc := New(&mockQuestions{}, store)

	_, err := svc.Vote(context.Background(), "u1", "q1", vote.Up)
	if !errors.Is(err, domain.ErrVoteChanged) {
		t.Fatalf("expected ErrVoteChanged, got %v", err)
	}
}

func TestVote_StoreErrors(t *testing.T) {
	boom := errors.New("connection reset")

	store := newMemStore(vote.None, vote.Counts{})
	store.getErr = boom
	if _, err := New(&mockQuestions{}, store).Vote(context.Background(), "u1", "q1", vote.Up); !errors.Is(err, boom) {
		t.Errorf("get: expected wrapped error, got %v", err)
	}

	store = newMemStore(vote.None, vote.Counts{})
	store.applyErr = boom
	if _, err := New(&mockQuestions{}, store).Vote(context.Background(), "u1", "q1", vote.Up); !errors.Is(err, boom) {
		t.Errorf("apply: expected wrapped error, got %v", err)
	}
}

func TestVote_ScoreInvariant(t *testing.T) {
	store := newMemStore(vote.None, vote.Counts{Upvotes: 4, Downvotes: 1})
	svc := New(&mockQuestions{}, store)

	for _, next := range []vote.Value{vote.Up, vote.Down, vote.None, vote.Down, vote.Up, vote.None} {
		v, err := svc.Vote(context.Background(), "u1", "q1", next)
		if err != nil {
			t.Fatalf("%s: %v", next, err)
		}
		c := v.Counts()
		if v.Score() != c.Upvotes-c.Downvotes || c.Upvotes < 0 || c.Downvotes < 0 {
			t.Fatalf("invariant broken after %s: %+v score %d", next, c, v.Score())
		}
	}
	if store.counts != (vote.Counts{Upvotes: 4, Downvotes: 1}) {
		t.Errorf("counts after round trip = %+v", store.counts)
	}
}
