package question

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/agora/internal/domain"
	"github.com/kailas-cloud/agora/internal/domain/vote"
)

func mk(id string) Question {
	return Reconstruct(id, "t-"+id, "b-"+id, "f1", "general", "u1", "alice", 0, 0, 0, time.Unix(0, 0))
}

func TestScoreDerivedFromCounts(t *testing.T) {
	q := Reconstruct("q1", "t", "b", "f", "forum", "a", "alice", 7, 3, 1, time.Now())
	if q.Score() != 4 {
		t.Errorf("Score() = %d, want 4", q.Score())
	}

	q2 := q.WithCounts(vote.Counts{Upvotes: 2, Downvotes: 5})
	if q2.Score() != -3 {
		t.Errorf("Score() after WithCounts = %d, want -3", q2.Score())
	}
	if q.Score() != 4 {
		t.Error("WithCounts must not mutate the receiver")
	}
}

func TestOrderByIDs(t *testing.T) {
	fetched := []Question{mk("b"), mk("c"), mk("a")}
	got := OrderByIDs(fetched, []string{"a", "missing", "b", "c"})

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID() != id {
			t.Errorf("[%d] = %s, want %s", i, got[i].ID(), id)
		}
	}
}

func TestAnnotate(t *testing.T) {
	views := Annotate([]Question{mk("a"), mk("b")}, map[string]vote.Value{"b": vote.Down})
	if views[0].UserVote != vote.None {
		t.Errorf("a vote = %q, want none", views[0].UserVote)
	}
	if views[1].UserVote != vote.Down {
		t.Errorf("b vote = %q, want down", views[1].UserVote)
	}
}

func TestNewDraft(t *testing.T) {
	if _, err := NewDraft(" Title ", " Body ", "f1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string][4]string{
		"empty title":   {"  ", "body", "f1", "u1"},
		"empty body":    {"title", "", "f1", "u1"},
		"missing forum": {"title", "body", "", "u1"},
		"long title":    {strings.Repeat("x", MaxTitleLength+1), "body", "f1", "u1"},
	}
	for name, c := range cases {
		if _, err := NewDraft(c[0], c[1], c[2], c[3]); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
}

func TestParseSort(t *testing.T) {
	if s, _ := ParseSort(""); s != SortTop {
		t.Errorf("default sort = %q, want top", s)
	}
	if s, _ := ParseSort("newest"); s != SortNewest {
		t.Errorf("newest = %q", s)
	}
	if _, err := ParseSort("oldest"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("oldest: got %v", err)
	}
}
