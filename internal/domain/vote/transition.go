package vote

import (
	"fmt"

	"github.com/kailas-cloud/agora/internal/domain"
)

// Action is the persistence step a transition requires on the vote record.
type Action int

// Persistence actions.
const (
	Insert Action = iota + 1
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Transition is a validated move from one vote state to another.
type Transition struct {
	From          Value
	To            Value
	UpvoteDelta   int
	DownvoteDelta int
}

// Decide validates moving from current to requested and computes counter deltas.
//
// Self-transitions are rejected: up/up and down/down with ErrAlreadyVoted,
// none/none with ErrNoVoteToRemove.
func Decide(current, requested Value) (Transition, error) {
	from := current.Normalize()
	to := requested.Normalize()
	if !from.IsValid() {
		return Transition{}, fmt.Errorf("current vote %q: %w", current, domain.ErrInvalidRequest)
	}
	if !to.IsValid() {
		return Transition{}, fmt.Errorf("requested vote %q: %w", requested, domain.ErrInvalidRequest)
	}

	if from == to {
		if to == None {
			return Transition{}, domain.ErrNoVoteToRemove
		}
		return Transition{}, domain.NewVoteConflict(string(to))
	}

	t := Transition{From: from, To: to}
	switch from {
	case Up:
		t.UpvoteDelta--
	case Down:
		t.DownvoteDelta--
	}
	switch to {
	case Up:
		t.UpvoteDelta++
	case Down:
		t.DownvoteDelta++
	}
	return t, nil
}

// Action returns the persistence step for the vote record.
func (t Transition) Action() Action {
	switch {
	case t.To.IsNone():
		return Delete
	case t.From.IsNone():
		return Insert
	default:
		return Update
	}
}

// Counts holds a question's aggregate vote counters.
type Counts struct {
	Upvotes   int
	Downvotes int
}

// Score returns upvotes minus downvotes.
func (c Counts) Score() int { return c.Upvotes - c.Downvotes }

// Apply returns the counts after the transition's deltas.
func (c Counts) Apply(t Transition) Counts {
	return Counts{
		Upvotes:   c.Upvotes + t.UpvoteDelta,
		Downvotes: c.Downvotes + t.DownvoteDelta,
	}
}
