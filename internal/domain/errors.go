package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuestionNotFound signals a missing question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrForumNotFound signals a missing forum.
	ErrForumNotFound = errors.New("forum not found")
	// ErrPageNotFound signals a page number beyond the last page.
	ErrPageNotFound = errors.New("page not found")

	// ErrAlreadyVoted signals that the requested vote equals the current one.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrVoteChanged signals that the stored vote changed between read and write.
	ErrVoteChanged = errors.New("vote changed concurrently")

	// ErrNoVoteToRemove signals a "none" vote request without an existing vote.
	ErrNoVoteToRemove = errors.New("no vote to remove")
	// ErrInvalidRequest signals malformed input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthenticated signals a missing caller identity on a protected operation.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrEmbeddingUnavailable signals an unconfigured, unreachable or timed-out embedding service.
	ErrEmbeddingUnavailable = errors.New("semantic search is not available")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// PageNotFoundError wraps ErrPageNotFound with the valid page count.
type PageNotFoundError struct {
	Page       int
	TotalPages int
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %d not found. Total pages: %d", e.Page, e.TotalPages)
}

func (e *PageNotFoundError) Unwrap() error { return ErrPageNotFound }

// NewPageNotFound creates a page-not-found error.
func NewPageNotFound(page, totalPages int) error {
	return &PageNotFoundError{Page: page, TotalPages: totalPages}
}

// VoteConflictError wraps ErrAlreadyVoted with the vote that already exists.
type VoteConflictError struct {
	Vote string
}

func (e *VoteConflictError) Error() string {
	return "already " + e.Vote + "voted"
}

func (e *VoteConflictError) Unwrap() error { return ErrAlreadyVoted }

// NewVoteConflict creates an already-voted error for "up" or "down".
func NewVoteConflict(vote string) error {
	return &VoteConflictError{Vote: vote}
}

// LimitExceededError wraps ErrInvalidRequest when a limit exceeds the available items.
type LimitExceededError struct {
	Requested int
	Available int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("requested %d but only %d unanswered questions exist", e.Requested, e.Available)
}

func (e *LimitExceededError) Unwrap() error { return ErrInvalidRequest }
