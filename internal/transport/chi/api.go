package chi

import (
	"time"

	domq "github.com/kailas-cloud/agora/internal/domain/question"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeQuestionNotFound  ErrorCode = "question_not_found"
	CodeForumNotFound     ErrorCode = "forum_not_found"
	CodePageNotFound      ErrorCode = "page_not_found"
	CodeAlreadyVoted      ErrorCode = "already_voted"
	CodeVoteConflict      ErrorCode = "vote_conflict"
	CodeNoVoteToRemove    ErrorCode = "no_vote_to_remove"
	CodeSearchUnavailable ErrorCode = "search_unavailable"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// TotalPages is set for page_not_found.
	TotalPages *int `json:"total_pages,omitempty"`
	// Available is set when a limit exceeds the number of unanswered questions.
	Available *int `json:"available,omitempty"`
}

// QuestionResponse is the public representation of a question.
type QuestionResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	ForumID        string    `json:"forum_id"`
	ForumName      string    `json:"forum_name"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	UpvoteCount    int       `json:"upvote_count"`
	DownvoteCount  int       `json:"downvote_count"`
	Score          int       `json:"score"`
	AnswerCount    int       `json:"answer_count"`
	CreatedAt      time.Time `json:"created_at"`
	UserVote       *string   `json:"user_vote"`
}

// PageResponse is one page of questions.
type PageResponse struct {
	Questions  []QuestionResponse `json:"questions"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// CreateQuestionRequest is the body of POST /api/v1/questions.
type CreateQuestionRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	ForumID string `json:"forum_id"`
}

// VoteRequest is the body of POST /api/v1/questions/{id}/vote.
// Vote is required; "none" removes the current vote.
type VoteRequest struct {
	Vote *string `json:"vote"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func questionToResponse(v *domq.View) QuestionResponse {
	c := v.Counts()
	return QuestionResponse{
		ID:             v.ID(),
		Title:          v.Title(),
		Body:           v.Body(),
		ForumID:        v.ForumID(),
		ForumName:      v.ForumName(),
		AuthorID:       v.AuthorID(),
		AuthorUsername: v.AuthorUsername(),
		UpvoteCount:    c.Upvotes,
		DownvoteCount:  c.Downvotes,
		Score:          c.Score(),
		AnswerCount:    v.AnswerCount(),
		CreatedAt:      v.CreatedAt().UTC(),
		UserVote:       v.UserVote.Ptr(),
	}
}

func questionsToResponse(views []domq.View) []QuestionResponse {
	out := make([]QuestionResponse, len(views))
	for i := range views {
		out[i] = questionToResponse(&views[i])
	}
	return out
}

func pageToResponse(p domq.Page) PageResponse {
	return PageResponse{
		Questions:  questionsToResponse(p.Questions),
		Page:       p.Number,
		TotalPages: p.TotalPages,
	}
}
