package question

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/agora/internal/domain"
	"github.com/kailas-cloud/agora/internal/domain/vote"
)

// Input limits for new questions.
const (
	MaxTitleLength = 300
	MaxBodyLength  = 20000
)

// Question is a forum question with its aggregate counters.
type Question struct {
	id             string
	title          string
	body           string
	forumID        string
	forumName      string
	authorID       string
	authorUsername string
	counts         vote.Counts
	answerCount    int
	createdAt      time.Time
}

// Reconstruct restores a Question from storage without validation.
func Reconstruct(
	id, title, body string,
	forumID, forumName, authorID, authorUsername string,
	upvotes, downvotes, answers int,
	createdAt time.Time,
) Question {
	return Question{
		id:             id,
		title:          title,
		body:           body,
		forumID:        forumID,
		forumName:      forumName,
		authorID:       authorID,
		authorUsername: authorUsername,
		counts:         vote.Counts{Upvotes: upvotes, Downvotes: downvotes},
		answerCount:    answers,
		createdAt:      createdAt,
	}
}

// ID returns the question identifier.
func (q *Question) ID() string { return q.id }

// Title returns the question title.
func (q *Question) Title() string { return q.title }

// Body returns the question body.
func (q *Question) Body() string { return q.body }

// ForumID returns the owning forum identifier.
func (q *Question) ForumID() string { return q.forumID }

// ForumName returns the owning forum name.
func (q *Question) ForumName() string { return q.forumName }

// AuthorID returns the author identifier.
func (q *Question) AuthorID() string { return q.authorID }

// AuthorUsername returns the author's username.
func (q *Question) AuthorUsername() string { return q.authorUsername }

// Counts returns the vote counters.
func (q *Question) Counts() vote.Counts { return q.counts }

// Score is always upvotes minus downvotes.
func (q *Question) Score() int { return q.counts.Score() }

// AnswerCount returns the number of answers.
func (q *Question) AnswerCount() int { return q.answerCount }

// CreatedAt returns the creation time.
func (q *Question) CreatedAt() time.Time { return q.createdAt }

// WithCounts returns a copy of q carrying the given counters.
func (q Question) WithCounts(c vote.Counts) Question {
	q.counts = c
	return q
}

// EmbeddingText is the text embedded for semantic search.
func (q *Question) EmbeddingText() string {
	return q.title + "\n\n" + q.body
}

// Draft is a validated request to create a question.
type Draft struct {
	Title    string
	Body     string
	ForumID  string
	AuthorID string
}

// NewDraft validates a question creation request.
func NewDraft(title, body, forumID, authorID string) (Draft, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return Draft{}, fmt.Errorf("title is required: %w", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Draft{}, fmt.Errorf("title too long (max %d chars): %w", MaxTitleLength, domain.ErrInvalidRequest)
	}
	if body == "" {
		return Draft{}, fmt.Errorf("body is required: %w", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return Draft{}, fmt.Errorf("body too long (max %d chars): %w", MaxBodyLength, domain.ErrInvalidRequest)
	}
	if forumID == "" {
		return Draft{}, fmt.Errorf("forum_id is required: %w", domain.ErrInvalidRequest)
	}
	return Draft{Title: title, Body: body, ForumID: forumID, AuthorID: authorID}, nil
}

// View is a question annotated with the caller's vote.
type View struct {
	Question
	UserVote vote.Value
}

// Annotate pairs each question with its vote from votes (absent votes become None).
func Annotate(qs []Question, votes map[string]vote.Value) []View {
	views := make([]View, len(qs))
	for i, q := range qs {
		v, ok := votes[q.id]
		if !ok {
			v = vote.None
		}
		views[i] = View{Question: q, UserVote: v}
	}
	return views
}

// OrderByIDs returns the questions in the order of ids, skipping ids with no question.
func OrderByIDs(qs []Question, ids []string) []Question {
	byID := make(map[string]Question, len(qs))
	for _, q := range qs {
		byID[q.id] = q
	}
	ordered := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// Page is an ordered slice of questions with pagination metadata.
type Page struct {
	Questions  []View
	Number     int
	TotalPages int
}
