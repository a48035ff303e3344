package question

import (
	"time"

	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/search"
)

// selectColumns is the public projection of a question joined with its forum and author.
const selectColumns = "questions.id, questions.title, questions.body, " +
	"questions.forum_id, forums.name AS forum_name, " +
	"questions.author_id, users.username AS author_username, " +
	"questions.upvote_count, questions.downvote_count, questions.answer_count, questions.created_at"

// questionRow is the scan target for selectColumns.
type questionRow struct {
	ID             string
	Title          string
	Body           string
	ForumID        string
	ForumName      string
	AuthorID       string
	AuthorUsername string
	UpvoteCount    int
	DownvoteCount  int
	AnswerCount    int
	CreatedAt      time.Time
}

func (r questionRow) toDomain() domq.Question {
	return domq.Reconstruct(
		r.ID, r.Title, r.Body,
		r.ForumID, r.ForumName, r.AuthorID, r.AuthorUsername,
		r.UpvoteCount, r.DownvoteCount, r.AnswerCount,
		r.CreatedAt.UTC(),
	)
}

func toDomain(rows []questionRow) []domq.Question {
	out := make([]domq.Question, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

// questionModel is the insert shape of a question.
type questionModel struct {
	ID       string `gorm:"primaryKey"`
	Title    string
	Body     string
	ForumID  string
	AuthorID string
}

func (questionModel) TableName() string { return "questions" }

type matchRow struct {
	QuestionID string
	Similarity float64
}

func (r matchRow) toDomain() search.Match {
	return search.Match{QuestionID: r.QuestionID, Similarity: r.Similarity}
}
