// Package vote persists per-user question votes and applies counter deltas.
package vote

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/agora/internal/db"
	"github.com/kailas-cloud/agora/internal/db/postgres"
	"github.com/kailas-cloud/agora/internal/domain"
	domvote "github.com/kailas-cloud/agora/internal/domain/vote"
)

// store is the consumer interface for the PostgreSQL store (ISP).
type store interface {
	DB(ctx context.Context) *gorm.DB
	WithTimeout(ctx context.Context) (context.Context, context.CancelFunc)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// record is a row of question_votes. A missing row means no vote.
type record struct {
	UserID     string `gorm:"primaryKey"`
	QuestionID string `gorm:"primaryKey"`
	VoteType   string
}

func (record) TableName() string { return "question_votes" }

type countsRow struct {
	UpvoteCount   int
	DownvoteCount int
}

// Repo implements the vote store.
type Repo struct {
	store store
}

// New creates a vote repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get returns the user's vote on a question, or vote.None.
func (r *Repo) Get(ctx context.Context, userID, questionID string) (domvote.Value, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var recs []record
	err := r.store.DB(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return domvote.None, fmt.Errorf("get vote: %w", postgres.Translate(db.OpSelect, err))
	}
	if len(recs) == 0 {
		return domvote.None, nil
	}
	return domvote.Value(recs[0].VoteType), nil
}

// GetMany returns the user's votes on the given questions. Questions without a vote are absent.
func (r *Repo) GetMany(ctx context.Context, userID string, questionIDs []string) (map[string]domvote.Value, error) {
	votes := make(map[string]domvote.Value, len(questionIDs))
	if userID == "" || len(questionIDs) == 0 {
		return votes, nil
	}
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var recs []record
	err := r.store.DB(ctx).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("get votes: %w", postgres.Translate(db.OpSelect, err))
	}
	for _, rec := range recs {
		votes[rec.QuestionID] = domvote.Value(rec.VoteType)
	}
	return votes, nil
}

// Apply persists the transition and its counter deltas in one transaction and
// returns the counts after the update.
//
// The vote record write only succeeds if the stored vote still equals t.From;
// otherwise nothing is written and domain.ErrVoteChanged is returned.
func (r *Repo) Apply(ctx context.Context, userID, questionID string, t domvote.Transition) (domvote.Counts, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var counts domvote.Counts
	err := r.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := writeRecord(tx, userID, questionID, t); err != nil {
			return err
		}

		var row countsRow
		res := tx.Raw(
			`UPDATE questions
			    SET upvote_count = upvote_count + ?, downvote_count = downvote_count + ?
			  WHERE id = ?
			  RETURNING upvote_count, downvote_count`,
			t.UpvoteDelta, t.DownvoteDelta, questionID,
		).Scan(&row)
		if res.Error != nil {
			return fmt.Errorf("update counters: %w", postgres.Translate(db.OpUpdate, res.Error))
		}
		if res.RowsAffected == 0 {
			return domain.ErrQuestionNotFound
		}
		counts = domvote.Counts{Upvotes: row.UpvoteCount, Downvotes: row.DownvoteCount}
		return nil
	})
	if errors.Is(err, errUnknownReference) {
		err = r.missingReference(ctx, questionID)
	}
	if err != nil {
		return domvote.Counts{}, err
	}
	return counts, nil
}

// errUnknownReference marks a vote row rejected by a foreign key; the
// transaction is aborted by then, so the culprit is looked up afterwards.
var errUnknownReference = errors.New("vote references an unknown row")

// missingReference tells an unknown question from an unknown voter.
func (r *Repo) missingReference(ctx context.Context, questionID string) error {
	var exists bool
	err := r.store.DB(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM questions WHERE id = ?)", questionID).
		Scan(&exists).Error
	if err != nil {
		return fmt.Errorf("check question: %w", postgres.Translate(db.OpSelect, err))
	}
	if !exists {
		return domain.ErrQuestionNotFound
	}
	return fmt.Errorf("unknown user: %w", domain.ErrUnauthenticated)
}

// writeRecord performs the conditional insert, update or delete of the vote row.
func writeRecord(tx *gorm.DB, userID, questionID string, t domvote.Transition) error {
	var res *gorm.DB
	op := db.OpUpdate
	switch t.Action() {
	case domvote.Insert:
		op = db.OpInsert
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record{
			UserID:     userID,
			QuestionID: questionID,
			VoteType:   string(t.To),
		})
	case domvote.Update:
		res = tx.Model(&record{}).
			Where("user_id = ? AND question_id = ? AND vote_type = ?", userID, questionID, string(t.From)).
			Update("vote_type", string(t.To))
	case domvote.Delete:
		op = db.OpDelete
		res = tx.Where("user_id = ? AND question_id = ? AND vote_type = ?", userID, questionID, string(t.From)).
			Delete(&record{})
	}

	if res.Error != nil {
		err := postgres.Translate(op, res.Error)
		if errors.Is(err, db.ErrForeignKey) {
			return errUnknownReference
		}
		return fmt.Errorf("write vote: %w", err)
	}
	if res.RowsAffected == 0 {
		return domain.ErrVoteChanged
	}
	return nil
}
