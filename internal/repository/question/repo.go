package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/agora/internal/db"
	"github.com/kailas-cloud/agora/internal/db/postgres"
	"github.com/kailas-cloud/agora/internal/domain"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/search"
)

// store is the consumer interface for the PostgreSQL store (ISP).
type store interface {
	DB(ctx context.Context) *gorm.DB
	WithTimeout(ctx context.Context) (context.Context, context.CancelFunc)
}

// Repo implements the question store used by the search and question usecases.
type Repo struct {
	store store
}

// New creates a question repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SimilaritySearch returns questions whose embedding is at least threshold-similar
// to vector, nearest first. Ties on distance are broken by id.
func (r *Repo) SimilaritySearch(
	ctx context.Context, vector []float32, forumID string, threshold float64, limit int,
) ([]search.Match, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	vec := postgres.VectorLiteral(vector)
	tx := r.store.DB(ctx).Table("questions").
		Select("questions.id AS question_id, 1 - (questions.embedding <=> ?::vector) AS similarity", vec).
		Where("questions.embedding IS NOT NULL").
		Where("1 - (questions.embedding <=> ?::vector) >= ?", vec, threshold)
	if forumID != "" {
		tx = tx.Where(clause.Eq{Column: colForumID, Value: forumID})
	}

	var rows []matchRow
	err := tx.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                "questions.embedding <=> ?::vector, questions.id",
		Vars:               []any{vec},
		WithoutParentheses: true,
	}}).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", postgres.Translate(db.OpSelect, err))
	}

	matches := make([]search.Match, len(rows))
	for i, row := range rows {
		matches[i] = row.toDomain()
	}
	return matches, nil
}

// FilterByKeywords returns the subset of ids whose question contains every word.
// The result is unordered.
func (r *Repo) FilterByKeywords(ctx context.Context, ids, words []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(words) == 0 {
		return ids, nil
	}
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var out []string
	err := r.store.DB(ctx).Table("questions").
		Where(clause.IN{Column: colID, Values: toAny(ids)}).
		Where(keywordCondition(words)).
		Pluck("questions.id", &out).Error
	if err != nil {
		return nil, fmt.Errorf("filter by keywords: %w", postgres.Translate(db.OpSelect, err))
	}
	return out, nil
}

// List returns one page of questions matching f in the given order.
func (r *Repo) List(ctx context.Context, f domq.Filter, s domq.Sort, offset, limit int) ([]domq.Question, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var rows []questionRow
	err := listQuery(r.store.DB(ctx), f, s).Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", postgres.Translate(db.OpSelect, err))
	}
	return toDomain(rows), nil
}

// Count returns the number of questions matching f.
func (r *Repo) Count(ctx context.Context, f domq.Filter) (int, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var n int64
	if err := countQuery(r.store.DB(ctx), f).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count questions: %w", postgres.Translate(db.OpSelect, err))
	}
	return int(n), nil
}

// GetByIDs returns the questions with the given ids, in no particular order.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]domq.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var rows []questionRow
	err := withAuthorAndForum(r.store.DB(ctx)).
		Where(clause.IN{Column: colID, Values: toAny(ids)}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get questions by ids: %w", postgres.Translate(db.OpSelect, err))
	}
	return toDomain(rows), nil
}

// Get returns a question by id. Malformed ids are reported as not found.
func (r *Repo) Get(ctx context.Context, id string) (domq.Question, error) {
	if uuid.Validate(id) != nil {
		return domq.Question{}, domain.ErrQuestionNotFound
	}
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var row questionRow
	err := withAuthorAndForum(r.store.DB(ctx)).
		Where(clause.Eq{Column: colID, Value: id}).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domq.Question{}, domain.ErrQuestionNotFound
		}
		return domq.Question{}, fmt.Errorf("get question %s: %w", id, postgres.Translate(db.OpSelect, err))
	}
	return row.toDomain(), nil
}

// Create inserts a question and returns it with its forum and author names.
func (r *Repo) Create(ctx context.Context, d domq.Draft) (domq.Question, error) {
	m := questionModel{
		ID:       uuid.NewString(),
		Title:    d.Title,
		Body:     d.Body,
		ForumID:  d.ForumID,
		AuthorID: d.AuthorID,
	}

	insertCtx, cancel := r.store.WithTimeout(ctx)
	err := r.store.DB(insertCtx).Create(&m).Error
	cancel()
	if err != nil {
		err = postgres.Translate(db.OpInsert, err)
		if errors.Is(err, db.ErrForeignKey) || errors.Is(err, db.ErrInvalidInput) {
			return domq.Question{}, fmt.Errorf("unknown forum or author: %w", domain.ErrInvalidRequest)
		}
		return domq.Question{}, fmt.Errorf("insert question: %w", err)
	}

	return r.Get(ctx, m.ID)
}

// SetEmbedding stores the question's embedding.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vector []float32) error {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	res := r.store.DB(ctx).Exec(
		"UPDATE questions SET embedding = ?::vector WHERE id = ?",
		postgres.VectorLiteral(vector), id,
	)
	if res.Error != nil {
		return fmt.Errorf("set embedding %s: %w", id, postgres.Translate(db.OpUpdate, res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// ListUnanswered returns up to limit questions without answers, oldest first.
func (r *Repo) ListUnanswered(ctx context.Context, limit int) ([]domq.Question, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var rows []questionRow
	err := withAuthorAndForum(unansweredQuery(r.store.DB(ctx))).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: colCreatedAt}, {Column: colID}}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unanswered: %w", postgres.Translate(db.OpSelect, err))
	}
	return toDomain(rows), nil
}

// CountUnanswered returns the number of questions without answers.
func (r *Repo) CountUnanswered(ctx context.Context) (int, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var n int64
	if err := unansweredQuery(r.store.DB(ctx)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count unanswered: %w", postgres.Translate(db.OpSelect, err))
	}
	return int(n), nil
}

// ForumExists reports whether a forum with id exists.
func (r *Repo) ForumExists(ctx context.Context, id string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.store.DB(ctx).Table("forums").Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("forum exists %s: %w", id, postgres.Translate(db.OpSelect, err))
	}
	return n > 0, nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
