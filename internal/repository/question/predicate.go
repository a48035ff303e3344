package question

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domq "github.com/kailas-cloud/agora/internal/domain/question"
)

var (
	colID        = clause.Column{Table: "questions", Name: "id"}
	colTitle     = clause.Column{Table: "questions", Name: "title"}
	colBody      = clause.Column{Table: "questions", Name: "body"}
	colForumID   = clause.Column{Table: "questions", Name: "forum_id"}
	colCreatedAt = clause.Column{Table: "questions", Name: "created_at"}
	colAnswers   = clause.Column{Table: "questions", Name: "answer_count"}
	colScore     = clause.Column{Name: "(questions.upvote_count - questions.downvote_count)", Raw: true}
)

// keywordCondition requires every word in title or body, case-insensitively.
// Words must already be sanitized; they are bound as parameters.
// Returns nil when there are no words.
func keywordCondition(words []string) clause.Expression {
	if len(words) == 0 {
		return nil
	}
	perWord := make([]clause.Expression, 0, len(words))
	for _, w := range words {
		pattern := "%" + w + "%"
		perWord = append(perWord, clause.Or(
			clause.Expr{SQL: "? ILIKE ?", Vars: []any{colTitle, pattern}},
			clause.Expr{SQL: "? ILIKE ?", Vars: []any{colBody, pattern}},
		))
	}
	return clause.And(perWord...)
}

// filterConditions is the shared predicate of the count and data queries.
func filterConditions(f domq.Filter) []clause.Expression {
	var conds []clause.Expression
	if f.ForumID != "" {
		conds = append(conds, clause.Eq{Column: colForumID, Value: f.ForumID})
	}
	if kw := keywordCondition(f.Keywords); kw != nil {
		conds = append(conds, kw)
	}
	return conds
}

func applyFilter(tx *gorm.DB, f domq.Filter) *gorm.DB {
	conds := filterConditions(f)
	if len(conds) == 0 {
		return tx
	}
	return tx.Clauses(clause.Where{Exprs: conds})
}

// orderBy returns the listing order. id is the final tie-break so pages never overlap.
func orderBy(s domq.Sort) clause.OrderBy {
	if s == domq.SortNewest {
		return clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: colCreatedAt, Desc: true},
			{Column: colID},
		}}
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: colScore, Desc: true},
		{Column: colCreatedAt, Desc: true},
		{Column: colID},
	}}
}

// withAuthorAndForum selects the public projection.
func withAuthorAndForum(tx *gorm.DB) *gorm.DB {
	return tx.Table("questions").
		Select(selectColumns).
		Joins("JOIN forums ON forums.id = questions.forum_id").
		Joins("JOIN users ON users.id = questions.author_id")
}

func listQuery(tx *gorm.DB, f domq.Filter, s domq.Sort) *gorm.DB {
	return applyFilter(withAuthorAndForum(tx), f).Order(orderBy(s))
}

func countQuery(tx *gorm.DB, f domq.Filter) *gorm.DB {
	return applyFilter(tx.Table("questions"), f)
}

func unansweredQuery(tx *gorm.DB) *gorm.DB {
	return tx.Table("questions").Where(clause.Eq{Column: colAnswers, Value: 0})
}
