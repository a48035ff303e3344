package question

import (
	"strings"
	"testing"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	domq "github.com/kailas-cloud/agora/internal/domain/question"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(
		pgdriver.New(pgdriver.Config{DSN: "host=localhost user=agora dbname=agora sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true},
	)
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return gdb
}

func listSQL(t *testing.T, f domq.Filter, s domq.Sort) string {
	t.Helper()
	gdb := dryRunDB(t)
	return gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []questionRow
		return listQuery(tx, f, s).Offset(20).Limit(20).Find(&rows)
	})
}

func TestListQuery_TopOrdering(t *testing.T) {
	sql := listSQL(t, domq.Filter{}, domq.SortTop)

	score := strings.Index(sql, "(questions.upvote_count - questions.downvote_count) DESC")
	created := strings.Index(sql, `"questions"."created_at" DESC`)
	id := strings.LastIndex(sql, `"questions"."id"`)
	if score < 0 || created < 0 || id < 0 {
		t.Fatalf("missing order terms in %s", sql)
	}
	if !(score < created && created < id) {
		t.Errorf("order must be score, created_at, id: %s", sql)
	}
	if !strings.Contains(sql, "LIMIT 20 OFFSET 20") {
		t.Errorf("missing pagination: %s", sql)
	}
}

func TestListQuery_NewestOrdering(t *testing.T) {
	sql := listSQL(t, domq.Filter{}, domq.SortNewest)

	if strings.Contains(sql, "upvote_count - questions.downvote_count) DESC") {
		t.Errorf("newest must not order by score: %s", sql)
	}
	if !strings.Contains(sql, `ORDER BY "questions"."created_at" DESC,"questions"."id"`) {
		t.Errorf("unexpected order: %s", sql)
	}
}

func TestListQuery_KeywordPredicate(t *testing.T) {
	sql := listSQL(t, domq.Filter{ForumID: "f1", Keywords: []string{"go", "chan"}}, domq.SortTop)

	for _, want := range []string{
		`"questions"."forum_id" = 'f1'`,
		`("questions"."title" ILIKE '%go%' OR "questions"."body" ILIKE '%go%')`,
		`("questions"."title" ILIKE '%chan%' OR "questions"."body" ILIKE '%chan%')`,
		"JOIN forums ON forums.id = questions.forum_id",
		"JOIN users ON users.id = questions.author_id",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in %s", want, sql)
		}
	}
	if !strings.Contains(sql, "%go%') AND (") {
		t.Errorf("keywords must be AND-ed: %s", sql)
	}
}

func TestCountQuery_SharesPredicate(t *testing.T) {
	gdb := dryRunDB(t)
	f := domq.Filter{ForumID: "f1", Keywords: []string{"go"}}

	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var n int64
		return countQuery(tx, f).Count(&n)
	})

	if !strings.Contains(sql, "count(*)") {
		t.Errorf("expected count: %s", sql)
	}
	for _, want := range []string{
		`"questions"."forum_id" = 'f1'`,
		`("questions"."title" ILIKE '%go%' OR "questions"."body" ILIKE '%go%')`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in %s", want, sql)
		}
	}
	if strings.Contains(sql, "ORDER BY") {
		t.Errorf("count must not be ordered: %s", sql)
	}
}

func TestKeywordCondition_Empty(t *testing.T) {
	if keywordCondition(nil) != nil {
		t.Error("expected nil condition for no keywords")
	}
	if conds := filterConditions(domq.Filter{}); len(conds) != 0 {
		t.Errorf("expected no conditions, got %d", len(conds))
	}
}

func TestKeywordCondition_BoundNotInlined(t *testing.T) {
	gdb := dryRunDB(t)
	stmt := listQuery(gdb.Session(&gorm.Session{DryRun: true}), domq.Filter{Keywords: []string{"o'neil"}}, domq.SortTop).
		Find(&[]questionRow{}).Statement

	if strings.Contains(stmt.SQL.String(), "o'neil") {
		t.Errorf("keyword must be a bound parameter: %s", stmt.SQL.String())
	}
	found := false
	for _, v := range stmt.Vars {
		if v == "%o'neil%" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bound pattern in vars %v", stmt.Vars)
	}
}
