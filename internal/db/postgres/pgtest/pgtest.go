// Package pgtest starts a throwaway pgvector PostgreSQL for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agora/internal/db/postgres"
)

const image = "pgvector/pgvector:pg16"

// NewStore starts a container, applies the schema and returns a connected store.
// The test is skipped under -short.
func NewStore(t testing.TB) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image: image,
		Env: map[string]string{
			"POSTGRES_USER":     "agora",
			"POSTGRES_PASSWORD": "agora",
			"POSTGRES_DB":       "agora",
		},
		ExposedPorts: []string{"5432/tcp"},
		// The server restarts once after initdb, so the line appears twice.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=agora password=agora dbname=agora sslmode=disable", host, port.Port())
	store, err := postgres.NewStore(postgres.Config{DSN: dsn, QueryTimeout: 10 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
		t.Fatalf("wait for postgres: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

// SeedUser inserts a user and returns its id.
func SeedUser(t testing.TB, s *postgres.Store, username string) string {
	t.Helper()
	id := uuid.NewString()
	err := s.DB(context.Background()).
		Exec("INSERT INTO users (id, username) VALUES (?, ?)", id, username).Error
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

// SeedForum inserts a forum and returns its id.
func SeedForum(t testing.TB, s *postgres.Store, name string) string {
	t.Helper()
	id := uuid.NewString()
	err := s.DB(context.Background()).
		Exec("INSERT INTO forums (id, name) VALUES (?, ?)", id, name).Error
	if err != nil {
		t.Fatalf("seed forum: %v", err)
	}
	return id
}

// Question describes a seeded question row.
type Question struct {
	Title, Body        string
	ForumID, AuthorID  string
	Upvotes, Downvotes int
	Answers            int
	CreatedAt          time.Time
	Embedding          []float32
}

// SeedQuestion inserts a question with explicit counters and returns its id.
func SeedQuestion(t testing.TB, s *postgres.Store, q Question) string {
	t.Helper()
	id := uuid.NewString()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	var emb any
	if q.Embedding != nil {
		emb = postgres.VectorLiteral(q.Embedding)
	}
	err := s.DB(context.Background()).Exec(
		`INSERT INTO questions
		   (id, title, body, forum_id, author_id, upvote_count, downvote_count, answer_count, created_at, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?::vector)`,
		id, q.Title, q.Body, q.ForumID, q.AuthorID, q.Upvotes, q.Downvotes, q.Answers, q.CreatedAt, emb,
	).Error
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return id
}
