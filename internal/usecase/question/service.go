// Package question implements question listing, lookup and creation.
package question

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/agora/internal/domain"
	"github.com/kailas-cloud/agora/internal/domain/keyword"
	"github.com/kailas-cloud/agora/internal/domain/page"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/vote"
)

// ListRequest selects one page of the question listing.
type ListRequest struct {
	ForumID string
	// Search is a space-separated keyword filter.
	Search string
	Sort   domq.Sort
	Page   int
	UserID string
}

// Service handles question listing, lookup and creation.
type Service struct {
	repo    Repository
	votes   VoteReader
	indexer Indexer
}

// New creates a question service.
func New(repo Repository, votes VoteReader, indexer Indexer) *Service {
	return &Service{repo: repo, votes: votes, indexer: indexer}
}

// List returns one page of questions matching the forum and keyword filter.
// Count and data queries share one predicate, so total pages match the rows.
func (s *Service) List(ctx context.Context, req ListRequest) (domq.Page, error) {
	if req.ForumID != "" && uuid.Validate(req.ForumID) != nil {
		return domq.Page{}, fmt.Errorf("forum_id must be a UUID: %w", domain.ErrInvalidRequest)
	}
	sort, err := domq.ParseSort(string(req.Sort))
	if err != nil {
		return domq.Page{}, err
	}

	f := domq.Filter{ForumID: req.ForumID, Keywords: keyword.Parse(req.Search)}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return domq.Page{}, fmt.Errorf("count questions: %w", err)
	}
	totalPages, err := page.Validate(req.Page, total, page.Size)
	if err != nil {
		return domq.Page{}, err
	}
	if total == 0 {
		return domq.Page{Questions: []domq.View{}, Number: req.Page, TotalPages: totalPages}, nil
	}

	qs, err := s.repo.List(ctx, f, sort, page.Offset(req.Page, page.Size), page.Size)
	if err != nil {
		return domq.Page{}, fmt.Errorf("list questions: %w", err)
	}

	views, err := s.annotate(ctx, qs, req.UserID)
	if err != nil {
		return domq.Page{}, err
	}
	return domq.Page{Questions: views, Number: req.Page, TotalPages: totalPages}, nil
}

// Get returns a question with the caller's vote.
func (s *Service) Get(ctx context.Context, id, userID string) (domq.View, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return domq.View{}, fmt.Errorf("get question: %w", err)
	}
	v := vote.None
	if userID != "" {
		if v, err = s.votes.Get(ctx, userID, id); err != nil {
			return domq.View{}, fmt.Errorf("get vote: %w", err)
		}
	}
	return domq.View{Question: q, UserVote: v}, nil
}

// Create validates and stores a question on behalf of userID, then queues its embedding.
func (s *Service) Create(ctx context.Context, userID, title, body, forumID string) (domq.View, error) {
	if userID == "" {
		return domq.View{}, domain.ErrUnauthenticated
	}
	d, err := domq.NewDraft(title, body, forumID, userID)
	if err != nil {
		return domq.View{}, err
	}

	ok, err := s.repo.ForumExists(ctx, d.ForumID)
	if err != nil {
		return domq.View{}, fmt.Errorf("check forum: %w", err)
	}
	if !ok {
		return domq.View{}, domain.ErrForumNotFound
	}

	q, err := s.repo.Create(ctx, d)
	if err != nil {
		return domq.View{}, fmt.Errorf("create question: %w", err)
	}

	s.indexer.Submit(q.ID(), q.EmbeddingText())

	return domq.View{Question: q, UserVote: vote.None}, nil
}

// Unanswered returns the oldest limit questions without answers.
// A limit above the number of unanswered questions is rejected.
func (s *Service) Unanswered(ctx context.Context, limit int, userID string) ([]domq.View, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be >= 1: %w", domain.ErrInvalidRequest)
	}

	available, err := s.repo.CountUnanswered(ctx)
	if err != nil {
		return nil, fmt.Errorf("count unanswered: %w", err)
	}
	if available == 0 {
		return []domq.View{}, nil
	}
	if limit > available {
		return nil, &domain.LimitExceededError{Requested: limit, Available: available}
	}

	qs, err := s.repo.ListUnanswered(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unanswered: %w", err)
	}
	return s.annotate(ctx, qs, userID)
}

func (s *Service) annotate(ctx context.Context, qs []domq.Question, userID string) ([]domq.View, error) {
	if userID == "" || len(qs) == 0 {
		return domq.Annotate(qs, nil), nil
	}
	ids := make([]string, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID()
	}
	votes, err := s.votes.GetMany(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load votes: %w", err)
	}
	return domq.Annotate(qs, votes), nil
}
