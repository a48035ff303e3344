// Package search implements ranked semantic search over questions.
package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/agora/internal/domain/page"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/search"
	"github.com/kailas-cloud/agora/internal/domain/vote"
	"github.com/kailas-cloud/agora/internal/metrics"
	"github.com/kailas-cloud/agora/internal/tracing"
)

// Service runs the ranked search pipeline: embed, similarity search,
// keyword intersection, pagination and hydration in relevance order.
type Service struct {
	questions QuestionStore
	votes     VoteReader
	embed     Embedder
}

// New creates a search service. embed must not be nil; use domain.UnavailableEmbedder
// when no provider is configured.
func New(questions QuestionStore, votes VoteReader, embed Embedder) *Service {
	return &Service{questions: questions, votes: votes, embed: embed}
}

// Search returns one page of questions ranked by similarity to req.Query.
func (s *Service) Search(ctx context.Context, req search.Request) (_ domq.Page, err error) {
	ctx, span := tracing.Start(ctx, "search.Search",
		attribute.Int("search.page", req.Page),
		attribute.Int("search.keywords", len(req.Keywords)),
		attribute.Bool("search.forum_scoped", req.ForumID != ""),
	)
	defer func() { tracing.End(span, err) }()

	ids, similar, err := s.rank(ctx, req)
	if err != nil {
		return domq.Page{}, err
	}
	span.SetAttributes(attribute.Int("search.results", len(ids)))

	// Nothing close enough: an empty first page regardless of the page asked for.
	if similar == 0 {
		return domq.Page{Questions: []domq.View{}, Number: 1, TotalPages: 1}, nil
	}

	totalPages, err := page.Validate(req.Page, len(ids), page.Size)
	if err != nil {
		return domq.Page{}, err
	}

	pageIDs := page.Slice(ids, req.Page, page.Size)
	views, err := s.hydrate(ctx, pageIDs, req.UserID)
	if err != nil {
		return domq.Page{}, err
	}

	return domq.Page{Questions: views, Number: req.Page, TotalPages: totalPages}, nil
}

// rank returns the matching question ids in relevance order together with
// the number of similarity hits before keyword filtering.
func (s *Service) rank(ctx context.Context, req search.Request) ([]string, int, error) {
	emb, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		return nil, 0, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := s.questions.SimilaritySearch(
		ctx, emb.Embedding, req.ForumID, search.SimilarityThreshold, search.SimilarityLimit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("similarity search: %w", err)
	}
	ids := search.IDs(matches)
	similar := len(ids)
	metrics.SearchMatches.WithLabelValues("similarity").Observe(float64(similar))

	if len(req.Keywords) == 0 || similar == 0 {
		return ids, similar, nil
	}

	allowed, err := s.questions.FilterByKeywords(ctx, ids, req.Keywords)
	if err != nil {
		return nil, 0, fmt.Errorf("keyword filter: %w", err)
	}
	ids = search.Intersect(ids, allowed)
	metrics.SearchMatches.WithLabelValues("keyword").Observe(float64(len(ids)))

	return ids, similar, nil
}

// hydrate loads the page's questions and the caller's votes concurrently,
// then restores the order of ids.
func (s *Service) hydrate(ctx context.Context, ids []string, userID string) ([]domq.View, error) {
	if len(ids) == 0 {
		return []domq.View{}, nil
	}

	var (
		rows  []domq.Question
		votes map[string]vote.Value
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if rows, err = s.questions.GetByIDs(gctx, ids); err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		return nil
	})
	if userID != "" {
		g.Go(func() error {
			var err error
			if votes, err = s.votes.GetMany(gctx, userID, ids); err != nil {
				return fmt.Errorf("load votes: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domq.Annotate(domq.OrderByIDs(rows, ids), votes), nil
}
