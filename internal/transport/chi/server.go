// Package chi serves the question API over HTTP with the chi router.
package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agora/internal/domain"
	"github.com/kailas-cloud/agora/internal/domain/keyword"
	domq "github.com/kailas-cloud/agora/internal/domain/question"
	"github.com/kailas-cloud/agora/internal/domain/search"
	"github.com/kailas-cloud/agora/internal/domain/vote"
	healthuc "github.com/kailas-cloud/agora/internal/usecase/health"
	questionuc "github.com/kailas-cloud/agora/internal/usecase/question"
	"github.com/kailas-cloud/agora/internal/version"
)

const (
	defaultUnansweredLimit = 10
	maxBodyBytes           = 1 << 20
)

// QuestionService lists, reads and creates questions.
type QuestionService interface {
	List(ctx context.Context, req questionuc.ListRequest) (domq.Page, error)
	Get(ctx context.Context, id, userID string) (domq.View, error)
	Create(ctx context.Context, userID, title, body, forumID string) (domq.View, error)
	Unanswered(ctx context.Context, limit int, userID string) ([]domq.View, error)
}

// SearchService runs ranked semantic search.
type SearchService interface {
	Search(ctx context.Context, req search.Request) (domq.Page, error)
}

// VoteService applies vote requests.
type VoteService interface {
	Vote(ctx context.Context, userID, questionID string, requested vote.Value) (domq.View, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers of the question API.
type Server struct {
	questions     QuestionService
	search        SearchService
	votes         VoteService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	questions QuestionService,
	search SearchService,
	votes VoteService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	return &Server{
		questions:     questions,
		search:        search,
		votes:         votes,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/questions", func(r chi.Router) {
		r.Get("/", s.ListQuestions)
		r.Post("/", s.CreateQuestion)
		r.Get("/search", s.SearchQuestions)
		r.Get("/unanswered", s.UnansweredQuestions)
		r.Get("/{id}", s.GetQuestion)
		r.Post("/{id}/vote", s.VoteQuestion)
	})
}

// ListQuestionsParams are the query parameters of GET /api/v1/questions.
type ListQuestionsParams struct {
	ForumID *string
	Search  *string
	Sort    *string
	Page    *int
}

// ListQuestions handles GET /api/v1/questions.
func (s *Server) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var params ListQuestionsParams
	if err := bindQuery(r.URL.Query(),
		queryParam{"forum_id", &params.ForumID},
		queryParam{"search", &params.Search},
		queryParam{"sort", &params.Sort},
		queryParam{"page", &params.Page},
	); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.questions.List(r.Context(), questionuc.ListRequest{
		ForumID: derefString(params.ForumID),
		Search:  derefString(params.Search),
		Sort:    domq.Sort(derefString(params.Sort)),
		Page:    derefInt(params.Page, 1),
		UserID:  UserFromContext(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(p))
}

// SearchQuestionsParams are the query parameters of GET /api/v1/questions/search.
type SearchQuestionsParams struct {
	Q        *string
	Keywords *string
	ForumID  *string
	Page     *int
}

// SearchQuestions handles GET /api/v1/questions/search.
func (s *Server) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	var params SearchQuestionsParams
	if err := bindQuery(r.URL.Query(),
		queryParam{"q", &params.Q},
		queryParam{"keywords", &params.Keywords},
		queryParam{"forum_id", &params.ForumID},
		queryParam{"page", &params.Page},
	); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	forumID := derefString(params.ForumID)
	if forumID != "" && uuid.Validate(forumID) != nil {
		s.handleDomainError(w, r, fmt.Errorf("forum_id must be a UUID: %w", domain.ErrInvalidRequest))
		return
	}

	req, err := search.NewRequest(
		derefString(params.Q),
		keyword.Parse(derefString(params.Keywords)),
		forumID,
		derefInt(params.Page, 1),
		UserFromContext(r.Context()),
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(p))
}

// UnansweredQuestions handles GET /api/v1/questions/unanswered.
func (s *Server) UnansweredQuestions(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := bindQuery(r.URL.Query(), queryParam{"limit", &limit}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	views, err := s.questions.Unanswered(r.Context(), derefInt(limit, defaultUnansweredLimit), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questionsToResponse(views))
}

// GetQuestion handles GET /api/v1/questions/{id}.
func (s *Server) GetQuestion(w http.ResponseWriter, r *http.Request) {
	v, err := s.questions.Get(r.Context(), chi.URLParam(r, "id"), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questionToResponse(&v))
}

// CreateQuestion handles POST /api/v1/questions.
func (s *Server) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	v, err := s.questions.Create(r.Context(), UserFromContext(r.Context()), req.Title, req.Body, req.ForumID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/questions/"+v.ID())
	writeJSON(w, http.StatusCreated, questionToResponse(&v))
}

// VoteQuestion handles POST /api/v1/questions/{id}/vote.
func (s *Server) VoteQuestion(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}
	if req.Vote == nil {
		s.handleDomainError(w, r, fmt.Errorf("vote is required: %w", domain.ErrInvalidRequest))
		return
	}

	v, err := s.votes.Vote(r.Context(), UserFromContext(r.Context()), chi.URLParam(r, "id"), vote.Value(*req.Vote))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questionToResponse(&v))
}

// HealthCheck handles GET /health. Only an unreachable database fails the probe.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type queryParam struct {
	name string
	dest any
}

// bindQuery binds optional form-style query parameters in order.
func bindQuery(q url.Values, params ...queryParam) error {
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			return fmt.Errorf("invalid %s parameter: %w", p.name, domain.ErrInvalidRequest)
		}
	}
	return nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
