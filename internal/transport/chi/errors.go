package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agora/internal/domain"
	"github.com/kailas-cloud/agora/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		pageNotFoundHandler,
		limitExceededHandler,
		sentinelHandler(domain.ErrQuestionNotFound, http.StatusNotFound, CodeQuestionNotFound),
		sentinelHandler(domain.ErrForumNotFound, http.StatusNotFound, CodeForumNotFound),
		voteConflictHandler,
		sentinelHandler(domain.ErrVoteChanged, http.StatusConflict, CodeVoteConflict),
		sentinelHandler(domain.ErrNoVoteToRemove, http.StatusBadRequest, CodeNoVoteToRemove),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, CodeSearchUnavailable),
		invalidRequestHandler,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler matches a single sentinel and responds with its own message,
// never the wrapped chain.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func voteConflictHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrAlreadyVoted) {
		return false
	}
	msg := domain.ErrAlreadyVoted.Error()
	var vce *domain.VoteConflictError
	if errors.As(err, &vce) {
		msg = vce.Error()
	}
	writeError(w, http.StatusConflict, CodeAlreadyVoted, msg)
	return true
}

func pageNotFoundHandler(w http.ResponseWriter, err error) bool {
	var pnf *domain.PageNotFoundError
	if !errors.As(err, &pnf) {
		return false
	}
	total := pnf.TotalPages
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Code:       CodePageNotFound,
		Message:    pnf.Error(),
		TotalPages: &total,
	})
	return true
}

func limitExceededHandler(w http.ResponseWriter, err error) bool {
	var lim *domain.LimitExceededError
	if !errors.As(err, &lim) {
		return false
	}
	available := lim.Available
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:      CodeValidationFailed,
		Message:   lim.Error(),
		Available: &available,
	})
	return true
}

// invalidRequestHandler reports validation failures. Their messages are built
// from request input only, so the text before the sentinel is returned.
func invalidRequestHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	msg := strings.TrimSuffix(err.Error(), ": "+domain.ErrInvalidRequest.Error())
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.OrDefault(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("request rejected", zap.Error(err))
			return
		}
	}
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		log.Warn("embedding provider error", zap.Error(err))
	} else {
		log.Error("internal error", zap.Error(err))
	}
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
