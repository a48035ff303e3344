// Package search holds the ranked-search policy constants and match type.
package search

import (
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/agora/internal/domain"
)

// Ranking policy. Fixed so that rankings stay comparable across requests.
const (
	// SimilarityLimit caps the number of nearest neighbours considered.
	SimilarityLimit = 200
	// SimilarityThreshold excludes matches below this cosine similarity.
	SimilarityThreshold = 0.3
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
)

// Match is a question returned by similarity search.
type Match struct {
	QuestionID string
	Similarity float64
}

// IDs returns the question ids of matches, preserving order.
func IDs(matches []Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.QuestionID
	}
	return ids
}

// Intersect keeps the ids of ordered that are present in allowed, in ordered's order.
func Intersect(ordered []string, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(ordered))
	for _, id := range ordered {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Request is a validated semantic search request.
type Request struct {
	Query    string
	Keywords []string
	ForumID  string
	Page     int
	UserID   string
}

// NewRequest validates search parameters.
func NewRequest(query string, keywords []string, forumID string, pageNumber int, userID string) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("q is required: %w", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("q too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidRequest)
	}
	if pageNumber < 1 {
		return Request{}, fmt.Errorf("page must be >= 1: %w", domain.ErrInvalidRequest)
	}
	return Request{
		Query:    query,
		Keywords: keywords,
		ForumID:  forumID,
		Page:     pageNumber,
		UserID:   userID,
	}, nil
}
