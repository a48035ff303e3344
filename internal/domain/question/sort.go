package question

import (
	"fmt"

	"github.com/kailas-cloud/agora/internal/domain"
)

// Sort is the listing order.
type Sort string

// Listing orders. Both break ties by newest first.
const (
	SortTop    Sort = "top"
	SortNewest Sort = "newest"
)

// ParseSort validates a sort option; empty defaults to SortTop.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "":
		return SortTop, nil
	case SortTop, SortNewest:
		return Sort(s), nil
	default:
		return "", fmt.Errorf("sort must be top or newest, got %q: %w", s, domain.ErrInvalidRequest)
	}
}

// Filter restricts a listing. Empty fields are ignored.
type Filter struct {
	ForumID  string
	Keywords []string
}
