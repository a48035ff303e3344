// Package page holds fixed-size page arithmetic shared by the listing and search pipelines.
package page

import (
	"fmt"

	"github.com/kailas-cloud/agora/internal/domain"
)

// Size is the number of questions per page.
const Size = 20

// TotalPages returns the number of pages for total items. Zero items is one (empty) page.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Validate checks that number is a valid 1-based page for total items.
func Validate(number, total, size int) (int, error) {
	if number < 1 {
		return 0, fmt.Errorf("page must be >= 1, got %d: %w", number, domain.ErrInvalidRequest)
	}
	totalPages := TotalPages(total, size)
	if number > totalPages {
		return totalPages, domain.NewPageNotFound(number, totalPages)
	}
	return totalPages, nil
}

// Offset returns the zero-based offset of the first item on the page.
func Offset(number, size int) int {
	if number < 1 {
		return 0
	}
	return (number - 1) * size
}

// Slice returns the elements of items on the given page.
func Slice[T any](items []T, number, size int) []T {
	start := Offset(number, size)
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end]
}
