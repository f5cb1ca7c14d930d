// Package pagination provides the validated page/page-size value types and
// the windowing function used when listing tokens.
package pagination

import (
	"github.com/jrsteele09/go-token-service/internal/errors"
)

// DefaultPageSize is used by callers that do not request a specific window size.
const DefaultPageSize = PageSize(20)

// Page is a 1-based page index. The zero value is invalid; construct with NewPage.
type Page int

// PageSize bounds the number of entries returned per page.
type PageSize int

// NewPage validates a 1-based page index.
func NewPage(n int) (Page, error) {
	if n < 1 {
		return 0, errors.Wrapf(errors.ErrInvalidPage, "pagination.NewPage %d", n)
	}
	return Page(n), nil
}

// NewPageSize validates a positive page size.
func NewPageSize(n int) (PageSize, error) {
	if n < 1 {
		return 0, errors.Wrapf(errors.ErrInvalidPageSize, "pagination.NewPageSize %d", n)
	}
	return PageSize(n), nil
}

// Offset returns the start index of the window for this page.
func (p Page) Offset(size PageSize) int {
	return (int(p) - 1) * int(size)
}

// Window slices items to the half-open range [(p-1)*s, (p-1)*s+s).
// A page beyond the available data yields an empty slice, not an error.
func Window[T any](items []T, page Page, size PageSize) []T {
	start := page.Offset(size)
	if start >= len(items) {
		return nil
	}
	end := start + int(size)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
