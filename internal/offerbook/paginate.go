package offerbook

import "basicswap-orderbook-go/internal/models"

// PageSize is the fixed number of offers per page.
const PageSize = 20

// PageCount returns ceil(n/size); zero when there is nothing to show.
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Slice returns page (1-based) of offers. Pages outside the data yield
// fewer or zero offers rather than an error.
func Slice(offers []models.Offer, page, size int) []models.Offer {
	if page < 1 || size <= 0 {
		return offers[:0:0]
	}
	start := (page - 1) * size
	if start >= len(offers) {
		return offers[:0:0]
	}
	end := min(start+size, len(offers))
	return offers[start:end:end]
}

// PageState is the current page of a paginated table.
type PageState struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// FirstPage returns page 1 with the fixed page size.
func FirstPage() PageState {
	return PageState{Page: 1, Size: PageSize}
}

// Prev moves back one page; a no-op on page 1.
func (p PageState) Prev() PageState {
	if p.Page > 1 {
		p.Page--
	}
	return p
}

// Next moves forward one page; a no-op on the last of pageCount pages.
func (p PageState) Next(pageCount int) PageState {
	if p.Page < pageCount {
		p.Page++
	}
	return p
}
