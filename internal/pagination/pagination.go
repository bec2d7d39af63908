// Package pagination computes bounded slices of ordered collections from
// page/pageSize query parameters. It is a read-only view over whatever the
// repositories return; it never touches the collection itself.
package pagination

import "strconv"

// DefaultPageSize is used when pageSize is absent, non-numeric or non-positive
const DefaultPageSize = 10

// maxPage and maxPageSize cap the parsed values so Offset never overflows
// int arithmetic on absurd query parameters.
const (
	maxPage     = 1_000_000_000
	maxPageSize = 1_000_000_000
)

// Params identifies one slice of an ordered collection
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Parse derives pagination parameters from the raw query values. Absent or
// non-numeric values fall back to page 1 and DefaultPageSize; non-positive
// values are folded into the same defaults.
func Parse(pageParam, pageSizeParam string) Params {
	page, err := strconv.Atoi(pageParam)
	if err != nil || page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	pageSize, err := strconv.Atoi(pageSizeParam)
	if err != nil || pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return Params{Page: page, PageSize: pageSize}
}

// Offset returns the number of items to skip before this page
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Result is the paginated response envelope
type Result struct {
	Items        interface{} `json:"items"`
	CurrentPage  int         `json:"currentPage"`
	TotalPages   int         `json:"totalPages"`
	NextPage     *Params     `json:"nextPage,omitempty"`
	PreviousPage *Params     `json:"previousPage,omitempty"`
}

// BuildResult assembles the response envelope for one page. A next cursor
// is produced while page*pageSize < totalCount, a previous cursor while the
// page skips anything. An empty collection carries neither.
func BuildResult(items interface{}, p Params, totalCount int) Result {
	result := Result{
		Items:       items,
		CurrentPage: p.Page,
		TotalPages:  (totalCount + p.PageSize - 1) / p.PageSize,
	}

	if p.Page*p.PageSize < totalCount {
		result.NextPage = &Params{Page: p.Page + 1, PageSize: p.PageSize}
	}

	if p.Offset() > 0 && totalCount > 0 {
		result.PreviousPage = &Params{Page: p.Page - 1, PageSize: p.PageSize}
	}

	return result
}
