package domain

// PageSize is the fixed page size for all paginated listings.
const PageSize = 10

// PagedList is one page of an ordered collection.
type PagedList[T any] struct {
	PageNumber     int
	PageSize       int
	TotalCount     int64
	TotalPageCount int
	Items          []T
}

// PageWindow computes the window for a 1-based page over a collection of
// totalCount items. Out-of-range pages (below 1 or past the last page)
// reset to page 1 rather than erroring. Returns the resolved page, the
// offset of its first item and the total page count.
func PageWindow(totalCount int64, pageNumber, pageSize int) (page, offset, totalPages int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if pageNumber > totalPages {
		pageNumber = 1
	}
	return pageNumber, (pageNumber - 1) * pageSize, totalPages
}

func NewPagedList[T any](pageNumber, pageSize int, totalCount int64, totalPages int, items []T) PagedList[T] {
	return PagedList[T]{
		PageNumber:     pageNumber,
		PageSize:       pageSize,
		TotalCount:     totalCount,
		TotalPageCount: totalPages,
		Items:          items,
	}
}
