package service

const maxPageSize = 100 // Larger limits fall back to the default

// Pagination describes one page of a larger result
type Pagination struct {
	Page  int   `json:"page"`  // Current page, 1-based
	Limit int   `json:"limit"` // Page size
	Total int64 `json:"total"` // Matching rows across all pages
	Pages int   `json:"pages"` // Page count, 0 when nothing matches
}

// normalizePage substitutes defaults for out-of-range values instead of rejecting them
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultLimit
	}
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit)) // Ceiling division
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
