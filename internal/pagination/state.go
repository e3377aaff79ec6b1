package pagination

// PageState is the pagination cursor plus the last totals reported by the
// server.
type PageState struct {
	Page       int `json:"currentPage"`
	Limit      int `json:"pageSize"`
	TotalRows  int `json:"totalRows"`
	TotalPages int `json:"totalPages"`
}

// Filters is the committed search text and the caller-defined filters.
type Filters struct {
	SearchQuery   string         `json:"searchQuery"`
	CustomFilters map[string]any `json:"customFilters,omitempty"`
}

// queryState is the query state store. It is not synchronized; the
// controller guards it with its own mutex.
type queryState struct {
	cur PageState
}

func newQueryState(page, limit int) queryState {
	if page < 1 {
		page = 1
	}
	return queryState{cur: PageState{Page: page, Limit: limit}}
}

// setPage stores n clamped into [1, max(totalPages, 1)] and reports whether
// the stored page changed.
func (s *queryState) setPage(n int) bool {
	p := clampPage(n, s.cur.TotalPages)
	if p == s.cur.Page {
		return false
	}
	s.cur.Page = p
	return true
}

// replace swaps all four fields at once.
func (s *queryState) replace(p PageState) {
	s.cur = p
}

// reset returns to page 1 with no known totals.
func (s *queryState) reset(limit int) {
	s.cur = PageState{Page: 1, Limit: limit}
}

func (s queryState) snapshot() PageState {
	return s.cur
}

func clampPage(n, totalPages int) int {
	upper := max(totalPages, 1)
	return min(max(n, 1), upper)
}
