package games

// DefaultPageLimit is the result-page size used when a caller does not
// ask for one.
const DefaultPageLimit = 20

// Page is one page of aggregated results plus pagination metadata.
// It is immutable once constructed.
type Page struct {
	Results    []Game `json:"results"`
	Total      int    `json:"total"`
	Limit      int    `json:"limit"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

// NewPage builds a Page, computing total_pages = ceil(total/limit).
// A limit of zero (or less) collapses to a single page.
func NewPage(results []Game, total, limit, page int) Page {
	totalPages := 1
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
		if totalPages < 1 {
			totalPages = 1
		}
	}
	return Page{
		Results:    results,
		Total:      total,
		Limit:      limit,
		Page:       page,
		TotalPages: totalPages,
	}
}
