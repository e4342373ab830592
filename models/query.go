package models

// ListQuery is a page request with a named sort order.
type ListQuery struct {
	Page  int
	Limit int
	Sort  string
}

func (q ListQuery) Skip() int64 {
	if q.Page < 1 {
		return 0
	}
	return int64((q.Page - 1) * q.Limit)
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// SearchResult is one hit of the cross-entity search.
type SearchResult struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}
