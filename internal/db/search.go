package db

// SortOrder orders FT.SEARCH results by a SORTABLE field.
type SortOrder struct {
	Field string
	Desc  bool
}

// ListQuery is the input for a filtered, paginated search.
type ListQuery struct {
	IndexName    string
	Query        string
	Offset       int
	Limit        int
	SortBy       *SortOrder
	ReturnFields []string
}

// TextQuery is the input for a scored full-text search.
type TextQuery struct {
	IndexName    string
	Query        string
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
