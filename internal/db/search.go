package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	// Field is the vector attribute name; defaults to "vector".
	Field string
	// Filter is a raw FT pre-filter expression, empty for "*".
	Filter       string
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for relevance-ranked text search. Results come back
// in BM25 score order, highest first.
type TextQuery struct {
	IndexName    string
	Query        string
	Offset       int
	Limit        int
	ReturnFields []string
	NoContent    bool
}

// ListQuery is the input for a filtered, sorted, paginated FT.SEARCH.
type ListQuery struct {
	IndexName    string
	Query        string
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
	NoContent    bool
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

// Keys returns the document keys in result order.
func (r *SearchResult) Keys() []string {
	keys := make([]string, len(r.Entries))
	for i := range r.Entries {
		keys[i] = r.Entries[i].Key
	}
	return keys
}
