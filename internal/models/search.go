package models

// Filter narrows candidate rows by title and composer queries.
// Empty queries match every row.
type Filter struct {
	Title    string `json:"title,omitempty"`
	Composer string `json:"composer,omitempty"`
}

// Hit is a search result row with its PDF page resolved
type Hit struct {
	CandidateRow
	Page         int  `json:"page,omitempty"`
	PageResolved bool `json:"page_resolved"`
}

// SearchResult is the outcome of one title search
type SearchResult struct {
	Filter
	Dedup string `json:"dedup"`
	Total int    `json:"total"` // hits before the limit was applied
	Hits  []Hit  `json:"hits"`
}
