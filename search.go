package touringbot

import "context"

// SearchMatch identifies one page hit returned by the archive search.
type SearchMatch struct {
	Part      string `json:"part"`
	Page      string `json:"page"`
	PackageID string `json:"packageId"`
	PageID    string `json:"pageId"`

	// URL is the package/part/page resource whose JSON manifest lists the
	// page's files.
	URL string `json:"url"`
}

// Validate returns an error if any identity field is missing.
func (m *SearchMatch) Validate() error {
	switch {
	case m.Part == "":
		return Errorf(EINVALID, "search match part required")
	case m.Page == "":
		return Errorf(EINVALID, "search match page required")
	case m.PackageID == "":
		return Errorf(EINVALID, "search match package ID required")
	case m.PageID == "":
		return Errorf(EINVALID, "search match page ID required")
	}
	return nil
}

// SearchQuery is a keyword search over one collection and date range.
// Dates use the 2006-01-02 layout.
type SearchQuery struct {
	From         string
	To           string
	CollectionID string
	Keyword      string

	// Offset and Limit page through large hit lists. A zero Limit lets the
	// server pick its default page size.
	Offset int
	Limit  int
}

// SearchResult holds one page of search hits.
type SearchResult struct {
	// Total is the number of hits the server reports for the query,
	// or len(Matches) when it reports none.
	Total   int
	Matches []*SearchMatch
}

// SearchService queries the archive search endpoint.
type SearchService interface {
	// Search performs a single request and returns the usable matches.
	// Hits missing identity fields are dropped.
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}
