package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Brandonf2022/touringbot"
)

// DefaultBaseURL is the KB data API root.
const DefaultBaseURL = "https://data.kb.se"

// Ensure SearchService implements touringbot.SearchService.
var _ touringbot.SearchService = (*SearchService)(nil)

// SearchService queries the archive search endpoint. It does not retry;
// callers decide how to handle failures.
type SearchService struct {
	client  *http.Client
	baseURL string
}

// NewSearchService creates a new SearchService rooted at baseURL.
// If client is nil, http.DefaultClient is used. An empty baseURL means
// DefaultBaseURL.
func NewSearchService(client *http.Client, baseURL string) *SearchService {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &SearchService{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// searchResponse is the subset of the search payload the harvester needs.
type searchResponse struct {
	Total *int        `json:"total"`
	Hits  []searchHit `json:"hits"`
}

type searchHit struct {
	Part           flexString `json:"part"`
	Page           flexString `json:"page"`
	ID             string     `json:"@id"`
	HasFilePackage struct {
		ID string `json:"@id"`
	} `json:"hasFilePackage"`
}

// Search performs one search request.
func (s *SearchService) Search(ctx context.Context, query touringbot.SearchQuery) (*touringbot.SearchResult, error) {
	params := url.Values{}
	params.Set("from", query.From)
	params.Set("to", query.To)
	if query.CollectionID != "" {
		params.Set("isPartOf.@id", query.CollectionID)
	}
	params.Set("q", query.Keyword)
	params.Set("searchGranularity", "part")
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		params.Set("offset", strconv.Itoa(query.Offset))
	}
	searchURL := s.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, networkError(ctx, err, searchURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, touringbot.StatusError(resp.StatusCode, searchURL)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, touringbot.WrapError(touringbot.EMALFORMED, err, "invalid search response for %q", query.Keyword)
	}

	result := &touringbot.SearchResult{}
	for _, hit := range payload.Hits {
		match := s.matchFromHit(hit)
		if match.Validate() != nil {
			continue
		}
		result.Matches = append(result.Matches, match)
	}

	result.Total = len(payload.Hits)
	if payload.Total != nil {
		result.Total = *payload.Total
	}
	return result, nil
}

// matchFromHit maps a hit to a match. The package ID is the last path
// segment of the hit's file package reference.
func (s *SearchService) matchFromHit(hit searchHit) *touringbot.SearchMatch {
	m := &touringbot.SearchMatch{
		Part:      string(hit.Part),
		Page:      string(hit.Page),
		PageID:    hit.ID,
		PackageID: lastSegment(hit.HasFilePackage.ID),
	}
	if m.PackageID != "" && m.Part != "" && m.Page != "" {
		m.URL = fmt.Sprintf("%s/%s/part/%s/page/%s", s.baseURL, m.PackageID, m.Part, m.Page)
	}
	return m
}

// lastSegment returns the text after the final slash.
func lastSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// flexString decodes a JSON string or number into its textual form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
