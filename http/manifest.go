package http

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/Brandonf2022/touringbot"
)

// altoSuffix marks the include entry holding a page's ALTO markup.
const altoSuffix = "alto.xml"

// Ensure ManifestResolver implements touringbot.ManifestResolver.
var _ touringbot.ManifestResolver = (*ManifestResolver)(nil)

// ManifestResolver finds ALTO document URLs in a package manifest.
type ManifestResolver struct {
	base   *url.URL
	apiKey string
}

// NewManifestResolver creates a resolver that resolves relative include IDs
// against baseURL and, if apiKey is set, appends it as the api_key parameter.
func NewManifestResolver(baseURL, apiKey string) (*ManifestResolver, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, touringbot.WrapError(touringbot.ECONFIG, err, "invalid base URL %q", baseURL)
	}
	return &ManifestResolver{base: base, apiKey: apiKey}, nil
}

type manifest struct {
	Parts []struct {
		Pages []struct {
			ID       string `json:"@id"`
			Includes []struct {
				ID string `json:"@id"`
			} `json:"includes"`
		} `json:"hasPartList"`
	} `json:"hasPart"`
}

// Resolve walks the manifest's parts and pages and maps the page number of
// every requested page to its ALTO URL.
func (r *ManifestResolver) Resolve(data []byte, pageIDs []string) (map[int]string, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, touringbot.WrapError(touringbot.EMALFORMED, err, "invalid page manifest")
	}

	wanted := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		wanted[id] = true
	}

	urls := make(map[int]string)
	for _, part := range m.Parts {
		for _, page := range part.Pages {
			if !wanted[page.ID] {
				continue
			}
			pageNumber, ok := pageNumberFromID(page.ID)
			if !ok {
				continue
			}
			for _, include := range page.Includes {
				if !isAlto(include.ID) {
					continue
				}
				u, err := r.resolveURL(include.ID)
				if err != nil {
					continue
				}
				urls[pageNumber] = u
				break
			}
		}
	}
	return urls, nil
}

func (r *ManifestResolver) resolveURL(ref string) (string, error) {
	rel, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	u := r.base.ResolveReference(rel)
	if r.apiKey != "" {
		q := u.Query()
		q.Set("api_key", r.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// isAlto reports whether an include ID points at an ALTO document,
// ignoring any query string.
func isAlto(id string) bool {
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	return strings.HasSuffix(strings.ToLower(id), altoSuffix)
}

// pageNumberFromID parses the number from a page ID ending in "page12".
func pageNumberFromID(id string) (int, bool) {
	seg := strings.TrimPrefix(lastSegment(id), "page")
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}
