package mock

import (
	"context"

	"github.com/Brandonf2022/touringbot"
)

var _ touringbot.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of touringbot.SearchService.
type SearchService struct {
	SearchFn func(ctx context.Context, query touringbot.SearchQuery) (*touringbot.SearchResult, error)
}

func (s *SearchService) Search(ctx context.Context, query touringbot.SearchQuery) (*touringbot.SearchResult, error) {
	return s.SearchFn(ctx, query)
}

var _ touringbot.ManifestResolver = (*ManifestResolver)(nil)

// ManifestResolver is a mock implementation of touringbot.ManifestResolver.
type ManifestResolver struct {
	ResolveFn func(manifest []byte, pageIDs []string) (map[int]string, error)
}

func (r *ManifestResolver) Resolve(manifest []byte, pageIDs []string) (map[int]string, error) {
	return r.ResolveFn(manifest, pageIDs)
}
