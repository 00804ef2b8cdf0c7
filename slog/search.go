package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/Brandonf2022/touringbot"
)

// Ensure LoggingSearchService implements touringbot.SearchService.
var _ touringbot.SearchService = (*LoggingSearchService)(nil)

// LoggingSearchService wraps a SearchService with logging.
type LoggingSearchService struct {
	next   touringbot.SearchService
	logger *slog.Logger
}

// NewLoggingSearchService creates a new LoggingSearchService.
func NewLoggingSearchService(next touringbot.SearchService, logger *slog.Logger) *LoggingSearchService {
	return &LoggingSearchService{next: next, logger: logger}
}

// Search delegates to the wrapped service and logs the query.
func (s *LoggingSearchService) Search(ctx context.Context, query touringbot.SearchQuery) (result *touringbot.SearchResult, err error) {
	defer func(begin time.Time) {
		var count, total int
		if result != nil {
			count, total = len(result.Matches), result.Total
		}
		s.logger.Info("search",
			"keyword", query.Keyword,
			"from", query.From,
			"to", query.To,
			"offset", query.Offset,
			"count", count,
			"total", total,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query)
}
