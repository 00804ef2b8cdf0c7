package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/Brandonf2022/touringbot"
)

// Ensure LoggingRecordService implements touringbot.RecordService.
var _ touringbot.RecordService = (*LoggingRecordService)(nil)

// LoggingRecordService wraps a RecordService and logs writes. Reads are
// delegated without logging.
type LoggingRecordService struct {
	next   touringbot.RecordService
	logger *slog.Logger
}

// NewLoggingRecordService creates a new LoggingRecordService.
func NewLoggingRecordService(next touringbot.RecordService, logger *slog.Logger) *LoggingRecordService {
	return &LoggingRecordService{next: next, logger: logger}
}

// InsertIfAbsent delegates to the wrapped service and logs the outcome.
func (s *LoggingRecordService) InsertIfAbsent(ctx context.Context, rec *touringbot.Record) (inserted bool, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("insert record",
			"id", rec.ID,
			"inserted", inserted,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.InsertIfAbsent(ctx, rec)
}

// InsertBatch delegates to the wrapped service and logs the batch size
// against the rows written.
func (s *LoggingRecordService) InsertBatch(ctx context.Context, recs []*touringbot.Record) (inserted int, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("insert batch",
			"records", len(recs),
			"inserted", inserted,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.InsertBatch(ctx, recs)
}

func (s *LoggingRecordService) Exists(ctx context.Context, id string) (bool, error) {
	return s.next.Exists(ctx, id)
}

func (s *LoggingRecordService) FindRecordByID(ctx context.Context, id string) (*touringbot.Record, error) {
	return s.next.FindRecordByID(ctx, id)
}

func (s *LoggingRecordService) FindRecords(ctx context.Context, filter touringbot.RecordFilter) ([]*touringbot.Record, error) {
	return s.next.FindRecords(ctx, filter)
}

func (s *LoggingRecordService) CountRecords(ctx context.Context, filter touringbot.RecordFilter) (int, error) {
	return s.next.CountRecords(ctx, filter)
}
