package mock

import (
	"context"

	"github.com/Brandonf2022/touringbot"
)

var _ touringbot.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of touringbot.RecordService.
type RecordService struct {
	InsertIfAbsentFn func(ctx context.Context, rec *touringbot.Record) (bool, error)
	InsertBatchFn    func(ctx context.Context, recs []*touringbot.Record) (int, error)
	ExistsFn         func(ctx context.Context, id string) (bool, error)
	FindRecordByIDFn func(ctx context.Context, id string) (*touringbot.Record, error)
	FindRecordsFn    func(ctx context.Context, filter touringbot.RecordFilter) ([]*touringbot.Record, error)
	CountRecordsFn   func(ctx context.Context, filter touringbot.RecordFilter) (int, error)
}

func (s *RecordService) InsertIfAbsent(ctx context.Context, rec *touringbot.Record) (bool, error) {
	return s.InsertIfAbsentFn(ctx, rec)
}

func (s *RecordService) InsertBatch(ctx context.Context, recs []*touringbot.Record) (int, error) {
	return s.InsertBatchFn(ctx, recs)
}

func (s *RecordService) Exists(ctx context.Context, id string) (bool, error) {
	return s.ExistsFn(ctx, id)
}

func (s *RecordService) FindRecordByID(ctx context.Context, id string) (*touringbot.Record, error) {
	return s.FindRecordByIDFn(ctx, id)
}

func (s *RecordService) FindRecords(ctx context.Context, filter touringbot.RecordFilter) ([]*touringbot.Record, error) {
	return s.FindRecordsFn(ctx, filter)
}

func (s *RecordService) CountRecords(ctx context.Context, filter touringbot.RecordFilter) (int, error) {
	return s.CountRecordsFn(ctx, filter)
}
