package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Brandonf2022/touringbot"
)

// Compile-time interface verification.
var _ touringbot.RecordService = (*RecordService)(nil)

// RecordService implements touringbot.RecordService using SQLite.
type RecordService struct {
	db *DB
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db}
}

const insertRecordSQL = `
	INSERT INTO passages (id, date, package_id, part, page, text, source_ref, venue, run_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
`

const selectRecordSQL = `SELECT id, date, package_id, part, page, text, source_ref, venue, run_id, created_at FROM passages`

// InsertIfAbsent stores rec unless its ID is already present.
func (s *RecordService) InsertIfAbsent(ctx context.Context, rec *touringbot.Record) (bool, error) {
	n, err := s.InsertBatch(ctx, []*touringbot.Record{rec})
	return n == 1, err
}

// InsertBatch stores recs in one transaction. Records whose ID already
// exists, including repeats within recs, are skipped. All records are
// validated before anything is written. A zero CreatedAt is stored as the
// insert time; recs are not modified.
func (s *RecordService) InsertBatch(ctx context.Context, recs []*touringbot.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return 0, err
		}
	}

	var inserted int
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		inserted = 0

		stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range recs {
			createdAt := rec.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			res, err := stmt.ExecContext(ctx, rec.ID, rec.Date, rec.PackageID, rec.Part, rec.Page,
				rec.Text, rec.SourceRef, rec.Venue, rec.RunID, createdAt.Format(time.RFC3339))
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Exists reports whether a record with id is stored.
func (s *RecordService) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM passages WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindRecordByID retrieves a record by ID.
func (s *RecordService) FindRecordByID(ctx context.Context, id string) (*touringbot.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecordSQL+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, touringbot.Errorf(touringbot.ENOTFOUND, "record not found")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter, ordered by location.
func (s *RecordService) FindRecords(ctx context.Context, filter touringbot.RecordFilter) ([]*touringbot.Record, error) {
	var query strings.Builder
	var args []any

	query.WriteString(selectRecordSQL)
	appendRecordFilter(&query, &args, filter)
	query.WriteString(" ORDER BY package_id ASC, part ASC, page ASC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*touringbot.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// CountRecords returns the number of records matching the filter.
func (s *RecordService) CountRecords(ctx context.Context, filter touringbot.RecordFilter) (int, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT COUNT(*) FROM passages")
	appendRecordFilter(&query, &args, filter)

	var n int
	if err := s.db.QueryRowContext(ctx, query.String(), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func appendRecordFilter(query *strings.Builder, args *[]any, filter touringbot.RecordFilter) {
	query.WriteString(" WHERE 1=1")
	if filter.PackageID != nil {
		query.WriteString(" AND package_id = ?")
		*args = append(*args, *filter.PackageID)
	}
	if filter.Part != nil {
		query.WriteString(" AND part = ?")
		*args = append(*args, *filter.Part)
	}
	if filter.Page != nil {
		query.WriteString(" AND page = ?")
		*args = append(*args, *filter.Page)
	}
	if filter.Venue != nil {
		query.WriteString(" AND venue = ?")
		*args = append(*args, *filter.Venue)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*touringbot.Record, error) {
	var rec touringbot.Record
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.Date, &rec.PackageID, &rec.Part, &rec.Page, &rec.Text,
		&rec.SourceRef, &rec.Venue, &rec.RunID, &createdAt); err != nil {
		return nil, err
	}
	var err error
	rec.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
