package touringbot

import (
	"context"
	"time"
)

// Passage is a text window extracted around one keyword hit.
type Passage struct {
	Date      string `json:"date"`
	PackageID string `json:"packageId"`
	Part      string `json:"part"`
	Page      int    `json:"page"`
	Text      string `json:"text"`
}

// Record is a persisted passage. Records are immutable once written.
type Record struct {
	// ID is the passage identity; see harvest.PassageID.
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	PackageID string    `json:"packageId"`
	Part      string    `json:"part"`
	Page      int       `json:"page"`
	Text      string    `json:"text"`
	SourceRef string    `json:"sourceRef"`
	Venue     string    `json:"venue"`
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *Record) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "record ID required")
	}
	if r.PackageID == "" {
		return Errorf(EINVALID, "record package ID required")
	}
	if r.Part == "" {
		return Errorf(EINVALID, "record part required")
	}
	if r.Text == "" {
		return Errorf(EINVALID, "record text required")
	}
	return nil
}

// RecordService represents a service for managing persisted passages.
type RecordService interface {
	// InsertIfAbsent stores the record unless one with the same ID exists.
	// An existing ID is a no-op, not an error.
	InsertIfAbsent(ctx context.Context, rec *Record) (inserted bool, err error)

	// InsertBatch stores records in a single transaction, skipping IDs that
	// already exist. Returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, recs []*Record) (inserted int, err error)

	// Exists reports whether a record with the ID is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// FindRecordByID retrieves a record by ID.
	// Returns ENOTFOUND if the record does not exist.
	FindRecordByID(ctx context.Context, id string) (*Record, error)

	// FindRecords retrieves records matching the filter.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)

	// CountRecords returns the number of records matching the filter.
	// Offset and Limit are ignored.
	CountRecords(ctx context.Context, filter RecordFilter) (int, error)
}

// RecordFilter represents a filter for FindRecords.
type RecordFilter struct {
	PackageID *string `json:"packageId"`
	Part      *string `json:"part"`
	Page      *int    `json:"page"`
	Venue     *string `json:"venue"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
