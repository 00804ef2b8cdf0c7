package touringbot

import "fmt"

// Checkpoint is a cursor over campaign progress: the next unprocessed
// (year, half-year window, venue index).
type Checkpoint struct {
	Year  int `json:"year"`
	Half  int `json:"half"`
	Index int `json:"index"`
}

// Validate returns an error if the checkpoint cannot name a campaign position.
func (c *Checkpoint) Validate() error {
	if c.Half != 0 && c.Half != 1 {
		return Errorf(ECHECKPOINT, "checkpoint half must be 0 or 1, got %d", c.Half)
	}
	if c.Index < 0 {
		return Errorf(ECHECKPOINT, "checkpoint index must not be negative, got %d", c.Index)
	}
	return nil
}

// String returns a human-readable position.
func (c *Checkpoint) String() string {
	return fmt.Sprintf("year %d, half %d, index %d", c.Year, c.Half, c.Index)
}

// CheckpointStore persists campaign progress.
type CheckpointStore interface {
	// Load returns the saved checkpoint, or nil if none exists.
	// A corrupt checkpoint is removed and reported as ECHECKPOINT, after
	// which Load returns nil.
	Load() (*Checkpoint, error)

	// Save replaces the stored checkpoint atomically.
	Save(cp *Checkpoint) error

	// Clear removes the stored checkpoint.
	Clear() error
}
