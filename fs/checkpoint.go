// Package fs provides file-based persistence of harvest progress.
package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Brandonf2022/touringbot"
)

// Ensure CheckpointStore implements touringbot.CheckpointStore at compile time.
var _ touringbot.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps the checkpoint in a single JSON file. Saves go to
// path.tmp first and are renamed over path, so a crash mid-write never
// leaves a truncated checkpoint behind.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore creates a store backed by the file at path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Path returns the checkpoint file path.
func (s *CheckpointStore) Path() string {
	return s.path
}

func (s *CheckpointStore) tempPath() string {
	return s.path + ".tmp"
}

// checkpointFile mirrors the on-disk format. Pointers detect missing keys.
type checkpointFile struct {
	Year  *int `json:"year"`
	Half  *int `json:"half"`
	Index *int `json:"index"`
}

// Load returns the saved checkpoint, or nil if there is none. A file that
// cannot be read as a checkpoint is deleted and reported as ECHECKPOINT.
func (s *CheckpointStore) Load() (*touringbot.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, s.discard(touringbot.WrapError(touringbot.ECHECKPOINT, err, "reading checkpoint %s", s.path))
	}

	var f checkpointFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, s.discard(touringbot.WrapError(touringbot.ECHECKPOINT, err, "decoding checkpoint %s", s.path))
	}
	if f.Year == nil || f.Half == nil || f.Index == nil {
		return nil, s.discard(touringbot.Errorf(touringbot.ECHECKPOINT, "checkpoint %s is missing fields", s.path))
	}

	cp := &touringbot.Checkpoint{Year: *f.Year, Half: *f.Half, Index: *f.Index}
	if err := cp.Validate(); err != nil {
		return nil, s.discard(err)
	}
	return cp, nil
}

// discard removes the corrupt checkpoint and returns cause.
func (s *CheckpointStore) discard(cause error) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w (removing it failed: %v)", cause, err)
	}
	return cause
}

// Save atomically replaces the checkpoint file.
func (s *CheckpointStore) Save(cp *touringbot.Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(s.tempPath(), data, 0644); err != nil {
		return err
	}
	if err := os.Rename(s.tempPath(), s.path); err != nil {
		_ = os.Remove(s.tempPath())
		return err
	}
	return nil
}

// Clear removes the checkpoint. Clearing a missing checkpoint is not an error.
func (s *CheckpointStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
