package mock

import "github.com/Brandonf2022/touringbot"

var _ touringbot.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is a mock implementation of touringbot.CheckpointStore.
type CheckpointStore struct {
	LoadFn  func() (*touringbot.Checkpoint, error)
	SaveFn  func(cp *touringbot.Checkpoint) error
	ClearFn func() error
}

func (s *CheckpointStore) Load() (*touringbot.Checkpoint, error) {
	return s.LoadFn()
}

func (s *CheckpointStore) Save(cp *touringbot.Checkpoint) error {
	return s.SaveFn(cp)
}

func (s *CheckpointStore) Clear() error {
	return s.ClearFn()
}
