// Package bloom provides a probabilistic set of passage identities seen
// during a harvest run.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter remembers identities. A false Seen result is definite; a true
// result may be a false positive and should be confirmed against the store.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected identities at the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records id.
func (f *Filter) Add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(id)
}

// Seen reports whether id may have been recorded.
func (f *Filter) Seen(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(id)
}

// SeenOrAdd reports whether id may have been recorded and records it.
func (f *Filter) SeenOrAdd(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestOrAddString(id)
}

// EstimatedCount returns the approximate number of identities recorded.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}
