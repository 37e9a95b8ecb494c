// Package state provides the observable client state: the mirrored file
// collection and the busy indicator.
package state

import (
	"sync"

	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/models"
)

// Store mirrors the server-held file collection.
// Replace is the only mutator and Snapshot the only accessor; both copy.
// Thread-safe for concurrent access.
type Store struct {
	eventBus *events.EventBus

	files   models.FileCollection
	applied uint64 // sequence number of the last ReplaceAt

	mu sync.RWMutex
}

// NewStore creates an empty store. eventBus may be nil.
func NewStore(eventBus *events.EventBus) *Store {
	return &Store{
		eventBus: eventBus,
		files:    models.FileCollection{},
	}
}

// Snapshot returns a copy of the current collection.
func (s *Store) Snapshot() models.FileCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.Clone()
}

// Len returns the number of files held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Replace swaps in a new collection wholesale and publishes the change.
// Events are published under the lock so subscribers see them in order.
func (s *Store) Replace(files models.FileCollection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files.Clone()
	s.eventBus.PublishStoreChanged(s.files.Clone())
}

// ReplaceAt replaces the collection only if seq is newer than the last
// sequence applied through ReplaceAt. It reports whether the update was applied.
func (s *Store) ReplaceAt(seq uint64, files models.FileCollection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.files = files.Clone()
	s.eventBus.PublishStoreChanged(s.files.Clone())
	return true
}
