package state

import (
	"sync"

	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/models"
)

// Busy is the global busy overlay. Acquisitions are reference counted:
// the overlay stays active until every holder has released, and shows the
// label of the most recent acquirer.
type Busy struct {
	eventBus *events.EventBus

	holders int
	label   string

	mu sync.Mutex
}

// NewBusy creates an inactive busy indicator. eventBus may be nil.
func NewBusy(eventBus *events.EventBus) *Busy {
	return &Busy{eventBus: eventBus}
}

// Acquire activates the overlay with label and returns its release func.
// Release is idempotent; call it with defer so it runs on every exit path.
func (b *Busy) Acquire(label string) (release func()) {
	b.mu.Lock()
	b.holders++
	b.label = label
	b.eventBus.PublishBusy(models.BusyState{Active: true, Label: label})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(b.release)
	}
}

func (b *Busy) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.holders--
	if b.holders > 0 {
		return
	}
	b.holders = 0
	b.label = ""
	b.eventBus.PublishBusy(models.BusyState{})
}

// State returns the current overlay state.
func (b *Busy) State() models.BusyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.BusyState{Active: b.holders > 0, Label: b.label}
}
