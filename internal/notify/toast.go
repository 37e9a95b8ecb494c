package notify

import (
	"sync"
	"time"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/models"
)

// Sink receives every toast as it is shown, e.g. to mirror it elsewhere.
type Sink interface {
	Toast(t models.Toast)
}

// QueueOptions tunes toast timing. Zero values use the defaults.
type QueueOptions struct {
	Lifetime       time.Duration
	ExitTransition time.Duration
}

// Queue holds the visible toasts. Toasts are appended in order, never
// deduplicated, and leave either when their lifetime expires or when the
// user dismisses them, whichever happens first. Leaving plays an exit
// transition before the toast is detached; later removal attempts are no-ops.
type Queue struct {
	eventBus *events.EventBus
	lifetime time.Duration
	exit     time.Duration
	sinks    []Sink

	toasts []models.Toast
	timers map[uint64]*time.Timer
	nextID uint64
	closed bool

	mu sync.Mutex
}

// NewQueue creates an empty toast queue. eventBus may be nil.
func NewQueue(eventBus *events.EventBus, opts QueueOptions, sinks ...Sink) *Queue {
	if opts.Lifetime <= 0 {
		opts.Lifetime = constants.ToastLifetime
	}
	if opts.ExitTransition <= 0 {
		opts.ExitTransition = constants.ToastExitTransition
	}
	return &Queue{
		eventBus: eventBus,
		lifetime: opts.Lifetime,
		exit:     opts.ExitTransition,
		sinks:    sinks,
		timers:   make(map[uint64]*time.Timer),
	}
}

// Show appends a toast and arms its auto-dismiss timer. After Close the
// toast is no longer displayed but still reaches the sinks.
func (q *Queue) Show(severity models.Severity, message string) models.Toast {
	q.mu.Lock()
	q.nextID++
	t := models.Toast{
		ID:        q.nextID,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	if !q.closed {
		q.toasts = append(q.toasts, t)
		id := t.ID
		q.timers[id] = time.AfterFunc(q.lifetime, func() { q.Dismiss(id) })
		q.eventBus.PublishToast(events.EventToastAdded, t)
	}
	q.mu.Unlock()

	for _, s := range q.sinks {
		s.Toast(t)
	}
	return t
}

// Info shows an informational toast.
func (q *Queue) Info(message string) models.Toast { return q.Show(models.SeverityInfo, message) }

// Success shows a success toast.
func (q *Queue) Success(message string) models.Toast { return q.Show(models.SeveritySuccess, message) }

// Warning shows a warning toast.
func (q *Queue) Warning(message string) models.Toast { return q.Show(models.SeverityWarning, message) }

// Error shows an error toast.
func (q *Queue) Error(message string) models.Toast { return q.Show(models.SeverityError, message) }

// Dismiss starts the exit transition of a toast. It reports whether this
// call started it; dismissing a leaving or removed toast does nothing.
func (q *Queue) Dismiss(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 || q.toasts[i].Leaving {
		return false
	}

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
	}
	q.toasts[i].Leaving = true
	q.eventBus.PublishToast(events.EventToastLeaving, q.toasts[i])
	q.timers[id] = time.AfterFunc(q.exit, func() { q.detach(id) })
	return true
}

// detach removes a toast after its exit transition.
func (q *Queue) detach(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 {
		return
	}
	t := q.toasts[i]
	q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
	delete(q.timers, id)
	q.eventBus.PublishToast(events.EventToastRemoved, t)
}

func (q *Queue) indexOf(id uint64) int {
	for i, t := range q.toasts {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Visible returns a copy of the attached toasts, oldest first,
// including those playing their exit transition.
func (q *Queue) Visible() []models.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Close stops every pending timer. Toasts shown afterwards are not tracked.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}
