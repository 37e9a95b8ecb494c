// Package events fans client state changes out to front ends.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventStoreChanged     EventType = "store_changed"     // File collection replaced
	EventBusyChanged      EventType = "busy_changed"      // Busy overlay toggled or relabelled
	EventToastAdded       EventType = "toast_added"       // Notification shown
	EventToastLeaving     EventType = "toast_leaving"     // Exit transition started
	EventToastRemoved     EventType = "toast_removed"     // Notification detached
	EventDragState        EventType = "drag_state"        // Drop target highlight changed
	EventTransferProgress EventType = "transfer_progress" // Upload or download bytes moved
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// StoreChangedEvent carries a snapshot of the new file collection.
type StoreChangedEvent struct {
	BaseEvent
	Files models.FileCollection
}

// BusyChangedEvent carries the new busy overlay state.
type BusyChangedEvent struct {
	BaseEvent
	State models.BusyState
}

// ToastEvent is published for EventToastAdded, EventToastLeaving and EventToastRemoved.
type ToastEvent struct {
	BaseEvent
	Toast models.Toast
}

// DragStateEvent reports whether the drop target is highlighted.
type DragStateEvent struct {
	BaseEvent
	Over bool
}

// TransferEvent reports byte progress of an upload batch or a download.
type TransferEvent struct {
	BaseEvent
	Direction string // "upload" or "download"
	Name      string
	Current   int64
	Total     int64 // -1 when unknown
	Done      bool
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events are dropped for subscribers whose buffer is full.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishStoreChanged publishes a collection snapshot.
func (eb *EventBus) PublishStoreChanged(files models.FileCollection) {
	eb.Publish(&StoreChangedEvent{
		BaseEvent: BaseEvent{EventType: EventStoreChanged, Time: time.Now()},
		Files:     files,
	})
}

// PublishBusy publishes the busy overlay state.
func (eb *EventBus) PublishBusy(state models.BusyState) {
	eb.Publish(&BusyChangedEvent{
		BaseEvent: BaseEvent{EventType: EventBusyChanged, Time: time.Now()},
		State:     state,
	})
}

// PublishToast publishes a toast lifecycle event.
func (eb *EventBus) PublishToast(eventType EventType, toast models.Toast) {
	eb.Publish(&ToastEvent{
		BaseEvent: BaseEvent{EventType: eventType, Time: time.Now()},
		Toast:     toast,
	})
}

// PublishDragState publishes the drop target highlight.
func (eb *EventBus) PublishDragState(over bool) {
	eb.Publish(&DragStateEvent{
		BaseEvent: BaseEvent{EventType: EventDragState, Time: time.Now()},
		Over:      over,
	})
}

// PublishTransfer publishes transfer progress.
func (eb *EventBus) PublishTransfer(direction, name string, current, total int64, done bool) {
	eb.Publish(&TransferEvent{
		BaseEvent: BaseEvent{EventType: EventTransferProgress, Time: time.Now()},
		Direction: direction,
		Name:      name,
		Current:   current,
		Total:     total,
		Done:      done,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
