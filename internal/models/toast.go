package models

import "time"

// Severity classifies a toast.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Toast is a transient, auto-dismissing notification.
type Toast struct {
	ID        uint64
	Message   string
	Severity  Severity
	CreatedAt time.Time

	// Leaving is set once the exit transition has started.
	Leaving bool
}

// BusyState describes the global busy overlay.
type BusyState struct {
	Active bool
	Label  string
}
