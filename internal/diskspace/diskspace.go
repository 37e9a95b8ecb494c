// Package diskspace checks free space before large writes.
package diskspace

import (
	"errors"
	"fmt"
)

// SafetyMargin is applied to every requested size.
const SafetyMargin = 1.1

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Dir            string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space in %s: need %.2f MB, have %.2f MB available",
		e.Dir, requiredMB, availableMB)
}

// Check returns an *InsufficientSpaceError when dir's filesystem cannot hold
// requiredBytes plus the safety margin. Unknown sizes (negative) and
// filesystems that cannot be queried pass; the write then fails on its own.
func Check(dir string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	available, ok := Available(dir)
	if !ok {
		return nil
	}

	required := int64(float64(requiredBytes) * SafetyMargin)
	if available < required {
		return &InsufficientSpaceError{Dir: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// IsInsufficientSpace reports whether err wraps an *InsufficientSpaceError.
func IsInsufficientSpace(err error) bool {
	var e *InsufficientSpaceError
	return errors.As(err, &e)
}
