// Package api provides the transport client for the PDF merge service.
package api

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse indicates a response body that is not a JSON envelope.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrEmptyBaseURL is returned by NewClient when no service URL is configured.
	ErrEmptyBaseURL = errors.New("merge service base URL is empty")
)

// TransportError is a failure to obtain a well-formed response: a network
// error or a body that is not a JSON envelope. A non-2xx status is a
// TransportError only when its body is not a failed envelope.
type TransportError struct {
	Op         string // "session", "upload", "remove_file", "clear", "merge", "download"
	StatusCode int    // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// StructuralError is a well-formed response with success set to false,
// whatever its HTTP status.
// Message is the server's explanation, shown to the user verbatim.
type StructuralError struct {
	Op      string
	Message string
}

func (e *StructuralError) Error() string {
	if e.Message == "" {
		return e.Op + " failed"
	}
	return e.Message
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStructuralError reports whether err is, or wraps, a *StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
