package httpx

import (
	"errors"
	"fmt"
	"strings"
)

// Error describes a failed request. StatusCode is 0 when no response arrived.
type Error struct {
	Method     string
	URL        string
	StatusCode int

	// RequestID is the correlation id sent or echoed back (see RequestIDConfig).
	RequestID string

	// Body holds at most MaxErrorBodyBytes of an error response.
	Body []byte

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request id %s)", e.RequestID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsTransport reports whether err is an *Error raised before any response was received.
func IsTransport(err error) bool {
	he, ok := AsError(err)
	return ok && he.StatusCode == 0
}

func IsHTTPStatus(err error, code int) bool {
	he, ok := AsError(err)
	return ok && he.StatusCode == code
}
