package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransportError indicates the request never produced an HTTP response
// (DNS, TCP, timeout).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError indicates the upstream answered with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.URL)
}

// Label classifies an error into a metrics category.
func Label(err error) string {
	if err == nil {
		return "none"
	}

	var status *StatusError
	if errors.As(err, &status) {
		switch status.Status {
		case http.StatusForbidden:
			return "forbidden"
		case http.StatusNotFound:
			return "not_found"
		case http.StatusTooManyRequests:
			return "rate_limited"
		default:
			return "upstream_status"
		}
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		if errors.Is(transport.Err, context.DeadlineExceeded) {
			return "timeout"
		}
		var netErr net.Error
		if errors.As(transport.Err, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		return "connection"
	}

	return "other"
}
