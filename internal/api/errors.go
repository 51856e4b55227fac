package api

import "fmt"

// Kind classifies a failed backend call. Read paths degrade to fallback data
// on any kind; write paths surface the Detail to the user.
type Kind int

const (
	// KindTransport covers network errors, cancellations, and timeouts.
	KindTransport Kind = iota
	// KindMalformed means the body was not JSON where JSON was required.
	KindMalformed
	// KindHTTPStatus is a non-2xx response on an unenveloped endpoint.
	KindHTTPStatus
	// KindRejected is a well-formed business rejection: the server answered
	// with a non-ok status or an error/detail field.
	KindRejected
)

// Error carries enough raw response context to diagnose a failed call.
type Error struct {
	Kind       Kind
	Detail     string
	StatusCode int
	Body       string
	Timeout    bool
	cause      error
}

func (e *Error) Error() string {
	if e.Timeout {
		return "timeout"
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

// IsTimeout reports whether err is a bounded-call expiry.
func IsTimeout(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Timeout
	}
	return false
}

func snippet(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

func httpDetail(method, path string, code int) string {
	return fmt.Sprintf("%s %s failed: %d", method, path, code)
}
