package httpclient

import "fmt"

// ValidationError reports invalid input detected before a request is sent or a
// response is built: status codes, header names/values, unsupported methods.
type ValidationError struct {
	Header string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("invalid header %q: %s", e.Header, e.Reason)
	}
	return e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a network level failure (DNS, connect, TLS, redirect limit).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is returned when a body cannot be decoded or a raw response is malformed.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }
