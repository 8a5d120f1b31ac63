package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedPayload marks a 200 response that is valid JSON but does not
// carry the expected attribute list. Fetch downgrades it to a success with
// no attributes.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrorClass represents a classification of lookup failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (unknown serial, bad request).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnexpected represents any other non-200 status (1xx, 2xx other than 200, 3xx).
	ErrorClassUnexpected ErrorClass = "unexpected"

	// ErrorClassNetwork represents network/timeout errors and unreadable bodies.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 200 response whose body is not valid JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// HTTPError is the failure reason for a response with a status other than 200.
type HTTPError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("lookup %s error (status %d): %s", e.Class(), e.StatusCode, e.Status)
	}
	return fmt.Sprintf("lookup %s error (status %d)", e.Class(), e.StatusCode)
}

// Class returns the error class derived from the status code.
func (e *HTTPError) Class() ErrorClass {
	return classifyStatus(e.StatusCode)
}

// TransportError is the failure reason when no usable response was obtained:
// timeouts, DNS failures, connection resets, unreadable or non-JSON bodies.
type TransportError struct {
	ErrorClass ErrorClass
	Cause      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("lookup %s error: %v", e.ErrorClass, e.Cause)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Classify returns the class of a failure reason, or "" for nil and
// unrecognised errors.
func Classify(err error) ErrorClass {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Class()
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.ErrorClass
	}
	return ""
}

// classifyStatus categorizes a non-200 status code.
func classifyStatus(code int) ErrorClass {
	switch {
	case code >= 400 && code < 500:
		return ErrorClassClient
	case code >= 500:
		return ErrorClassServer
	case code == http.StatusOK:
		return ""
	default:
		return ErrorClassUnexpected
	}
}
