package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// RequestError reports a failed HTTP exchange: the request never got a
// response (StatusCode 0) or the response status was not 2xx.
type RequestError struct {
	Endpoint   string
	URL        string
	StatusCode int
	// Message is the API error message found in the body, if any.
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.StatusCode)
		}
		return fmt.Sprintf("request %s: status %d: %s", e.Endpoint, e.StatusCode, msg)
	}
	return fmt.Sprintf("request %s: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because a deadline passed.
func (e *RequestError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// APIError is a 2xx response whose body is a WooCommerce error envelope.
type APIError struct {
	Endpoint string
	Code     string
	Message  string
	Status   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s: %s: %s", e.Endpoint, e.Code, e.Message)
}

// UnexpectedError wraps any other failure during an extraction, such as an
// undecodable body or a failed file write.
type UnexpectedError struct {
	Endpoint string
	Op       string
	Err      error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// ErrorType returns a short label for metrics and logs.
func ErrorType(err error) string {
	if err == nil {
		return "unknown"
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.StatusCode != 0:
			return "http_status"
		case reqErr.Timeout():
			return "timeout"
		default:
			return "connection"
		}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "api"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	var unexpected *UnexpectedError
	if errors.As(err, &unexpected) {
		return unexpected.Op
	}
	return "other"
}
