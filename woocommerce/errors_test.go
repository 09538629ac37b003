package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "unknown"},
		{name: "status", err: &RequestError{Endpoint: "/x", StatusCode: 404}, expected: "http_status"},
		{name: "timeout", err: &RequestError{Endpoint: "/x", Err: context.DeadlineExceeded}, expected: "timeout"},
		{name: "net timeout", err: &RequestError{Endpoint: "/x", Err: &net.DNSError{IsTimeout: true}}, expected: "timeout"},
		{name: "connection", err: &RequestError{Endpoint: "/x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}, expected: "connection"},
		{name: "api", err: &APIError{Endpoint: "/x", Code: "rest_forbidden"}, expected: "api"},
		{name: "wrapped api", err: fmt.Errorf("extract: %w", &APIError{Code: "c"}), expected: "api"},
		{name: "canceled", err: context.Canceled, expected: "canceled"},
		{name: "unexpected", err: &UnexpectedError{Op: "write", Err: errors.New("disk full")}, expected: "write"},
		{name: "other", err: errors.New("some other error"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorType(tt.err); got != tt.expected {
				t.Fatalf("ErrorType(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	reqErr := &RequestError{Endpoint: "/wc/v2/orders", StatusCode: 401, Message: "Invalid signature"}
	if got := reqErr.Error(); got != "request /wc/v2/orders: status 401: Invalid signature" {
		t.Fatalf("request error = %q", got)
	}
	apiErr := &APIError{Endpoint: "/wc/v2/orders", Code: "rest_forbidden", Message: "nope"}
	if got := apiErr.Error(); got != "api /wc/v2/orders: rest_forbidden: nope" {
		t.Fatalf("api error = %q", got)
	}
	cause := errors.New("disk full")
	unexpected := &UnexpectedError{Endpoint: "/wc/v2/orders", Op: "write", Err: cause}
	if !errors.Is(unexpected, cause) {
		t.Fatalf("unexpected error should unwrap to its cause")
	}
}
