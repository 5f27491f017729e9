package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed is returned when an operation is attempted after the
	// connection has been torn down.
	ErrClosed = errors.New("driver: connection closed")
	// ErrNotConnected is returned when an operation is attempted before
	// the client has connected.
	ErrNotConnected = errors.New("driver: not connected")
)

// ConnectionError wraps a transport failure: dialing, sending, or an
// unexpected disconnect.
type ConnectionError struct {
	Op    string
	Cause error
}

// Error returns the error message for ConnectionError.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("driver: %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause of the ConnectionError.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// TimeoutError is returned when an RPC call's deadline passes before the
// server replies. The reply, if it ever arrives, is discarded.
type TimeoutError struct {
	Method  string
	Elapsed time.Duration
}

// Error returns the error message for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("driver: %s timed out after %s", e.Method, e.Elapsed)
}

// Unwrap makes the error match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// RemoteError is an error the server answered with. Code and Message
// come straight off the wire.
type RemoteError struct {
	Code    int    `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

// Error returns the error message for RemoteError.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("driver: server error %d: %s", e.Code, e.Message)
}
