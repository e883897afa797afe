package client

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Error taxonomy
// --------------------------------------------------------------------------

// ConnectionError signals that the TCP connection to the server could not
// be established (dial timeout, refused, socket upgrade failure).
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError signals that no response terminator arrived within the
// per-command budget. The connection itself may still be healthy; only the
// waiting command is cancelled.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// WriteError signals that writing the serialized command to the socket
// failed. The socket is destroyed; the next command re-connects.
type WriteError struct {
	Command string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to send command %q: %v", e.Command, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
