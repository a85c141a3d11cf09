package session

import (
	"errors"
	"fmt"

	"zkbridge.service/internal/ports/device"
)

// ErrNotConnected means an operation was attempted outside the Connected
// state. It is a caller bug and is never recovered silently.
var ErrNotConnected = errors.New("device session is not connected")

// ConnectionError means the transport to the terminal could not be
// established. It is not retried here; retry policy belongs to the caller.
type ConnectionError struct {
	Endpoint device.Endpoint
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to terminal %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError means the terminal rejected or failed a read after the
// connection was established.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("device query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// CommandError means the terminal rejected or failed a state-changing
// command after the connection was established.
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("device command %s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StreamError means the realtime subscription could not be registered.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("device realtime subscription: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
