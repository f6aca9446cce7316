package framing

import (
	"errors"
	"fmt"
)

var (
	ErrPayloadTooLarge = errors.New("framing: buffered payload too large")
	ErrNilRule         = errors.New("framing: nil rule")
	ErrConnClosed      = errors.New("framing: connection closed")
	ErrClientClosed    = errors.New("framing: client closed")
)

// Error types returned by Processor, Conn and Client.
// They tell the caller whether the underlying stream can still be used.

// MalformedFrameError is returned when a Rule rejects the buffered bytes.
// Err carries the rule-defined detail.
//
// The stream is corrupted past this point: the processor makes no further
// Decode calls and the connection must be closed.
type MalformedFrameError struct {
	Err error
}

func (e *MalformedFrameError) Error() string {
	return "framing: malformed frame: " + e.Err.Error()
}

// Unwrap returns the rule error for error chain inspection
func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the stream cannot be resynchronised
func (e *MalformedFrameError) ShouldCloseConnection() bool {
	return true
}

// PayloadTooLargeError is returned when the unconsumed backlog left after a
// Process call exceeds Config.MaxBufferedBytes.
//
// It matches ErrPayloadTooLarge with errors.Is. Callers usually treat it
// like a malformed frame but may close with a dedicated "too large" signal.
type PayloadTooLargeError struct {
	Buffered int // unconsumed bytes held when the check ran
	Limit    int // configured ceiling
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("framing: buffered payload too large: %d bytes exceeds limit of %d", e.Buffered, e.Limit)
}

// Is reports whether target is ErrPayloadTooLarge
func (e *PayloadTooLargeError) Is(target error) bool {
	return target == ErrPayloadTooLarge
}

// ShouldCloseConnection returns true - the peer is misbehaving
func (e *PayloadTooLargeError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps I/O errors from the underlying net.Conn.
//
// Connection handling: the connection is already broken, CLOSE it
type ConnectionError struct {
	Op  string // Operation that failed (read, write, dial)
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("framing: connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they came from must be closed.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err requires closing the connection.
// Unknown error types are treated conservatively and return true.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}

// IsMalformed reports whether err is, or wraps, a MalformedFrameError.
func IsMalformed(err error) bool {
	var e *MalformedFrameError
	return errors.As(err, &e)
}

// IsPayloadTooLarge reports whether err is, or wraps, a PayloadTooLargeError.
func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}

func malformed(err error) error {
	var e *MalformedFrameError
	if errors.As(err, &e) {
		return err
	}
	return &MalformedFrameError{Err: err}
}
