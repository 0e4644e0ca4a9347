package lightreq

import (
	"errors"
	"fmt"
)

// NoSuchOutputError reports that a back-reference cannot be served:
// the referenced request does not exist, is not earlier in the batch,
// or does not expose an output of the expected kind at that index. It
// is also returned when completion is attempted while a reference is
// still unresolved.
//
// Request and Output identify the offending reference for logging.
// The sub-case is deliberately not recorded.
type NoSuchOutputError struct {
	Request int
	Output  int
}

func (e *NoSuchOutputError) Error() string {
	return fmt.Sprintf("no such output: request %d, output %d", e.Request, e.Output)
}

func noSuchOutput(req, idx int) *NoSuchOutputError {
	return &NoSuchOutputError{Request: req, Output: idx}
}

// NewNoSuchOutput creates a NoSuchOutputError for the given reference.
func NewNoSuchOutput(req, idx int) *NoSuchOutputError {
	return noSuchOutput(req, idx)
}

// IsNoSuchOutput checks whether an error is a NoSuchOutputError and
// returns it.
func IsNoSuchOutput(err error) (*NoSuchOutputError, bool) {
	var e *NoSuchOutputError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// DecodeError reports bytes that could not be decoded into a request
// or response. It is never a NoSuchOutputError.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError checks whether an error is a DecodeError and returns it.
func IsDecodeError(err error) (*DecodeError, bool) {
	var e *DecodeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	// ErrKindMismatch is returned when a response does not answer the
	// kind of request it is supplied for.
	ErrKindMismatch = errors.New("lightreq: response kind does not match request")

	// ErrNotSupported is returned by servers asked for a request kind
	// their provider does not declare.
	ErrNotSupported = errors.New("lightreq: request kind not supported")

	// ErrNotFound is returned by providers that do not hold the
	// requested data.
	ErrNotFound = errors.New("lightreq: not found")
)
