package lightgrpc

import (
	"errors"
	"fmt"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

// Transport wrapper types. These are used only at the gRPC
// serialization boundary.

// HandshakeRequest is the (empty) request for Handshake.
type HandshakeRequest struct{}

// HandshakeResponse carries the provider's declared capabilities.
type HandshakeResponse struct {
	Capabilities types.Capabilities `cramberry:"1"`
}

// ExchangeRequest carries complete requests in batch order.
type ExchangeRequest struct {
	Requests []lightreq.RequestEnvelope `cramberry:"1"`
}

// ExchangeResponse carries the answered prefix of an exchange. When
// the server stopped early, Failure says why.
type ExchangeResponse struct {
	Responses []lightreq.ResponseEnvelope `cramberry:"1"`
	Failure   uint32                      `cramberry:"2"`
	Message   string                      `cramberry:"3"`
}

// Failure codes carried in ExchangeResponse.
const (
	failureNone uint32 = iota
	failureNotFound
	failureNotSupported
	failureInternal
)

func failureOf(err error) uint32 {
	switch {
	case err == nil:
		return failureNone
	case errors.Is(err, lightreq.ErrNotFound):
		return failureNotFound
	case errors.Is(err, lightreq.ErrNotSupported):
		return failureNotSupported
	default:
		return failureInternal
	}
}

// remoteError rebuilds a server failure so callers can match the
// usual sentinels with errors.Is.
func remoteError(code uint32, msg string) error {
	switch code {
	case failureNone:
		return nil
	case failureNotFound:
		return fmt.Errorf("remote: %s: %w", msg, lightreq.ErrNotFound)
	case failureNotSupported:
		return fmt.Errorf("remote: %s: %w", msg, lightreq.ErrNotSupported)
	default:
		return fmt.Errorf("remote: %s", msg)
	}
}
