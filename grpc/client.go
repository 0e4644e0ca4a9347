package lightgrpc

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

// Compile-time interface check.
var _ lightreq.Connection = (*Client)(nil)

// Client implements lightreq.Connection over gRPC using cramberry
// serialization.
type Client struct {
	cc *grpc.ClientConn

	mu   sync.RWMutex
	caps types.Capabilities
}

// Dial connects to a remote light protocol server.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("lightreq client: dial %s: %w", addr, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func (c *Client) Handshake(ctx context.Context) (types.Capabilities, error) {
	resp := new(HandshakeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Handshake"), &HandshakeRequest{}, resp); err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.caps = resp.Capabilities
	c.mu.Unlock()
	return resp.Capabilities, nil
}

func (c *Client) Capabilities() types.Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caps
}

// Exchange sends reqs and returns the responses the server answered.
// When the server stopped early the answered prefix is returned with
// the server's error.
func (c *Client) Exchange(ctx context.Context, reqs []lightreq.CompleteRequest) ([]lightreq.Response, error) {
	req := &ExchangeRequest{Requests: make([]lightreq.RequestEnvelope, len(reqs))}
	for i, r := range reqs {
		req.Requests[i] = lightreq.WrapRequest(r)
	}
	resp := new(ExchangeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Exchange"), req, resp); err != nil {
		return nil, err
	}

	resps := make([]lightreq.Response, 0, len(resp.Responses))
	for i, env := range resp.Responses {
		r, err := env.Unwrap()
		if err != nil {
			return resps, fmt.Errorf("response %d: %w", i, err)
		}
		resps = append(resps, r)
	}
	return resps, remoteError(resp.Failure, resp.Message)
}
