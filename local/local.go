// Package local provides an in-process light protocol connection.
//
// For providers compiled into the same binary as the client, this
// adapter hands complete requests straight to a server with no
// serialization.
package local

import (
	"context"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/server"
	"github.com/blockberries/lightreq/types"
)

// Compile-time interface check.
var _ lightreq.Connection = (*Connection)(nil)

// Connection wraps a local provider.
type Connection struct {
	srv *server.Server
}

// NewConnection creates an in-process connection to the given
// provider.
func NewConnection(p lightreq.ChainProvider) (*Connection, error) {
	srv, err := server.New(p)
	if err != nil {
		return nil, err
	}
	return &Connection{srv: srv}, nil
}

func (c *Connection) Handshake(_ context.Context) (types.Capabilities, error) {
	return c.srv.Capabilities(), nil
}

func (c *Connection) Exchange(ctx context.Context, reqs []lightreq.CompleteRequest) ([]lightreq.Response, error) {
	return c.srv.AnswerAll(ctx, reqs)
}

func (c *Connection) Capabilities() types.Capabilities {
	return c.srv.Capabilities()
}

func (c *Connection) Close() error { return nil }

// Server returns the underlying server.
func (c *Connection) Server() *server.Server {
	return c.srv
}
