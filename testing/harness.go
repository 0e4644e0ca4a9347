package lightreqtest

import (
	"context"
	"testing"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/batch"
	"github.com/blockberries/lightreq/local"
	"github.com/blockberries/lightreq/server"
)

// Harness runs chained batches against a provider through an
// in-process connection.
type Harness struct {
	t    *testing.T
	conn *local.Connection
}

// NewHarness creates a test harness wrapping the given provider.
func NewHarness(t *testing.T, p lightreq.ChainProvider) *Harness {
	t.Helper()
	conn, err := local.NewConnection(p)
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	return &Harness{t: t, conn: conn}
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.conn.Server()
}

// Connection returns the in-process connection.
func (h *Harness) Connection() *local.Connection {
	return h.conn
}

// Answer serves a single complete request.
func (h *Harness) Answer(req lightreq.CompleteRequest) lightreq.Response {
	h.t.Helper()
	resp, err := h.Server().Answer(context.Background(), req)
	if err != nil {
		h.t.Fatalf("Answer (%s) failed: %v", req.Kind(), err)
	}
	return resp
}

// Build pushes reqs into a new builder and builds the batch.
func (h *Harness) Build(reqs ...lightreq.IncompleteRequest) *batch.Batch {
	h.t.Helper()
	b := batch.NewBuilder()
	for i, req := range reqs {
		if err := b.Push(req); err != nil {
			h.t.Fatalf("Push (request %d) failed: %v", i, err)
		}
	}
	return b.Build()
}

// Run dispatches a chained batch built from reqs and returns every
// response in request order.
func (h *Harness) Run(reqs ...lightreq.IncompleteRequest) []lightreq.Response {
	h.t.Helper()
	b := h.Build(reqs...)
	if err := batch.Dispatch(context.Background(), h.conn, b); err != nil {
		h.t.Fatalf("Dispatch failed after %d of %d responses: %v", b.Answered(), b.Len(), err)
	}
	return b.Responses()
}

// RunErr is Run without the failure check. The batch is returned so
// the caller can inspect how far it got.
func (h *Harness) RunErr(reqs ...lightreq.IncompleteRequest) (*batch.Batch, error) {
	h.t.Helper()
	b := h.Build(reqs...)
	return b, batch.Dispatch(context.Background(), h.conn, b)
}

// MustOutputs asserts that resp exposes exactly the outputs req
// notes, in order and with matching kinds.
func MustOutputs(t *testing.T, req lightreq.IncompleteRequest, resp lightreq.Response) {
	t.Helper()
	var noted []lightreq.OutputKind
	req.NoteOutputs(func(idx int, kind lightreq.OutputKind) {
		if idx != len(noted) {
			t.Errorf("%s: noted output %d out of order", req.Kind(), idx)
		}
		noted = append(noted, kind)
	})
	var exposed []lightreq.OutputKind
	resp.FillOutputs(func(idx int, out lightreq.Output) {
		if idx != len(exposed) {
			t.Errorf("%s: exposed output %d out of order", resp.Kind(), idx)
		}
		exposed = append(exposed, out.Kind())
	})
	if len(noted) != len(exposed) {
		t.Fatalf("%s: noted %d outputs, response exposes %d", req.Kind(), len(noted), len(exposed))
	}
	for i := range noted {
		if noted[i] != exposed[i] {
			t.Errorf("%s output %d: noted %s, exposed %s", req.Kind(), i, noted[i], exposed[i])
		}
	}
}
