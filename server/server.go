// Package server answers complete light requests on behalf of a
// provider. Transports (local and gRPC) sit on top of it.
package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/internal/metrics"
	"github.com/blockberries/lightreq/types"
)

// Server wraps a provider with capability routing. Safe for
// concurrent use when the provider is.
type Server struct {
	chain lightreq.ChainProvider
	caps  types.Capabilities

	// Optional interfaces (nil if not declared).
	state lightreq.StateProvider

	log *logrus.Entry
}

// New creates a server for the given provider, checking its declared
// capabilities against the interfaces it implements.
func New(p lightreq.ChainProvider) (*Server, error) {
	caps := p.Capabilities()
	if err := discoverCapabilities(p, caps); err != nil {
		return nil, err
	}
	s := &Server{
		chain: p,
		caps:  caps,
		log:   logrus.WithField("component", "server"),
	}
	if caps.Has(types.CapState) {
		s.state = p.(lightreq.StateProvider)
	}
	return s, nil
}

// Capabilities returns the provider's declared capabilities.
func (s *Server) Capabilities() types.Capabilities {
	return s.caps
}

// Answer serves a single complete request.
func (s *Server) Answer(ctx context.Context, req lightreq.CompleteRequest) (lightreq.Response, error) {
	resp, err := s.answer(ctx, req)
	kind := req.Kind().String()
	if err != nil {
		metrics.RequestFailed(kind)
		s.log.WithField("kind", kind).Errorf("Failed to answer request: %s", err)
		return nil, fmt.Errorf("server: %s request: %w", kind, err)
	}
	metrics.RequestServed(kind)
	return resp, nil
}

// AnswerAll serves reqs in order and stops at the first failure. The
// responses answered before it are returned along with the error.
func (s *Server) AnswerAll(ctx context.Context, reqs []lightreq.CompleteRequest) ([]lightreq.Response, error) {
	resps := make([]lightreq.Response, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return resps, err
		}
		resp, err := s.Answer(ctx, req)
		if err != nil {
			s.log.WithField("index", i).Debugf("Answered %d of %d requests", len(resps), len(reqs))
			return resps, err
		}
		resps = append(resps, resp)
	}
	return resps, nil
}

func (s *Server) answer(ctx context.Context, req lightreq.CompleteRequest) (lightreq.Response, error) {
	switch r := req.(type) {
	case lightreq.CompleteHeadersRequest:
		if !s.caps.Has(types.CapChain) {
			return nil, lightreq.ErrNotSupported
		}
		return s.chain.Headers(ctx, r)
	case lightreq.CompleteHeaderProofRequest:
		if !s.caps.Has(types.CapChain) {
			return nil, lightreq.ErrNotSupported
		}
		return s.chain.HeaderProof(ctx, r)
	case lightreq.CompleteTransactionIndexRequest:
		if !s.caps.Has(types.CapChain) {
			return nil, lightreq.ErrNotSupported
		}
		return s.chain.TransactionIndex(ctx, r)
	case lightreq.CompleteReceiptsRequest:
		if !s.caps.Has(types.CapChain) {
			return nil, lightreq.ErrNotSupported
		}
		return s.chain.Receipts(ctx, r)
	case lightreq.CompleteBodyRequest:
		if !s.caps.Has(types.CapChain) {
			return nil, lightreq.ErrNotSupported
		}
		return s.chain.Body(ctx, r)
	case lightreq.CompleteAccountRequest:
		if s.state == nil {
			return nil, lightreq.ErrNotSupported
		}
		return s.state.Account(ctx, r)
	case lightreq.CompleteStorageRequest:
		if s.state == nil {
			return nil, lightreq.ErrNotSupported
		}
		return s.state.Storage(ctx, r)
	case lightreq.CompleteCodeRequest:
		if s.state == nil {
			return nil, lightreq.ErrNotSupported
		}
		return s.state.Code(ctx, r)
	default:
		return nil, fmt.Errorf("unknown request type %T", req)
	}
}

// discoverCapabilities checks which optional interfaces the provider
// implements and verifies consistency with declared capabilities.
func discoverCapabilities(p lightreq.ChainProvider, declared types.Capabilities) error {
	_, hasState := p.(lightreq.StateProvider)

	if declared.Has(types.CapState) && !hasState {
		return fmt.Errorf("server: provider declared %s but does not implement StateProvider", types.CapState)
	}
	if !declared.Has(types.CapState) && hasState {
		logrus.Warnf("Provider implements StateProvider but did not declare %s; state requests will be refused", types.CapState)
	}
	return nil
}
