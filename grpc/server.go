package lightgrpc

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/server"
)

// Compile-time interface check.
var _ LightServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a provider as a gRPC service.
type GRPCServer struct {
	srv         *server.Server
	maxRequests int
	log         *logrus.Entry
}

// NewGRPCServer creates a gRPC server for the given provider. Exchanges
// with more than maxRequests requests are rejected; zero means no
// limit.
func NewGRPCServer(p lightreq.ChainProvider, maxRequests int) (*GRPCServer, error) {
	srv, err := server.New(p)
	if err != nil {
		return nil, err
	}
	return &GRPCServer{
		srv:         srv,
		maxRequests: maxRequests,
		log:         logrus.WithField("component", "grpc"),
	}, nil
}

// Register adds the service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterLightServiceServer(gs, s)
}

// Serve starts a gRPC server on the given listener.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs.Serve(lis)
}

// Server returns the underlying server for advanced use.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) Handshake(_ context.Context, _ *HandshakeRequest) (*HandshakeResponse, error) {
	return &HandshakeResponse{Capabilities: s.srv.Capabilities()}, nil
}

func (s *GRPCServer) Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResponse, error) {
	if s.maxRequests > 0 && len(req.Requests) > s.maxRequests {
		return nil, status.Errorf(codes.InvalidArgument, "exchange of %d requests exceeds limit %d", len(req.Requests), s.maxRequests)
	}
	reqs := make([]lightreq.CompleteRequest, len(req.Requests))
	for i, env := range req.Requests {
		r, err := env.Unwrap()
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "request %d: %v", i, err)
		}
		reqs[i] = r
	}

	resps, err := s.srv.AnswerAll(ctx, reqs)
	out := &ExchangeResponse{Responses: make([]lightreq.ResponseEnvelope, len(resps))}
	for i, resp := range resps {
		out.Responses[i] = lightreq.WrapResponse(resp)
	}
	if err != nil {
		out.Failure = failureOf(err)
		out.Message = err.Error()
		s.log.Debugf("Exchange stopped after %d of %d requests", len(resps), len(reqs))
	}
	return out, nil
}
