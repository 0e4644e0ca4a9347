package lightgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const serviceName = "lightreq.v1.LightService"

// LightServiceServer is the server-side interface for the gRPC service.
type LightServiceServer interface {
	Handshake(context.Context, *HandshakeRequest) (*HandshakeResponse, error)
	Exchange(context.Context, *ExchangeRequest) (*ExchangeResponse, error)
}

// RegisterLightServiceServer registers the LightServiceServer on a gRPC server.
func RegisterLightServiceServer(s *grpc.Server, srv LightServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// --- Handler functions ---

func handlerHandshake(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(HandshakeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LightServiceServer).Handshake(ctx, req)
}

func handlerExchange(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(ExchangeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LightServiceServer).Exchange(ctx, req)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LightServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handshake", Handler: handlerHandshake},
		{MethodName: "Exchange", Handler: handlerExchange},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lightreq/v1/service.cram",
}
