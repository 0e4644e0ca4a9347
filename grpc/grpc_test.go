package lightgrpc_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/batch"
	lightgrpc "github.com/blockberries/lightreq/grpc"
	lightreqtest "github.com/blockberries/lightreq/testing"
	"github.com/blockberries/lightreq/types"
)

// startServer starts a gRPC server on a random port and returns
// the listener address and a cleanup function.
func startServer(t *testing.T, gs *lightgrpc.GRPCServer) (string, func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := grpc.NewServer()
	gs.Register(s)

	go func() {
		_ = s.Serve(lis)
	}()

	return lis.Addr().String(), func() {
		s.GracefulStop()
	}
}

func dial(t *testing.T, addr string) *lightgrpc.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := lightgrpc.Dial(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return client
}

func newServer(t *testing.T, p lightreq.ChainProvider, maxRequests int) *lightgrpc.GRPCServer {
	t.Helper()
	gs, err := lightgrpc.NewGRPCServer(p, maxRequests)
	if err != nil {
		t.Fatalf("NewGRPCServer: %v", err)
	}
	return gs
}

func TestGRPC_Handshake(t *testing.T) {
	p := lightreqtest.NewMockProvider()
	p.DeclaredCapabilities = types.CapChain
	addr, cleanup := startServer(t, newServer(t, p, 0))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	if client.Capabilities() != 0 {
		t.Fatalf("capabilities should be unknown before handshake, got %s", client.Capabilities())
	}
	caps, err := client.Handshake(context.Background())
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if caps != types.CapChain || client.Capabilities() != types.CapChain {
		t.Fatalf("expected Chain, got %s", caps)
	}
}

func TestGRPC_CodeChain(t *testing.T) {
	p := lightreqtest.NewMockProvider()
	addr, cleanup := startServer(t, newServer(t, p, 0))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	address := types.Hash{0xAD, 0x01}
	b := batch.NewBuilder()
	for _, req := range []lightreq.IncompleteRequest{
		&lightreq.HeaderProofRequest{Num: lightreq.Scalar[uint64](64)},
		&lightreq.AccountRequest{
			BlockHash:   lightreq.BackReference[types.Hash](0, 0),
			AddressHash: lightreq.Scalar(address),
		},
		&lightreq.CodeRequest{
			BlockHash: lightreq.BackReference[types.Hash](0, 0),
			CodeHash:  lightreq.BackReference[types.Hash](1, 0),
		},
	} {
		if err := b.Push(req); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	bt := b.Build()
	if err := batch.Dispatch(context.Background(), client, bt); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	resps := bt.Responses()
	code := resps[2].(lightreq.CodeResponse).Code
	want := lightreqtest.Code(lightreqtest.CodeHash(address))
	if string(code) != string(want) {
		t.Fatalf("code = %x, want %x", code, want)
	}
	if p.Calls() != 3 {
		t.Fatalf("expected 3 provider calls, got %d", p.Calls())
	}
}

func TestGRPC_AllKindsRoundTrip(t *testing.T) {
	addr, cleanup := startServer(t, newServer(t, lightreqtest.NewMockProvider(), 0))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	block := lightreqtest.BlockHash(3)
	reqs := []lightreq.CompleteRequest{
		lightreq.CompleteHeadersRequest{Start: types.ByNumber(3), Max: 2},
		lightreq.CompleteHeaderProofRequest{Num: 3},
		lightreq.CompleteTransactionIndexRequest{Hash: lightreqtest.TxHash(3, 0)},
		lightreq.CompleteReceiptsRequest{Hash: block},
		lightreq.CompleteBodyRequest{Hash: block},
		lightreq.CompleteAccountRequest{BlockHash: block, AddressHash: types.Hash{0x01}},
		lightreq.CompleteStorageRequest{BlockHash: block, AddressHash: types.Hash{0x01}, KeyHash: types.Hash{0x02}},
		lightreq.CompleteCodeRequest{BlockHash: block, CodeHash: types.Hash{0x03}},
	}
	resps, err := client.Exchange(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if len(resps) != len(reqs) {
		t.Fatalf("expected %d responses, got %d", len(reqs), len(resps))
	}
	for i, resp := range resps {
		if resp.Kind() != reqs[i].Kind() {
			t.Errorf("response %d: got %s, want %s", i, resp.Kind(), reqs[i].Kind())
		}
	}
	if got := resps[1].(lightreq.HeaderProofResponse).Hash; got != block {
		t.Errorf("header proof hash = %s, want %s", got, block)
	}
}

func TestGRPC_PrefixAndRemoteError(t *testing.T) {
	addr, cleanup := startServer(t, newServer(t, lightreqtest.NewMockProvider(), 0))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	resps, err := client.Exchange(context.Background(), []lightreq.CompleteRequest{
		lightreq.CompleteHeaderProofRequest{Num: 1},
		lightreq.CompleteHeaderProofRequest{Num: lightreqtest.DefaultHead + 10},
	})
	if !errors.Is(err, lightreq.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(resps) != 1 {
		t.Fatalf("expected 1 response, got %d", len(resps))
	}
}

func TestGRPC_StateNotSupported(t *testing.T) {
	p := lightreqtest.NewMockProvider()
	p.DeclaredCapabilities = types.CapChain
	addr, cleanup := startServer(t, newServer(t, p, 0))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	_, err := client.Exchange(context.Background(), []lightreq.CompleteRequest{lightreq.CompleteCodeRequest{}})
	if !errors.Is(err, lightreq.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestGRPC_ExchangeLimit(t *testing.T) {
	addr, cleanup := startServer(t, newServer(t, lightreqtest.NewMockProvider(), 1))
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	_, err := client.Exchange(context.Background(), []lightreq.CompleteRequest{
		lightreq.CompleteHeaderProofRequest{Num: 1},
		lightreq.CompleteHeaderProofRequest{Num: 2},
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestGRPC_InconsistentProvider(t *testing.T) {
	type chainOnly struct{ lightreq.ChainProvider }
	if _, err := lightgrpc.NewGRPCServer(chainOnly{lightreqtest.NewMockProvider()}, 0); err == nil {
		t.Fatal("expected capability mismatch error")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := lightgrpc.CramberryCodec{}
	if codec.Name() != "cramberry" {
		t.Fatalf("unexpected codec name %q", codec.Name())
	}
	in := &lightgrpc.ExchangeRequest{Requests: []lightreq.RequestEnvelope{
		lightreq.WrapRequest(lightreq.CompleteBodyRequest{Hash: types.Hash{0x01}}),
	}}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := new(lightgrpc.ExchangeRequest)
	if err := codec.Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	req, err := out.Requests[0].Unwrap()
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if req != (lightreq.CompleteBodyRequest{Hash: types.Hash{0x01}}) {
		t.Fatalf("unexpected request %+v", req)
	}
}
