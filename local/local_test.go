package local_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/batch"
	"github.com/blockberries/lightreq/local"
	lightreqtest "github.com/blockberries/lightreq/testing"
	"github.com/blockberries/lightreq/types"
)

func TestLocalConnection_Handshake(t *testing.T) {
	conn, err := local.NewConnection(lightreqtest.NewMockProvider())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer conn.Close()

	caps, err := conn.Handshake(context.Background())
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if caps != types.CapChain|types.CapState {
		t.Fatalf("expected Chain|State, got %s", caps)
	}
	if conn.Capabilities() != caps {
		t.Fatalf("Capabilities() = %s, handshake returned %s", conn.Capabilities(), caps)
	}
}

func TestLocalConnection_RejectsInconsistentProvider(t *testing.T) {
	type chainOnly struct{ lightreq.ChainProvider }
	p := chainOnly{lightreqtest.NewMockProvider()}
	// The embedded mock declares CapState but the wrapper hides StateProvider.
	if _, err := local.NewConnection(p); err == nil {
		t.Fatal("expected capability mismatch error")
	}
}

func TestLocalConnection_StorageChain(t *testing.T) {
	conn, err := local.NewConnection(lightreqtest.NewMockProvider())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	address, key := types.Hash{0xAD}, types.Hash{0x4E}

	b := batch.NewBuilder()
	if err := b.Push(&lightreq.HeaderProofRequest{Num: lightreq.Scalar[uint64](42)}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := b.Push(&lightreq.StorageRequest{
		BlockHash:   lightreq.BackReference[types.Hash](0, 0),
		AddressHash: lightreq.Scalar(address),
		KeyHash:     lightreq.Scalar(key),
	}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	bt := b.Build()
	if err := batch.Dispatch(context.Background(), conn, bt); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	resps := bt.Responses()
	if got := resps[0].(lightreq.HeaderProofResponse).Hash; got != lightreqtest.BlockHash(42) {
		t.Fatalf("unexpected block hash %s", got)
	}
	if got := resps[1].(lightreq.StorageResponse).Value; got != lightreqtest.StorageValue(address, key) {
		t.Fatalf("unexpected storage value %s", got)
	}
}

func TestLocalConnection_ExchangePrefixOnFailure(t *testing.T) {
	conn, err := local.NewConnection(lightreqtest.NewMockProvider())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	resps, err := conn.Exchange(context.Background(), []lightreq.CompleteRequest{
		lightreq.CompleteHeaderProofRequest{Num: 1},
		lightreq.CompleteHeaderProofRequest{Num: lightreqtest.DefaultHead + 1},
		lightreq.CompleteHeaderProofRequest{Num: 2},
	})
	if !errors.Is(err, lightreq.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(resps) != 1 {
		t.Fatalf("expected 1 response before the failure, got %d", len(resps))
	}
}
