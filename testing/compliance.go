package lightreqtest

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

// Fixture names data the provider under test is known to hold.
type Fixture struct {
	// Number is a block the provider holds.
	Number uint64
	// Missing is a block number the provider does not hold.
	Missing uint64
	// TxHash is a transaction included in a held block.
	TxHash types.Hash
	// AddressHash and KeyHash locate a storage slot at block Number.
	// Only used when the provider declares types.CapState.
	AddressHash types.Hash
	KeyHash     types.Hash
}

// MockFixture returns a fixture matching a NewMockProvider chain.
func MockFixture() Fixture {
	return Fixture{
		Number:      DefaultHead / 2,
		Missing:     DefaultHead + 1,
		TxHash:      TxHash(DefaultHead/2-1, 3),
		AddressHash: types.Hash{0xAD, 0x01},
		KeyHash:     types.Hash{0x4E, 0x02},
	}
}

// RunComplianceSuite checks that a provider answers chained requests
// consistently: every response exposes the outputs its request
// declares, and chains of back-references resolve end to end.
//
// The factory function should return a fresh provider for each test.
func RunComplianceSuite(t *testing.T, factory func() lightreq.ChainProvider, fx Fixture) {
	t.Helper()

	t.Run("header_proof_outputs", func(t *testing.T) {
		h := NewHarness(t, factory())
		req := &lightreq.HeaderProofRequest{Num: lightreq.Scalar(fx.Number)}
		resps := h.Run(req)
		MustOutputs(t, req, resps[0])
		if resps[0].(lightreq.HeaderProofResponse).Hash.IsZero() {
			t.Error("header proof returned a zero block hash")
		}
	})

	t.Run("missing_block", func(t *testing.T) {
		h := NewHarness(t, factory())
		_, err := h.Server().Answer(context.Background(), lightreq.CompleteHeaderProofRequest{Num: fx.Missing})
		if err == nil {
			t.Errorf("expected an error for missing block %d", fx.Missing)
		}
	})

	t.Run("headers_by_reference", func(t *testing.T) {
		h := NewHarness(t, factory())
		resps := h.Run(
			&lightreq.HeaderProofRequest{Num: lightreq.Scalar(fx.Number)},
			&lightreq.HeadersRequest{Start: lightreq.BackReference[types.HashOrNumber](0, 0), Max: 1},
		)
		byHash := resps[1].(lightreq.HeadersResponse)

		direct := h.Answer(lightreq.CompleteHeadersRequest{Start: types.ByNumber(fx.Number), Max: 1})
		byNumber := direct.(lightreq.HeadersResponse)

		if len(byHash.Headers) != 1 || len(byNumber.Headers) != 1 {
			t.Fatalf("expected one header each way, got %d and %d", len(byHash.Headers), len(byNumber.Headers))
		}
		if !bytes.Equal(byHash.Headers[0], byNumber.Headers[0]) {
			t.Error("header by hash differs from header by number")
		}
	})

	t.Run("transaction_chain", func(t *testing.T) {
		h := NewHarness(t, factory())
		reqs := []lightreq.IncompleteRequest{
			&lightreq.TransactionIndexRequest{Hash: lightreq.Scalar(fx.TxHash)},
			&lightreq.HeaderProofRequest{Num: lightreq.BackReference[uint64](0, 0)},
			&lightreq.ReceiptsRequest{Hash: lightreq.BackReference[types.Hash](0, 1)},
			&lightreq.BodyRequest{Hash: lightreq.BackReference[types.Hash](1, 0)},
		}
		declared := make([]lightreq.IncompleteRequest, len(reqs))
		for i, req := range reqs {
			declared[i] = req.Clone()
		}
		resps := h.Run(reqs...)
		if len(resps) != len(reqs) {
			t.Fatalf("expected %d responses, got %d", len(reqs), len(resps))
		}
		for i := range resps {
			MustOutputs(t, declared[i], resps[i])
		}

		idx := resps[0].(lightreq.TransactionIndexResponse)
		proof := resps[1].(lightreq.HeaderProofResponse)
		if idx.Hash != proof.Hash {
			t.Errorf("transaction block hash %s differs from canonical hash %s", idx.Hash, proof.Hash)
		}
	})

	t.Run("state_chain", func(t *testing.T) {
		p := factory()
		if !p.Capabilities().Has(types.CapState) {
			t.Skip("provider does not declare state capability")
		}
		h := NewHarness(t, p)
		account := &lightreq.AccountRequest{
			BlockHash:   lightreq.BackReference[types.Hash](0, 0),
			AddressHash: lightreq.Scalar(fx.AddressHash),
		}
		declared := account.Clone()
		resps := h.Run(
			&lightreq.HeaderProofRequest{Num: lightreq.Scalar(fx.Number)},
			account,
			&lightreq.CodeRequest{
				BlockHash: lightreq.BackReference[types.Hash](0, 0),
				CodeHash:  lightreq.BackReference[types.Hash](1, 0),
			},
			&lightreq.StorageRequest{
				BlockHash:   lightreq.BackReference[types.Hash](0, 0),
				AddressHash: lightreq.Scalar(fx.AddressHash),
				KeyHash:     lightreq.Scalar(fx.KeyHash),
			},
		)
		if len(resps) != 4 {
			t.Fatalf("expected 4 responses, got %d", len(resps))
		}
		MustOutputs(t, declared, resps[1])
		if resps[3].Kind() != lightreq.KindStorage {
			t.Errorf("expected storage response, got %s", resps[3].Kind())
		}
	})

	t.Run("state_refused_without_capability", func(t *testing.T) {
		p := factory()
		if p.Capabilities().Has(types.CapState) {
			t.Skip("provider declares state capability")
		}
		h := NewHarness(t, p)
		_, err := h.Server().Answer(context.Background(), lightreq.CompleteCodeRequest{})
		if err == nil {
			t.Error("expected state request to be refused")
		}
	})

	t.Run("concurrent_answers", func(t *testing.T) {
		h := NewHarness(t, factory())
		want := h.Answer(lightreq.CompleteHeaderProofRequest{Num: fx.Number}).(lightreq.HeaderProofResponse)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := h.Server().Answer(context.Background(), lightreq.CompleteHeaderProofRequest{Num: fx.Number})
				if err != nil {
					t.Errorf("concurrent Answer failed: %v", err)
					return
				}
				if got := resp.(lightreq.HeaderProofResponse).Hash; got != want.Hash {
					t.Errorf("concurrent Answer returned %s, want %s", got, want.Hash)
				}
			}()
		}
		wg.Wait()
	})
}
