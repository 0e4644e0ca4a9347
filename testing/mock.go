// Package lightreqtest provides test utilities for light protocol
// providers and clients, including a configurable mock provider, a
// test harness, and a provider compliance suite.
package lightreqtest

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

// Compile-time check that MockProvider satisfies both interfaces.
var (
	_ lightreq.ChainProvider = (*MockProvider)(nil)
	_ lightreq.StateProvider = (*MockProvider)(nil)
)

// DefaultHead is the head block number of a NewMockProvider chain.
const DefaultHead = 128

// MockProvider is a configurable mock provider for client testing.
// All methods are configurable via function fields. Unconfigured
// methods answer from a synthetic chain of Head blocks derived from
// BlockHash, TxHash, CodeHash and StorageValue.
//
// MockProvider implements StateProvider so it can be used to test
// capability discovery. Control which capabilities are declared via
// the DeclaredCapabilities field.
type MockProvider struct {
	// DeclaredCapabilities controls what Capabilities returns.
	DeclaredCapabilities types.Capabilities

	// Head is the highest block number of the synthetic chain.
	Head uint64

	// Configurable handlers. If nil, defaults are used.
	HeadersFn          func(context.Context, lightreq.CompleteHeadersRequest) (lightreq.HeadersResponse, error)
	HeaderProofFn      func(context.Context, lightreq.CompleteHeaderProofRequest) (lightreq.HeaderProofResponse, error)
	TransactionIndexFn func(context.Context, lightreq.CompleteTransactionIndexRequest) (lightreq.TransactionIndexResponse, error)
	ReceiptsFn         func(context.Context, lightreq.CompleteReceiptsRequest) (lightreq.ReceiptsResponse, error)
	BodyFn             func(context.Context, lightreq.CompleteBodyRequest) (lightreq.BodyResponse, error)
	AccountFn          func(context.Context, lightreq.CompleteAccountRequest) (lightreq.AccountResponse, error)
	StorageFn          func(context.Context, lightreq.CompleteStorageRequest) (lightreq.StorageResponse, error)
	CodeFn             func(context.Context, lightreq.CompleteCodeRequest) (lightreq.CodeResponse, error)

	// Call counters (atomic for concurrent access).
	HeadersCalls          atomic.Int64
	HeaderProofCalls      atomic.Int64
	TransactionIndexCalls atomic.Int64
	ReceiptsCalls         atomic.Int64
	BodyCalls             atomic.Int64
	AccountCalls          atomic.Int64
	StorageCalls          atomic.Int64
	CodeCalls             atomic.Int64
}

// NewMockProvider returns a mock declaring every capability over a
// chain of DefaultHead blocks.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		DeclaredCapabilities: types.CapChain | types.CapState,
		Head:                 DefaultHead,
	}
}

// Calls returns the total number of provider calls.
func (m *MockProvider) Calls() int64 {
	return m.HeadersCalls.Load() + m.HeaderProofCalls.Load() +
		m.TransactionIndexCalls.Load() + m.ReceiptsCalls.Load() +
		m.BodyCalls.Load() + m.AccountCalls.Load() +
		m.StorageCalls.Load() + m.CodeCalls.Load()
}

func (m *MockProvider) Capabilities() types.Capabilities {
	return m.DeclaredCapabilities
}

func (m *MockProvider) Headers(ctx context.Context, req lightreq.CompleteHeadersRequest) (lightreq.HeadersResponse, error) {
	m.HeadersCalls.Add(1)
	if m.HeadersFn != nil {
		return m.HeadersFn(ctx, req)
	}
	num, ok := m.resolve(req.Start)
	if !ok {
		return lightreq.HeadersResponse{}, nil
	}
	var headers [][]byte
	for i := uint64(0); i < req.Max; i++ {
		headers = append(headers, Header(num))
		step := req.Skip + 1
		if req.Reverse {
			if num < step {
				break
			}
			num -= step
		} else {
			num += step
			if num > m.Head {
				break
			}
		}
	}
	return lightreq.HeadersResponse{Headers: headers}, nil
}

func (m *MockProvider) HeaderProof(ctx context.Context, req lightreq.CompleteHeaderProofRequest) (lightreq.HeaderProofResponse, error) {
	m.HeaderProofCalls.Add(1)
	if m.HeaderProofFn != nil {
		return m.HeaderProofFn(ctx, req)
	}
	if req.Num > m.Head {
		return lightreq.HeaderProofResponse{}, fmt.Errorf("block %d: %w", req.Num, lightreq.ErrNotFound)
	}
	return lightreq.HeaderProofResponse{
		Proof: [][]byte{Header(req.Num)},
		Hash:  BlockHash(req.Num),
		TD:    types.U256FromUint64(req.Num * 1000),
	}, nil
}

func (m *MockProvider) TransactionIndex(ctx context.Context, req lightreq.CompleteTransactionIndexRequest) (lightreq.TransactionIndexResponse, error) {
	m.TransactionIndexCalls.Add(1)
	if m.TransactionIndexFn != nil {
		return m.TransactionIndexFn(ctx, req)
	}
	num, index, ok := m.locateTx(req.Hash)
	if !ok {
		return lightreq.TransactionIndexResponse{}, fmt.Errorf("transaction %s: %w", req.Hash, lightreq.ErrNotFound)
	}
	return lightreq.TransactionIndexResponse{Num: num, Hash: BlockHash(num), Index: index}, nil
}

func (m *MockProvider) Receipts(ctx context.Context, req lightreq.CompleteReceiptsRequest) (lightreq.ReceiptsResponse, error) {
	m.ReceiptsCalls.Add(1)
	if m.ReceiptsFn != nil {
		return m.ReceiptsFn(ctx, req)
	}
	if _, ok := m.blockNumber(req.Hash); !ok {
		return lightreq.ReceiptsResponse{}, fmt.Errorf("block %s: %w", req.Hash, lightreq.ErrNotFound)
	}
	return lightreq.ReceiptsResponse{Receipts: [][]byte{append([]byte("receipt:"), req.Hash[:4]...)}}, nil
}

func (m *MockProvider) Body(ctx context.Context, req lightreq.CompleteBodyRequest) (lightreq.BodyResponse, error) {
	m.BodyCalls.Add(1)
	if m.BodyFn != nil {
		return m.BodyFn(ctx, req)
	}
	if _, ok := m.blockNumber(req.Hash); !ok {
		return lightreq.BodyResponse{}, fmt.Errorf("block %s: %w", req.Hash, lightreq.ErrNotFound)
	}
	return lightreq.BodyResponse{Body: append([]byte("body:"), req.Hash[:4]...)}, nil
}

func (m *MockProvider) Account(ctx context.Context, req lightreq.CompleteAccountRequest) (lightreq.AccountResponse, error) {
	m.AccountCalls.Add(1)
	if m.AccountFn != nil {
		return m.AccountFn(ctx, req)
	}
	if _, ok := m.blockNumber(req.BlockHash); !ok {
		return lightreq.AccountResponse{}, fmt.Errorf("block %s: %w", req.BlockHash, lightreq.ErrNotFound)
	}
	return lightreq.AccountResponse{
		Proof:       [][]byte{req.AddressHash[:]},
		Nonce:       types.U256FromUint64(1),
		Balance:     types.U256FromUint64(1_000_000),
		CodeHash:    CodeHash(req.AddressHash),
		StorageRoot: xor(req.AddressHash, req.BlockHash),
	}, nil
}

func (m *MockProvider) Storage(ctx context.Context, req lightreq.CompleteStorageRequest) (lightreq.StorageResponse, error) {
	m.StorageCalls.Add(1)
	if m.StorageFn != nil {
		return m.StorageFn(ctx, req)
	}
	if _, ok := m.blockNumber(req.BlockHash); !ok {
		return lightreq.StorageResponse{}, fmt.Errorf("block %s: %w", req.BlockHash, lightreq.ErrNotFound)
	}
	return lightreq.StorageResponse{
		Proof: [][]byte{req.KeyHash[:]},
		Value: StorageValue(req.AddressHash, req.KeyHash),
	}, nil
}

func (m *MockProvider) Code(ctx context.Context, req lightreq.CompleteCodeRequest) (lightreq.CodeResponse, error) {
	m.CodeCalls.Add(1)
	if m.CodeFn != nil {
		return m.CodeFn(ctx, req)
	}
	if _, ok := m.blockNumber(req.BlockHash); !ok {
		return lightreq.CodeResponse{}, fmt.Errorf("block %s: %w", req.BlockHash, lightreq.ErrNotFound)
	}
	return lightreq.CodeResponse{Code: Code(req.CodeHash)}, nil
}

func (m *MockProvider) resolve(start types.HashOrNumber) (uint64, bool) {
	if start.ByHash {
		return m.blockNumber(start.Hash)
	}
	return start.Number, start.Number <= m.Head
}

func (m *MockProvider) blockNumber(h types.Hash) (uint64, bool) {
	if h[0] != 0xB0 {
		return 0, false
	}
	num := binary.BigEndian.Uint64(h[24:])
	return num, num <= m.Head && BlockHash(num) == h
}

func (m *MockProvider) locateTx(h types.Hash) (uint64, uint64, bool) {
	if h[0] != 0x7E {
		return 0, 0, false
	}
	num := binary.BigEndian.Uint64(h[16:24])
	index := binary.BigEndian.Uint64(h[24:])
	return num, index, num <= m.Head && TxHash(num, index) == h
}

// --- Synthetic chain ---

// BlockHash returns the hash of block num on the synthetic chain.
func BlockHash(num uint64) types.Hash {
	var h types.Hash
	h[0] = 0xB0
	binary.BigEndian.PutUint64(h[24:], num)
	return h
}

// Header returns the encoded header of block num.
func Header(num uint64) []byte {
	h := BlockHash(num)
	return append([]byte("header:"), h[:]...)
}

// TxHash returns the hash of transaction index in block num.
func TxHash(num, index uint64) types.Hash {
	var h types.Hash
	h[0] = 0x7E
	binary.BigEndian.PutUint64(h[16:24], num)
	binary.BigEndian.PutUint64(h[24:], index)
	return h
}

// CodeHash returns the code hash of the account at address.
func CodeHash(address types.Hash) types.Hash {
	h := address
	h[0] ^= 0xC0
	return h
}

// Code returns the contract code whose hash is codeHash.
func Code(codeHash types.Hash) []byte {
	return append([]byte{0x60, 0x80}, codeHash[:8]...)
}

// StorageValue returns the value stored under key for address.
func StorageValue(address, key types.Hash) types.Hash {
	return xor(address, key)
}

func xor(a, b types.Hash) types.Hash {
	var out types.Hash
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}
