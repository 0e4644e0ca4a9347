// Package memchain implements a minimal in-memory light protocol
// provider. It serves chain data only and declares no state
// capability.
//
// Block hashes are sha256(parent hash || header); transaction hashes
// are sha256(tx).
package memchain

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

// Compile-time interface check.
var _ lightreq.ChainProvider = (*Chain)(nil)

type block struct {
	hash     types.Hash
	header   []byte
	body     []byte
	receipts [][]byte
	td       types.U256
}

type txLocation struct {
	num   uint64
	index uint64
}

// Chain is an append-only chain held in memory.
type Chain struct {
	mu     sync.RWMutex
	blocks []block
	byHash map[types.Hash]uint64
	txs    map[types.Hash]txLocation
}

// New creates a chain holding only a genesis block with the given header.
func New(genesis []byte) *Chain {
	c := &Chain{
		byHash: make(map[types.Hash]uint64),
		txs:    make(map[types.Hash]txLocation),
	}
	c.append(genesis, nil)
	return c
}

// Append adds a block carrying txs and returns its hash. Each
// transaction gets a one-byte receipt holding its index.
func (c *Chain) Append(header []byte, txs ...[]byte) types.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.append(header, txs)
}

func (c *Chain) append(header []byte, txs [][]byte) types.Hash {
	var parent types.Hash
	num := uint64(len(c.blocks))
	if num > 0 {
		parent = c.blocks[num-1].hash
	}
	hash := types.Hash(sha256.Sum256(append(parent[:], header...)))

	var body []byte
	receipts := make([][]byte, 0, len(txs))
	for i, tx := range txs {
		body = append(body, tx...)
		receipts = append(receipts, []byte{byte(i)})
		c.txs[TxHash(tx)] = txLocation{num: num, index: uint64(i)}
	}
	c.blocks = append(c.blocks, block{
		hash:     hash,
		header:   header,
		body:     body,
		receipts: receipts,
		td:       types.U256FromUint64(num + 1),
	})
	c.byHash[hash] = num
	return hash
}

// TxHash returns the hash a transaction is indexed under.
func TxHash(tx []byte) types.Hash {
	return types.Hash(sha256.Sum256(tx))
}

// Head returns the number of the latest block.
func (c *Chain) Head() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(len(c.blocks) - 1)
}

func (c *Chain) Capabilities() types.Capabilities {
	return types.CapChain
}

func (c *Chain) Headers(_ context.Context, req lightreq.CompleteHeadersRequest) (lightreq.HeadersResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	num := req.Start.Number
	if req.Start.ByHash {
		n, ok := c.byHash[req.Start.Hash]
		if !ok {
			return lightreq.HeadersResponse{}, fmt.Errorf("block %s: %w", req.Start.Hash, lightreq.ErrNotFound)
		}
		num = n
	}
	var headers [][]byte
	step := req.Skip + 1
	for i := uint64(0); i < req.Max && num < uint64(len(c.blocks)); i++ {
		headers = append(headers, c.blocks[num].header)
		if req.Reverse {
			if num < step {
				break
			}
			num -= step
		} else {
			num += step
		}
	}
	return lightreq.HeadersResponse{Headers: headers}, nil
}

func (c *Chain) HeaderProof(_ context.Context, req lightreq.CompleteHeaderProofRequest) (lightreq.HeaderProofResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if req.Num >= uint64(len(c.blocks)) {
		return lightreq.HeaderProofResponse{}, fmt.Errorf("block %d: %w", req.Num, lightreq.ErrNotFound)
	}
	b := c.blocks[req.Num]
	return lightreq.HeaderProofResponse{Proof: [][]byte{b.header}, Hash: b.hash, TD: b.td}, nil
}

func (c *Chain) TransactionIndex(_ context.Context, req lightreq.CompleteTransactionIndexRequest) (lightreq.TransactionIndexResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.txs[req.Hash]
	if !ok {
		return lightreq.TransactionIndexResponse{}, fmt.Errorf("transaction %s: %w", req.Hash, lightreq.ErrNotFound)
	}
	return lightreq.TransactionIndexResponse{Num: loc.num, Hash: c.blocks[loc.num].hash, Index: loc.index}, nil
}

func (c *Chain) Receipts(_ context.Context, req lightreq.CompleteReceiptsRequest) (lightreq.ReceiptsResponse, error) {
	b, err := c.lookup(req.Hash)
	if err != nil {
		return lightreq.ReceiptsResponse{}, err
	}
	return lightreq.ReceiptsResponse{Receipts: b.receipts}, nil
}

func (c *Chain) Body(_ context.Context, req lightreq.CompleteBodyRequest) (lightreq.BodyResponse, error) {
	b, err := c.lookup(req.Hash)
	if err != nil {
		return lightreq.BodyResponse{}, err
	}
	return lightreq.BodyResponse{Body: b.body}, nil
}

func (c *Chain) lookup(hash types.Hash) (block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	num, ok := c.byHash[hash]
	if !ok {
		return block{}, fmt.Errorf("block %s: %w", hash, lightreq.ErrNotFound)
	}
	return c.blocks[num], nil
}
