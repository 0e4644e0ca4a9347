package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/batch"
	"github.com/blockberries/lightreq/cache"
	lightgrpc "github.com/blockberries/lightreq/grpc"
	"github.com/blockberries/lightreq/internal/config"
	"github.com/blockberries/lightreq/types"
)

var (
	cacheOnce sync.Once
	responses *cache.ResponseCache
	cacheErr  error
)

// responseCache is shared by every fetch in the process.
func responseCache() (*cache.ResponseCache, error) {
	cacheOnce.Do(func() {
		responses, cacheErr = cache.New(config.GetInt(config.CacheSize))
	})
	return responses, cacheErr
}

// recordingCache remembers the responses it handed out, in order.
type recordingCache struct {
	cache *cache.ResponseCache
	hits  []lightreq.Response
}

func (r *recordingCache) Lookup(req lightreq.CompleteRequest) (lightreq.Response, bool) {
	resp, ok := r.cache.Lookup(req)
	if ok {
		r.hits = append(r.hits, resp)
	}
	return resp, ok
}

func fetchCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch chained data from a light request server",
	}
	c.AddCommand(fetchHeaderCommand())
	c.AddCommand(fetchTxCommand())
	c.AddCommand(fetchStorageCommand())
	c.AddCommand(fetchCodeCommand())
	return c
}

func fetchHeaderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "header <number>",
		Short: "Fetch the canonical header at a block number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad block number %q: %w", args[0], err)
			}
			resps, cached, err := fetch(cmd.Context(), types.CapChain,
				&lightreq.HeaderProofRequest{Num: lightreq.Scalar(num)},
				&lightreq.HeadersRequest{Start: lightreq.BackReference[types.HashOrNumber](0, 0), Max: 1},
			)
			if err != nil {
				return err
			}
			proof := resps[0].(lightreq.HeaderProofResponse)
			headers := resps[1].(lightreq.HeadersResponse)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hash: %s\n", proof.Hash)
			fmt.Fprintf(out, "td: %s\n", proof.TD)
			for _, h := range headers.Headers {
				fmt.Fprintf(out, "header: %s\n", hex.EncodeToString(h))
			}
			fmt.Fprintf(out, "cached: %d\n", cached)
			return nil
		},
	}
}

func fetchTxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tx <tx-hash>",
		Short: "Locate a transaction and fetch its block receipts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txHash, err := types.HexToHash(args[0])
			if err != nil {
				return err
			}
			resps, cached, err := fetch(cmd.Context(), types.CapChain,
				&lightreq.TransactionIndexRequest{Hash: lightreq.Scalar(txHash)},
				&lightreq.HeaderProofRequest{Num: lightreq.BackReference[uint64](0, 0)},
				&lightreq.ReceiptsRequest{Hash: lightreq.BackReference[types.Hash](0, 1)},
			)
			if err != nil {
				return err
			}
			idx := resps[0].(lightreq.TransactionIndexResponse)
			proof := resps[1].(lightreq.HeaderProofResponse)
			receipts := resps[2].(lightreq.ReceiptsResponse)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "block: %d\n", idx.Num)
			fmt.Fprintf(out, "hash: %s\n", idx.Hash)
			fmt.Fprintf(out, "index: %d\n", idx.Index)
			fmt.Fprintf(out, "canonical: %t\n", idx.Hash == proof.Hash)
			fmt.Fprintf(out, "receipts: %d\n", len(receipts.Receipts))
			fmt.Fprintf(out, "cached: %d\n", cached)
			return nil
		},
	}
}

func fetchStorageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "storage <number> <address-hash> <key-hash>",
		Short: "Fetch a storage slot at a block number",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad block number %q: %w", args[0], err)
			}
			address, err := types.HexToHash(args[1])
			if err != nil {
				return err
			}
			key, err := types.HexToHash(args[2])
			if err != nil {
				return err
			}
			resps, cached, err := fetch(cmd.Context(), types.CapChain|types.CapState,
				&lightreq.HeaderProofRequest{Num: lightreq.Scalar(num)},
				&lightreq.StorageRequest{
					BlockHash:   lightreq.BackReference[types.Hash](0, 0),
					AddressHash: lightreq.Scalar(address),
					KeyHash:     lightreq.Scalar(key),
				},
			)
			if err != nil {
				return err
			}
			slot := resps[1].(lightreq.StorageResponse)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "block: %s\n", resps[0].(lightreq.HeaderProofResponse).Hash)
			fmt.Fprintf(out, "value: %s\n", slot.Value)
			fmt.Fprintf(out, "cached: %d\n", cached)
			return nil
		},
	}
}

func fetchCodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "code <number> <address-hash>",
		Short: "Fetch the contract code of an account at a block number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad block number %q: %w", args[0], err)
			}
			address, err := types.HexToHash(args[1])
			if err != nil {
				return err
			}
			resps, cached, err := fetch(cmd.Context(), types.CapChain|types.CapState,
				&lightreq.HeaderProofRequest{Num: lightreq.Scalar(num)},
				&lightreq.AccountRequest{
					BlockHash:   lightreq.BackReference[types.Hash](0, 0),
					AddressHash: lightreq.Scalar(address),
				},
				&lightreq.CodeRequest{
					BlockHash: lightreq.BackReference[types.Hash](0, 0),
					CodeHash:  lightreq.BackReference[types.Hash](1, 0),
				},
			)
			if err != nil {
				return err
			}
			acct := resps[1].(lightreq.AccountResponse)
			code := resps[2].(lightreq.CodeResponse)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "codeHash: %s\n", acct.CodeHash)
			fmt.Fprintf(out, "code: %s\n", hex.EncodeToString(code.Code))
			fmt.Fprintf(out, "cached: %d\n", cached)
			return nil
		},
	}
}

// fetch resolves reqs as one chained batch. Requests the response cache
// can answer are pruned first; the rest are dispatched to the
// configured server. Responses are returned in request order along with
// the number answered from cache.
func fetch(ctx context.Context, need types.Capabilities, reqs ...lightreq.IncompleteRequest) ([]lightreq.Response, int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(config.ClientTimeout))
	defer cancel()

	rc, err := responseCache()
	if err != nil {
		return nil, 0, err
	}
	b := batch.NewBuilder()
	for _, req := range reqs {
		if err := b.Push(req); err != nil {
			return nil, 0, err
		}
	}
	hits := &recordingCache{cache: rc}
	pruned, err := b.PruneCached(hits)
	if err != nil {
		return nil, 0, err
	}
	results := make([]lightreq.Response, len(reqs))
	for i, pos := range pruned {
		results[pos] = hits.hits[i]
	}
	if b.Len() == 0 {
		return results, len(pruned), nil
	}

	addr := config.GetString(config.ClientAddress)
	client, err := lightgrpc.Dial(ctx, addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, 0, err
	}
	defer client.Close()
	caps, err := client.Handshake(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("handshake with %s: %w", addr, err)
	}
	if caps&need != need {
		return nil, 0, fmt.Errorf("server %s offers %s, need %s: %w", addr, caps, need, lightreq.ErrNotSupported)
	}

	bt := b.Build()
	if err := batch.Dispatch(ctx, client, bt); err != nil {
		return nil, 0, err
	}
	sent := bt.Requests()
	resps := bt.Responses()
	for i, req := range sent {
		if complete, err := req.Complete(); err == nil {
			rc.Store(complete, resps[i])
		}
	}
	j := 0
	for i := range results {
		if results[i] == nil {
			results[i] = resps[j]
			j++
		}
	}
	logrus.Debugf("Fetched %d requests, %d from cache", len(reqs), len(pruned))
	return results, len(pruned), nil
}
