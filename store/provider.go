package store

import (
	"context"
	"fmt"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

func (s *Store) header(hash types.Hash) (headerRecord, error) {
	var rec headerRecord
	err := s.read(prefixedKey(headersPrefix, hash), &rec)
	return rec, err
}

// number returns the number of a canonical block given its hash.
func (s *Store) number(hash types.Hash) (uint64, error) {
	rec, err := s.header(hash)
	if err != nil {
		return 0, err
	}
	canon, err := s.CanonicalHash(rec.Number)
	if err != nil || canon != hash {
		return 0, fmt.Errorf("block %s is not canonical: %w", hash, lightreq.ErrNotFound)
	}
	return rec.Number, nil
}

func (s *Store) Headers(ctx context.Context, req lightreq.CompleteHeadersRequest) (lightreq.HeadersResponse, error) {
	num := req.Start.Number
	if req.Start.ByHash {
		n, err := s.number(req.Start.Hash)
		if err != nil {
			return lightreq.HeadersResponse{}, err
		}
		num = n
	}
	var headers [][]byte
	step := req.Skip + 1
	for i := uint64(0); i < req.Max; i++ {
		if err := ctx.Err(); err != nil {
			return lightreq.HeadersResponse{}, err
		}
		hash, err := s.CanonicalHash(num)
		if err != nil {
			break
		}
		rec, err := s.header(hash)
		if err != nil {
			return lightreq.HeadersResponse{}, err
		}
		headers = append(headers, rec.Header)
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

func (s *Store) HeaderProof(_ context.Context, req lightreq.CompleteHeaderProofRequest) (lightreq.HeaderProofResponse, error) {
	hash, err := s.CanonicalHash(req.Num)
	if err != nil {
		return lightreq.HeaderProofResponse{}, err
	}
	rec, err := s.header(hash)
	if err != nil {
		return lightreq.HeaderProofResponse{}, err
	}
	return lightreq.HeaderProofResponse{Proof: rec.Proof, Hash: hash, TD: rec.TD}, nil
}

func (s *Store) TransactionIndex(_ context.Context, req lightreq.CompleteTransactionIndexRequest) (lightreq.TransactionIndexResponse, error) {
	var rec txRecord
	if err := s.read(prefixedKey(txPrefix, req.Hash), &rec); err != nil {
		return lightreq.TransactionIndexResponse{}, err
	}
	return lightreq.TransactionIndexResponse{Num: rec.Number, Hash: rec.BlockHash, Index: rec.Index}, nil
}

func (s *Store) Receipts(_ context.Context, req lightreq.CompleteReceiptsRequest) (lightreq.ReceiptsResponse, error) {
	var rec receiptsRecord
	if err := s.read(prefixedKey(receiptsPrefix, req.Hash), &rec); err != nil {
		return lightreq.ReceiptsResponse{}, err
	}
	return lightreq.ReceiptsResponse{Receipts: rec.Receipts}, nil
}

func (s *Store) Body(_ context.Context, req lightreq.CompleteBodyRequest) (lightreq.BodyResponse, error) {
	b, err := s.get(prefixedKey(bodiesPrefix, req.Hash))
	if err != nil {
		return lightreq.BodyResponse{}, err
	}
	return lightreq.BodyResponse{Body: b}, nil
}

func (s *Store) Account(_ context.Context, req lightreq.CompleteAccountRequest) (lightreq.AccountResponse, error) {
	var acct lightreq.AccountResponse
	err := s.read(prefixedKey(accountsPrefix, req.BlockHash, req.AddressHash), &acct)
	return acct, err
}

func (s *Store) Storage(_ context.Context, req lightreq.CompleteStorageRequest) (lightreq.StorageResponse, error) {
	var slot lightreq.StorageResponse
	err := s.read(prefixedKey(storagePrefix, req.BlockHash, req.AddressHash, req.KeyHash), &slot)
	return slot, err
}

func (s *Store) Code(_ context.Context, req lightreq.CompleteCodeRequest) (lightreq.CodeResponse, error) {
	code, err := s.get(prefixedKey(codePrefix, req.CodeHash))
	if err != nil {
		return lightreq.CodeResponse{}, err
	}
	return lightreq.CodeResponse{Code: code}, nil
}
