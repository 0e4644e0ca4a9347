// Package cache keeps recently received responses so that requests
// they answer can be pruned from new batches before sending.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blockberries/lightreq"
)

// ResponseCache is a bounded LRU of responses keyed by the encoded
// complete request. Safe for concurrent use.
type ResponseCache struct {
	entries *lru.Cache[string, lightreq.Response]
}

// New creates a cache holding at most size responses.
func New(size int) (*ResponseCache, error) {
	entries, err := lru.New[string, lightreq.Response](size)
	if err != nil {
		return nil, fmt.Errorf("response cache: %w", err)
	}
	return &ResponseCache{entries: entries}, nil
}

// Cacheable reports whether the answer to req stays valid. Anything
// addressed by block number may change under a reorg and is never
// cached.
func Cacheable(req lightreq.CompleteRequest) bool {
	switch r := req.(type) {
	case lightreq.CompleteHeaderProofRequest:
		return false
	case lightreq.CompleteHeadersRequest:
		return r.Start.ByHash
	default:
		return true
	}
}

// Store records resp as the answer to req. Uncacheable requests and
// mismatched kinds are ignored.
func (c *ResponseCache) Store(req lightreq.CompleteRequest, resp lightreq.Response) {
	if req.Kind() != resp.Kind() || !Cacheable(req) {
		return
	}
	key, err := lightreq.EncodeRequest(req)
	if err != nil {
		return
	}
	c.entries.Add(string(key), resp)
}

// StoreBatch records every request/response pair of an answered run.
func (c *ResponseCache) StoreBatch(reqs []lightreq.CompleteRequest, resps []lightreq.Response) {
	for i := range resps {
		if i >= len(reqs) {
			return
		}
		c.Store(reqs[i], resps[i])
	}
}

// Lookup returns the cached response for req.
func (c *ResponseCache) Lookup(req lightreq.CompleteRequest) (lightreq.Response, bool) {
	if !Cacheable(req) {
		return nil, false
	}
	key, err := lightreq.EncodeRequest(req)
	if err != nil {
		return nil, false
	}
	return c.entries.Get(string(key))
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int { return c.entries.Len() }

// Purge empties the cache.
func (c *ResponseCache) Purge() { c.entries.Purge() }
