// Package batch assembles chained requests into batches and tracks
// their resolution as responses arrive.
//
// A Builder validates every request against the outputs declared by
// the requests before it. Entries may be removed, or answered out of
// band from a local cache, before the batch is built; surviving
// back-references are renumbered. A Batch then registers responses
// strictly in request order and fills downstream requests from the
// growing output table.
//
// Neither type is safe for concurrent use. The owner of a batch is
// expected to be the only one touching it while it is in flight.
package batch

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockberries/lightreq"
)

// Cache looks up a previously received response for a complete request.
type Cache interface {
	Lookup(req lightreq.CompleteRequest) (lightreq.Response, bool)
}

// Builder accumulates incomplete requests, validating each against
// the outputs noted by the requests before it.
type Builder struct {
	id       string
	requests []lightreq.IncompleteRequest
	kinds    map[lightreq.BackRef]lightreq.OutputKind
	log      *logrus.Entry
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	id := newID()
	return &Builder{
		id:    id,
		kinds: make(map[lightreq.BackRef]lightreq.OutputKind),
		log:   logrus.WithField("batch", id),
	}
}

// ID returns the identifier shared by the builder and the batch it builds.
func (b *Builder) ID() string { return b.id }

// Len returns the number of requests.
func (b *Builder) Len() int { return len(b.requests) }

// Requests returns copies of the requests in batch order.
func (b *Builder) Requests() []lightreq.IncompleteRequest {
	return cloneAll(b.requests)
}

// Push appends req after validating its back-references. The builder
// takes ownership of req. On error the builder is unchanged.
func (b *Builder) Push(req lightreq.IncompleteRequest) error {
	pos := len(b.requests)
	if err := req.CheckOutputs(b.checker(pos)); err != nil {
		b.log.WithError(err).Debugf("Rejected %s request at position %d", req.Kind(), pos)
		return fmt.Errorf("batch: push %s request: %w", req.Kind(), err)
	}
	req.NoteOutputs(func(idx int, kind lightreq.OutputKind) {
		b.kinds[lightreq.BackRef{Request: pos, Output: idx}] = kind
	})
	b.requests = append(b.requests, req)
	b.log.Debugf("Pushed %s request at position %d", req.Kind(), pos)
	return nil
}

// checker confirms references from the request at pos: the target
// must be strictly earlier and must have noted an output of the
// expected kind at that index.
func (b *Builder) checker(pos int) lightreq.OutputChecker {
	return func(req, idx int, kind lightreq.OutputKind) error {
		if req < 0 || req >= pos {
			return lightreq.NewNoSuchOutput(req, idx)
		}
		if k, ok := b.kinds[lightreq.BackRef{Request: req, Output: idx}]; !ok || k != kind {
			return lightreq.NewNoSuchOutput(req, idx)
		}
		return nil
	}
}

// Remove drops the request at position i. It fails if any later
// request still references it.
func (b *Builder) Remove(i int) error {
	if i < 0 || i >= len(b.requests) {
		return fmt.Errorf("batch: remove %d: index out of range (len %d)", i, len(b.requests))
	}
	refersTo := func(req, idx int, _ lightreq.OutputKind) error {
		if req == i {
			return lightreq.NewNoSuchOutput(req, idx)
		}
		return nil
	}
	for j := i + 1; j < len(b.requests); j++ {
		if err := b.requests[j].CheckOutputs(refersTo); err != nil {
			return fmt.Errorf("batch: remove %d: request %d depends on it: %w", i, j, err)
		}
	}
	b.drop(i)
	return nil
}

// Satisfy answers the request at position i with resp, which the
// caller obtained without sending it (typically from a cache). The
// outputs of resp are filled into later requests before i is dropped
// and later references renumbered.
//
// Every later reference to i must be served by an output of resp with
// the declared kind; this is checked before anything is modified.
func (b *Builder) Satisfy(i int, resp lightreq.Response) error {
	if i < 0 || i >= len(b.requests) {
		return fmt.Errorf("batch: satisfy %d: index out of range (len %d)", i, len(b.requests))
	}
	if req := b.requests[i]; req.Kind() != resp.Kind() {
		return fmt.Errorf("batch: satisfy %d: %s response for %s request: %w",
			i, resp.Kind(), req.Kind(), lightreq.ErrKindMismatch)
	}

	outputs := make(map[int]lightreq.Output)
	resp.FillOutputs(func(idx int, out lightreq.Output) {
		outputs[idx] = out
	})

	serves := func(req, idx int, kind lightreq.OutputKind) error {
		if req != i {
			return nil
		}
		if out, ok := outputs[idx]; !ok || out.Kind() != kind {
			return lightreq.NewNoSuchOutput(req, idx)
		}
		return nil
	}
	for j := i + 1; j < len(b.requests); j++ {
		if err := b.requests[j].CheckOutputs(serves); err != nil {
			return fmt.Errorf("batch: satisfy %d: request %d: %w", i, j, err)
		}
	}

	oracle := func(req, idx int) (lightreq.Output, error) {
		if req == i {
			if out, ok := outputs[idx]; ok {
				return out, nil
			}
		}
		return lightreq.Output{}, lightreq.NewNoSuchOutput(req, idx)
	}
	for _, later := range b.requests[i+1:] {
		later.Fill(oracle)
	}

	b.log.Debugf("Satisfied %s request at position %d locally", resp.Kind(), i)
	b.drop(i)
	return nil
}

// PruneCached satisfies, in order, every request that is complete and
// whose response is held by cache. Answering one entry may complete
// the ones after it, so a single forward pass catches chains. It
// returns the positions, as they were before pruning, of the entries
// removed.
func (b *Builder) PruneCached(cache Cache) ([]int, error) {
	orig := make([]int, len(b.requests))
	for i := range orig {
		orig[i] = i
	}
	var pruned []int
	for i := 0; i < len(b.requests); {
		complete, err := b.requests[i].Complete()
		if err != nil {
			i++
			continue
		}
		resp, ok := cache.Lookup(complete)
		if !ok {
			i++
			continue
		}
		if err := b.Satisfy(i, resp); err != nil {
			return pruned, err
		}
		pruned = append(pruned, orig[i])
		orig = append(orig[:i], orig[i+1:]...)
	}
	if len(pruned) > 0 {
		b.log.Debugf("Pruned %d cached requests, %d remain", len(pruned), len(b.requests))
	}
	return pruned, nil
}

// Build hands the requests over to a new Batch and resets the builder.
func (b *Builder) Build() *Batch {
	batch := &Batch{
		id:       b.id,
		requests: b.requests,
		outputs:  make(map[lightreq.BackRef]lightreq.Output),
		log:      b.log,
	}
	b.requests = nil
	b.kinds = make(map[lightreq.BackRef]lightreq.OutputKind)
	b.log.Debugf("Built batch of %d requests", len(batch.requests))
	return batch
}

// drop removes entry i and renumbers every reference past it.
func (b *Builder) drop(i int) {
	b.requests = append(b.requests[:i], b.requests[i+1:]...)

	shift := func(req int) int {
		if req > i {
			return req - 1
		}
		return req
	}
	for _, req := range b.requests[i:] {
		req.AdjustRefs(shift)
	}

	kinds := make(map[lightreq.BackRef]lightreq.OutputKind, len(b.kinds))
	for ref, kind := range b.kinds {
		if ref.Request == i {
			continue
		}
		ref.Request = shift(ref.Request)
		kinds[ref] = kind
	}
	b.kinds = kinds
}

func cloneAll(reqs []lightreq.IncompleteRequest) []lightreq.IncompleteRequest {
	out := make([]lightreq.IncompleteRequest, len(reqs))
	for i, req := range reqs {
		out[i] = req.Clone()
	}
	return out
}
