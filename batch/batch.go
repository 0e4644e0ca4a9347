package batch

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockberries/lightreq"
)

// ErrDone is returned when a batch has no unanswered requests left.
var ErrDone = errors.New("batch: all requests answered")

// ErrDuplicateOutput is returned when a response would register an
// output that is already known.
var ErrDuplicateOutput = errors.New("batch: output already registered")

// Batch is a validated sequence of requests being answered in order.
type Batch struct {
	id        string
	requests  []lightreq.IncompleteRequest
	responses []lightreq.Response
	outputs   map[lightreq.BackRef]lightreq.Output
	answered  int
	log       *logrus.Entry
}

// ID returns the batch identifier.
func (b *Batch) ID() string { return b.id }

// Len returns the number of requests in the batch.
func (b *Batch) Len() int { return len(b.requests) }

// Answered returns the number of responses supplied so far.
func (b *Batch) Answered() int { return b.answered }

// Done reports whether every request has been answered.
func (b *Batch) Done() bool { return b.answered >= len(b.requests) }

// Requests returns copies of the requests in their current state.
func (b *Batch) Requests() []lightreq.IncompleteRequest {
	return cloneAll(b.requests)
}

// Responses returns the responses supplied so far, in request order.
func (b *Batch) Responses() []lightreq.Response {
	return append([]lightreq.Response(nil), b.responses...)
}

// Output looks up a registered output. It is the batch's Oracle.
func (b *Batch) Output(req, idx int) (lightreq.Output, error) {
	if out, ok := b.outputs[lightreq.BackRef{Request: req, Output: idx}]; ok {
		return out, nil
	}
	return lightreq.Output{}, lightreq.NewNoSuchOutput(req, idx)
}

// NextComplete returns the complete form of the next unanswered
// request, or a NoSuchOutputError while it is unresolved.
func (b *Batch) NextComplete() (lightreq.CompleteRequest, error) {
	if b.Done() {
		return nil, ErrDone
	}
	req, err := b.requests[b.answered].Complete()
	if err != nil {
		return nil, fmt.Errorf("batch: request %d: %w", b.answered, err)
	}
	return req, nil
}

// Ready returns the longest run of complete requests starting at the
// next unanswered one. These can be pipelined in a single exchange.
func (b *Batch) Ready() []lightreq.CompleteRequest {
	var ready []lightreq.CompleteRequest
	for _, req := range b.requests[b.answered:] {
		c, err := req.Complete()
		if err != nil {
			break
		}
		ready = append(ready, c)
	}
	return ready
}

// CompleteAll returns the complete form of every unanswered request.
// It fails with a NoSuchOutputError if any of them is unresolved; no
// partial result is returned.
func (b *Batch) CompleteAll() ([]lightreq.CompleteRequest, error) {
	all := make([]lightreq.CompleteRequest, 0, len(b.requests)-b.answered)
	for i := b.answered; i < len(b.requests); i++ {
		c, err := b.requests[i].Complete()
		if err != nil {
			return nil, fmt.Errorf("batch: request %d: %w", i, err)
		}
		all = append(all, c)
	}
	return all, nil
}

// SupplyResponse registers resp as the answer to the next unanswered
// request, records its outputs and fills every later request.
func (b *Batch) SupplyResponse(resp lightreq.Response) error {
	if b.Done() {
		return ErrDone
	}
	pos := b.answered
	if req := b.requests[pos]; req.Kind() != resp.Kind() {
		return fmt.Errorf("batch: request %d: %s response for %s request: %w",
			pos, resp.Kind(), req.Kind(), lightreq.ErrKindMismatch)
	}

	var (
		exposed []lightreq.BackRef
		values  []lightreq.Output
		seen    = make(map[lightreq.BackRef]bool)
	)
	resp.FillOutputs(func(idx int, out lightreq.Output) {
		ref := lightreq.BackRef{Request: pos, Output: idx}
		exposed = append(exposed, ref)
		values = append(values, out)
	})
	for _, ref := range exposed {
		if _, ok := b.outputs[ref]; ok || seen[ref] {
			return fmt.Errorf("batch: request %d output %d: %w", ref.Request, ref.Output, ErrDuplicateOutput)
		}
		seen[ref] = true
	}
	for i, ref := range exposed {
		b.outputs[ref] = values[i]
	}

	for _, later := range b.requests[pos+1:] {
		later.Fill(b.Output)
	}

	b.responses = append(b.responses, resp)
	b.answered++
	b.log.WithFields(logrus.Fields{
		"index":   pos,
		"kind":    resp.Kind().String(),
		"outputs": len(exposed),
	}).Debug("Supplied response")
	return nil
}
