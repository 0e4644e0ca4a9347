package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/internal/metrics"
)

// ErrShortReply is returned when a peer answers fewer requests than
// were sent in an exchange.
var ErrShortReply = errors.New("batch: peer answered only part of the exchange")

// Exchanger sends complete requests and returns their responses in
// the same order. lightreq.Connection satisfies it.
type Exchanger interface {
	Exchange(ctx context.Context, reqs []lightreq.CompleteRequest) ([]lightreq.Response, error)
}

// Dispatch drives b to completion over ex. Each round sends the
// current Ready window in one exchange and supplies the responses in
// order, which resolves the next window. Responses returned alongside
// an exchange error are still supplied. Nothing is retried: the first
// failure is returned and the batch keeps whatever was supplied before
// it.
func Dispatch(ctx context.Context, ex Exchanger, b *Batch) error {
	for !b.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		window := b.Ready()
		if len(window) == 0 {
			_, err := b.NextComplete()
			return fmt.Errorf("batch %s: stalled: %w", b.id, err)
		}

		metrics.ExchangeSent(len(window))
		resps, exErr := ex.Exchange(ctx, window)
		if len(resps) > len(window) {
			resps = resps[:len(window)]
		}
		for _, resp := range resps {
			if err := b.SupplyResponse(resp); err != nil {
				return fmt.Errorf("batch %s: %w", b.id, err)
			}
		}
		if exErr != nil {
			return fmt.Errorf("batch %s: exchange at %d: %w", b.id, b.answered, exErr)
		}
		if len(resps) < len(window) {
			return fmt.Errorf("batch %s: %d of %d answered: %w", b.id, len(resps), len(window), ErrShortReply)
		}
	}
	metrics.BatchDispatched()
	b.log.Debugf("Dispatched batch of %d requests", len(b.requests))
	return nil
}
