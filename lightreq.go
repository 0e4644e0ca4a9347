// Package lightreq defines chained light-client requests: batches in
// which an input of a later request may be a back-reference to an
// output of an earlier request, resolved once that earlier request has
// been answered.
//
// Every request kind comes in two forms. The incomplete form holds
// [Field] values that may still be back-references; the complete form
// holds plain scalars and is the only form ever put on the wire.
// Incomplete requests are validated with CheckOutputs when added to a
// batch, filled progressively from an [Oracle] as responses arrive,
// renumbered with AdjustRefs when entries are dropped, and converted
// with Complete once every field is a scalar.
//
// Nothing in this package blocks or holds shared state. Scheduling,
// networking and proof verification are the caller's concern.
package lightreq

import (
	"context"
	"fmt"

	"github.com/blockberries/lightreq/types"
)

// Kind enumerates the request kinds of the protocol. The set is fixed.
type Kind uint8

const (
	KindHeaders Kind = iota + 1
	KindHeaderProof
	KindTransactionIndex
	KindReceipts
	KindBody
	KindAccount
	KindStorage
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindHeaders:
		return "Headers"
	case KindHeaderProof:
		return "HeaderProof"
	case KindTransactionIndex:
		return "TransactionIndex"
	case KindReceipts:
		return "Receipts"
	case KindBody:
		return "Body"
	case KindAccount:
		return "Account"
	case KindStorage:
		return "Storage"
	case KindCode:
		return "Code"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Oracle looks up a known output of an earlier request. It returns a
// NoSuchOutputError when the output is not (yet) known.
type Oracle func(req, idx int) (Output, error)

// OutputChecker confirms that request req is earlier in the batch and
// will expose an output of the given kind at index idx. It returns a
// NoSuchOutputError otherwise.
type OutputChecker func(req, idx int, kind OutputKind) error

// IncompleteRequest is a request whose inputs may still reference
// outputs of earlier requests. Implemented only by the request kinds
// of this package.
type IncompleteRequest interface {
	// Kind returns the request kind.
	Kind() Kind

	// CheckOutputs calls check once for every back-reference with the
	// output kind the field expects. The first error is returned.
	// Nothing is modified.
	CheckOutputs(check OutputChecker) error

	// NoteOutputs reports the outputs this request's response will
	// expose, whether or not the request itself is resolved.
	NoteOutputs(note func(idx int, kind OutputKind))

	// Fill resolves every back-reference the oracle can serve with a
	// value of the right kind. It never fails and never unresolves.
	Fill(oracle Oracle)

	// Complete returns the all-scalar form of the request, or a
	// NoSuchOutputError while any back-reference remains.
	Complete() (CompleteRequest, error)

	// AdjustRefs rewrites the request index of every back-reference
	// through mapping.
	AdjustRefs(mapping func(int) int)

	// Clone returns an independent copy.
	Clone() IncompleteRequest

	incomplete()
}

// CompleteRequest is a fully resolved request, ready to be encoded.
type CompleteRequest interface {
	Kind() Kind
	complete()
}

// Response is a decoded reply to a CompleteRequest.
type Response interface {
	Kind() Kind

	// FillOutputs calls sink once per exposed output, in the order
	// and with the kinds promised by the request's NoteOutputs.
	FillOutputs(sink func(idx int, out Output))

	response()
}

// ChainProvider answers chain data requests. It is the interface
// every provider must implement.
//
// Implementations MUST be safe for concurrent use.
type ChainProvider interface {
	// Capabilities declares which request groups the provider serves.
	Capabilities() types.Capabilities

	Headers(ctx context.Context, req CompleteHeadersRequest) (HeadersResponse, error)
	HeaderProof(ctx context.Context, req CompleteHeaderProofRequest) (HeaderProofResponse, error)
	TransactionIndex(ctx context.Context, req CompleteTransactionIndexRequest) (TransactionIndexResponse, error)
	Receipts(ctx context.Context, req CompleteReceiptsRequest) (ReceiptsResponse, error)
	Body(ctx context.Context, req CompleteBodyRequest) (BodyResponse, error)
}

// StateProvider answers state proof requests.
//
// Declared via: types.CapState in ChainProvider.Capabilities
type StateProvider interface {
	Account(ctx context.Context, req CompleteAccountRequest) (AccountResponse, error)
	Storage(ctx context.Context, req CompleteStorageRequest) (StorageResponse, error)
	Code(ctx context.Context, req CompleteCodeRequest) (CodeResponse, error)
}

// Connection represents a transport-agnostic connection to a light
// protocol server. Both gRPC clients and in-process adapters
// implement this.
type Connection interface {
	// Handshake discovers the capabilities of the remote provider.
	Handshake(ctx context.Context) (types.Capabilities, error)

	// Exchange sends complete requests in order and returns responses
	// in the same order. A server may answer only a prefix; the
	// caller decides what to do with the rest.
	Exchange(ctx context.Context, reqs []CompleteRequest) ([]Response, error)

	// Capabilities returns the capabilities discovered at handshake.
	Capabilities() types.Capabilities

	// Close terminates the connection.
	Close() error
}
