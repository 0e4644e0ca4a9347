package lightreq

import (
	"errors"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
)

// RequestEnvelope is a tagged union carrying exactly one complete
// request. The tag of each member equals its Kind.
type RequestEnvelope struct {
	Headers          *CompleteHeadersRequest          `cramberry:"1"`
	HeaderProof      *CompleteHeaderProofRequest      `cramberry:"2"`
	TransactionIndex *CompleteTransactionIndexRequest `cramberry:"3"`
	Receipts         *CompleteReceiptsRequest         `cramberry:"4"`
	Body             *CompleteBodyRequest             `cramberry:"5"`
	Account          *CompleteAccountRequest          `cramberry:"6"`
	Storage          *CompleteStorageRequest          `cramberry:"7"`
	Code             *CompleteCodeRequest             `cramberry:"8"`
}

// ResponseEnvelope is a tagged union carrying exactly one response.
// The tag of each member equals its Kind.
type ResponseEnvelope struct {
	Headers          *HeadersResponse          `cramberry:"1"`
	HeaderProof      *HeaderProofResponse      `cramberry:"2"`
	TransactionIndex *TransactionIndexResponse `cramberry:"3"`
	Receipts         *ReceiptsResponse         `cramberry:"4"`
	Body             *BodyResponse             `cramberry:"5"`
	Account          *AccountResponse          `cramberry:"6"`
	Storage          *StorageResponse          `cramberry:"7"`
	Code             *CodeResponse             `cramberry:"8"`
}

var errEmptyEnvelope = errors.New("envelope carries no member")
var errAmbiguousEnvelope = errors.New("envelope carries more than one member")

// WrapRequest places req in an envelope.
func WrapRequest(req CompleteRequest) RequestEnvelope {
	var env RequestEnvelope
	switch r := req.(type) {
	case CompleteHeadersRequest:
		env.Headers = &r
	case CompleteHeaderProofRequest:
		env.HeaderProof = &r
	case CompleteTransactionIndexRequest:
		env.TransactionIndex = &r
	case CompleteReceiptsRequest:
		env.Receipts = &r
	case CompleteBodyRequest:
		env.Body = &r
	case CompleteAccountRequest:
		env.Account = &r
	case CompleteStorageRequest:
		env.Storage = &r
	case CompleteCodeRequest:
		env.Code = &r
	}
	return env
}

// Unwrap returns the single request carried by the envelope.
func (e RequestEnvelope) Unwrap() (CompleteRequest, error) {
	var out []CompleteRequest
	if e.Headers != nil {
		out = append(out, *e.Headers)
	}
	if e.HeaderProof != nil {
		out = append(out, *e.HeaderProof)
	}
	if e.TransactionIndex != nil {
		out = append(out, *e.TransactionIndex)
	}
	if e.Receipts != nil {
		out = append(out, *e.Receipts)
	}
	if e.Body != nil {
		out = append(out, *e.Body)
	}
	if e.Account != nil {
		out = append(out, *e.Account)
	}
	if e.Storage != nil {
		out = append(out, *e.Storage)
	}
	if e.Code != nil {
		out = append(out, *e.Code)
	}
	switch len(out) {
	case 0:
		return nil, &DecodeError{What: "request", Err: errEmptyEnvelope}
	case 1:
		return out[0], nil
	default:
		return nil, &DecodeError{What: "request", Err: errAmbiguousEnvelope}
	}
}

// WrapResponse places resp in an envelope.
func WrapResponse(resp Response) ResponseEnvelope {
	var env ResponseEnvelope
	switch r := resp.(type) {
	case HeadersResponse:
		env.Headers = &r
	case HeaderProofResponse:
		env.HeaderProof = &r
	case TransactionIndexResponse:
		env.TransactionIndex = &r
	case ReceiptsResponse:
		env.Receipts = &r
	case BodyResponse:
		env.Body = &r
	case AccountResponse:
		env.Account = &r
	case StorageResponse:
		env.Storage = &r
	case CodeResponse:
		env.Code = &r
	}
	return env
}

// Unwrap returns the single response carried by the envelope.
func (e ResponseEnvelope) Unwrap() (Response, error) {
	var out []Response
	if e.Headers != nil {
		out = append(out, *e.Headers)
	}
	if e.HeaderProof != nil {
		out = append(out, *e.HeaderProof)
	}
	if e.TransactionIndex != nil {
		out = append(out, *e.TransactionIndex)
	}
	if e.Receipts != nil {
		out = append(out, *e.Receipts)
	}
	if e.Body != nil {
		out = append(out, *e.Body)
	}
	if e.Account != nil {
		out = append(out, *e.Account)
	}
	if e.Storage != nil {
		out = append(out, *e.Storage)
	}
	if e.Code != nil {
		out = append(out, *e.Code)
	}
	switch len(out) {
	case 0:
		return nil, &DecodeError{What: "response", Err: errEmptyEnvelope}
	case 1:
		return out[0], nil
	default:
		return nil, &DecodeError{What: "response", Err: errAmbiguousEnvelope}
	}
}

// EncodeRequest serializes a complete request.
func EncodeRequest(req CompleteRequest) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("lightreq: encode nil request")
	}
	data, err := cramberry.Marshal(WrapRequest(req))
	if err != nil {
		return nil, fmt.Errorf("lightreq: encode %s request: %w", req.Kind(), err)
	}
	return data, nil
}

// DecodeRequest parses bytes produced by EncodeRequest. Failures are
// reported as DecodeError.
func DecodeRequest(data []byte) (CompleteRequest, error) {
	var env RequestEnvelope
	if err := cramberry.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{What: "request", Err: err}
	}
	return env.Unwrap()
}

// EncodeResponse serializes a response.
func EncodeResponse(resp Response) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("lightreq: encode nil response")
	}
	data, err := cramberry.Marshal(WrapResponse(resp))
	if err != nil {
		return nil, fmt.Errorf("lightreq: encode %s response: %w", resp.Kind(), err)
	}
	return data, nil
}

// DecodeResponse parses bytes produced by EncodeResponse. Failures are
// reported as DecodeError.
func DecodeResponse(data []byte) (Response, error) {
	var env ResponseEnvelope
	if err := cramberry.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{What: "response", Err: err}
	}
	return env.Unwrap()
}
