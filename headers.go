package lightreq

import "github.com/blockberries/lightreq/types"

// HeadersRequest is a potentially incomplete request for a run of
// block headers.
type HeadersRequest struct {
	// Starting block, by hash or by number. A back-reference may
	// point at either a Hash or a Number output.
	Start Field[types.HashOrNumber]
	// Blocks to skip between consecutive headers.
	Skip uint64
	// Maximum number of headers to return.
	Max uint64
	// Walk towards genesis instead of towards the head.
	Reverse bool
}

var _ IncompleteRequest = (*HeadersRequest)(nil)

func (r *HeadersRequest) Kind() Kind { return KindHeaders }

func (r *HeadersRequest) CheckOutputs(check OutputChecker) error {
	return r.Start.check(check, OutputHash, OutputNumber)
}

func (r *HeadersRequest) NoteOutputs(func(int, OutputKind)) {}

func (r *HeadersRequest) Fill(oracle Oracle) {
	r.Start.fill(oracle, hashOrNumberOf)
}

func (r *HeadersRequest) Complete() (CompleteRequest, error) {
	start, err := r.Start.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteHeadersRequest{
		Start:   start,
		Skip:    r.Skip,
		Max:     r.Max,
		Reverse: r.Reverse,
	}, nil
}

func (r *HeadersRequest) AdjustRefs(mapping func(int) int) {
	r.Start.AdjustRefs(mapping)
}

func (r *HeadersRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*HeadersRequest) incomplete() {}

// CompleteHeadersRequest is a complete request for block headers.
type CompleteHeadersRequest struct {
	Start   types.HashOrNumber `cramberry:"1"`
	Skip    uint64             `cramberry:"2"`
	Max     uint64             `cramberry:"3"`
	Reverse bool               `cramberry:"4"`
}

func (CompleteHeadersRequest) Kind() Kind { return KindHeaders }
func (CompleteHeadersRequest) complete()  {}

// HeadersResponse carries encoded headers in request order.
type HeadersResponse struct {
	Headers [][]byte `cramberry:"1"`
}

func (HeadersResponse) Kind() Kind { return KindHeaders }
func (HeadersResponse) response()  {}

// FillOutputs exposes nothing: the number of headers is not known
// in advance, so no later request could validate a reference to one.
func (HeadersResponse) FillOutputs(func(int, Output)) {}
