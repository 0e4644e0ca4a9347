package lightreq

import "github.com/blockberries/lightreq/types"

// ReceiptsRequest is a potentially incomplete request for the
// receipts of a block.
type ReceiptsRequest struct {
	// Block hash.
	Hash Field[types.Hash]
}

var _ IncompleteRequest = (*ReceiptsRequest)(nil)

func (r *ReceiptsRequest) Kind() Kind { return KindReceipts }

func (r *ReceiptsRequest) CheckOutputs(check OutputChecker) error {
	return r.Hash.check(check, OutputHash)
}

func (r *ReceiptsRequest) NoteOutputs(func(int, OutputKind)) {}

func (r *ReceiptsRequest) Fill(oracle Oracle) {
	r.Hash.fill(oracle, hashOf)
}

func (r *ReceiptsRequest) Complete() (CompleteRequest, error) {
	hash, err := r.Hash.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteReceiptsRequest{Hash: hash}, nil
}

func (r *ReceiptsRequest) AdjustRefs(mapping func(int) int) {
	r.Hash.AdjustRefs(mapping)
}

func (r *ReceiptsRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*ReceiptsRequest) incomplete() {}

// CompleteReceiptsRequest is a complete block receipts request.
type CompleteReceiptsRequest struct {
	Hash types.Hash `cramberry:"1"`
}

func (CompleteReceiptsRequest) Kind() Kind { return KindReceipts }
func (CompleteReceiptsRequest) complete()  {}

// ReceiptsResponse carries encoded receipts in transaction order.
type ReceiptsResponse struct {
	Receipts [][]byte `cramberry:"1"`
}

func (ReceiptsResponse) Kind() Kind                   { return KindReceipts }
func (ReceiptsResponse) response()                    {}
func (ReceiptsResponse) FillOutputs(func(int, Output)) {}

// BodyRequest is a potentially incomplete request for a block body.
type BodyRequest struct {
	// Block hash.
	Hash Field[types.Hash]
}

var _ IncompleteRequest = (*BodyRequest)(nil)

func (r *BodyRequest) Kind() Kind { return KindBody }

func (r *BodyRequest) CheckOutputs(check OutputChecker) error {
	return r.Hash.check(check, OutputHash)
}

func (r *BodyRequest) NoteOutputs(func(int, OutputKind)) {}

func (r *BodyRequest) Fill(oracle Oracle) {
	r.Hash.fill(oracle, hashOf)
}

func (r *BodyRequest) Complete() (CompleteRequest, error) {
	hash, err := r.Hash.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteBodyRequest{Hash: hash}, nil
}

func (r *BodyRequest) AdjustRefs(mapping func(int) int) {
	r.Hash.AdjustRefs(mapping)
}

func (r *BodyRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*BodyRequest) incomplete() {}

// CompleteBodyRequest is a complete block body request.
type CompleteBodyRequest struct {
	Hash types.Hash `cramberry:"1"`
}

func (CompleteBodyRequest) Kind() Kind { return KindBody }
func (CompleteBodyRequest) complete()  {}

// BodyResponse carries the encoded block body.
type BodyResponse struct {
	Body []byte `cramberry:"1"`
}

func (BodyResponse) Kind() Kind                   { return KindBody }
func (BodyResponse) response()                    {}
func (BodyResponse) FillOutputs(func(int, Output)) {}
