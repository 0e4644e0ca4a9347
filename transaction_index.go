package lightreq

import "github.com/blockberries/lightreq/types"

// TransactionIndexRequest is a potentially incomplete request for the
// block position of a transaction.
type TransactionIndexRequest struct {
	// Transaction hash.
	Hash Field[types.Hash]
}

var _ IncompleteRequest = (*TransactionIndexRequest)(nil)

func (r *TransactionIndexRequest) Kind() Kind { return KindTransactionIndex }

func (r *TransactionIndexRequest) CheckOutputs(check OutputChecker) error {
	return r.Hash.check(check, OutputHash)
}

// NoteOutputs declares the block number (0) and block hash (1).
func (r *TransactionIndexRequest) NoteOutputs(note func(int, OutputKind)) {
	note(0, OutputNumber)
	note(1, OutputHash)
}

func (r *TransactionIndexRequest) Fill(oracle Oracle) {
	r.Hash.fill(oracle, hashOf)
}

func (r *TransactionIndexRequest) Complete() (CompleteRequest, error) {
	hash, err := r.Hash.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteTransactionIndexRequest{Hash: hash}, nil
}

func (r *TransactionIndexRequest) AdjustRefs(mapping func(int) int) {
	r.Hash.AdjustRefs(mapping)
}

func (r *TransactionIndexRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*TransactionIndexRequest) incomplete() {}

// CompleteTransactionIndexRequest is a complete transaction index request.
type CompleteTransactionIndexRequest struct {
	Hash types.Hash `cramberry:"1"`
}

func (CompleteTransactionIndexRequest) Kind() Kind { return KindTransactionIndex }
func (CompleteTransactionIndexRequest) complete()  {}

// TransactionIndexResponse locates a transaction.
type TransactionIndexResponse struct {
	// Number of the containing block.
	Num uint64 `cramberry:"1"`
	// Hash of the containing block.
	Hash types.Hash `cramberry:"2"`
	// Position within the block.
	Index uint64 `cramberry:"3"`
}

func (TransactionIndexResponse) Kind() Kind { return KindTransactionIndex }
func (TransactionIndexResponse) response()  {}

func (r TransactionIndexResponse) FillOutputs(sink func(int, Output)) {
	sink(0, NumberOutput(r.Num))
	sink(1, HashOutput(r.Hash))
}
