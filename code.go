package lightreq

import "github.com/blockberries/lightreq/types"

// CodeRequest is a potentially incomplete request for contract code.
type CodeRequest struct {
	// Block hash to fetch the code at.
	BlockHash Field[types.Hash]
	// Hash of the code.
	CodeHash Field[types.Hash]
}

var _ IncompleteRequest = (*CodeRequest)(nil)

func (r *CodeRequest) Kind() Kind { return KindCode }

func (r *CodeRequest) CheckOutputs(check OutputChecker) error {
	if err := r.BlockHash.check(check, OutputHash); err != nil {
		return err
	}
	return r.CodeHash.check(check, OutputHash)
}

func (r *CodeRequest) NoteOutputs(func(int, OutputKind)) {}

func (r *CodeRequest) Fill(oracle Oracle) {
	r.BlockHash.fill(oracle, hashOf)
	r.CodeHash.fill(oracle, hashOf)
}

func (r *CodeRequest) Complete() (CompleteRequest, error) {
	blockHash, err := r.BlockHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	codeHash, err := r.CodeHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteCodeRequest{BlockHash: blockHash, CodeHash: codeHash}, nil
}

func (r *CodeRequest) AdjustRefs(mapping func(int) int) {
	r.BlockHash.AdjustRefs(mapping)
	r.CodeHash.AdjustRefs(mapping)
}

func (r *CodeRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*CodeRequest) incomplete() {}

// CompleteCodeRequest is a complete request for contract code.
type CompleteCodeRequest struct {
	BlockHash types.Hash `cramberry:"1"`
	CodeHash  types.Hash `cramberry:"2"`
}

func (CompleteCodeRequest) Kind() Kind { return KindCode }
func (CompleteCodeRequest) complete()  {}

// CodeResponse carries the requested code.
type CodeResponse struct {
	Code []byte `cramberry:"1"`
}

func (CodeResponse) Kind() Kind { return KindCode }
func (CodeResponse) response()  {}

// FillOutputs exposes nothing; code is never referenced.
func (CodeResponse) FillOutputs(func(int, Output)) {}
