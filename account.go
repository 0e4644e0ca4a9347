package lightreq

import "github.com/blockberries/lightreq/types"

// AccountRequest is a potentially incomplete request for an account
// proof.
type AccountRequest struct {
	// Block hash to request the state proof for.
	BlockHash Field[types.Hash]
	// Hash of the account's address.
	AddressHash Field[types.Hash]
}

var _ IncompleteRequest = (*AccountRequest)(nil)

func (r *AccountRequest) Kind() Kind { return KindAccount }

func (r *AccountRequest) CheckOutputs(check OutputChecker) error {
	if err := r.BlockHash.check(check, OutputHash); err != nil {
		return err
	}
	return r.AddressHash.check(check, OutputHash)
}

// NoteOutputs declares the code hash (0) and storage root (1).
func (r *AccountRequest) NoteOutputs(note func(int, OutputKind)) {
	note(0, OutputHash)
	note(1, OutputHash)
}

func (r *AccountRequest) Fill(oracle Oracle) {
	r.BlockHash.fill(oracle, hashOf)
	r.AddressHash.fill(oracle, hashOf)
}

func (r *AccountRequest) Complete() (CompleteRequest, error) {
	blockHash, err := r.BlockHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	addressHash, err := r.AddressHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteAccountRequest{BlockHash: blockHash, AddressHash: addressHash}, nil
}

func (r *AccountRequest) AdjustRefs(mapping func(int) int) {
	r.BlockHash.AdjustRefs(mapping)
	r.AddressHash.AdjustRefs(mapping)
}

func (r *AccountRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*AccountRequest) incomplete() {}

// CompleteAccountRequest is a complete request for an account proof.
type CompleteAccountRequest struct {
	BlockHash   types.Hash `cramberry:"1"`
	AddressHash types.Hash `cramberry:"2"`
}

func (CompleteAccountRequest) Kind() Kind { return KindAccount }
func (CompleteAccountRequest) complete()  {}

// AccountResponse is the reply to an account proof request.
type AccountResponse struct {
	// Inclusion/exclusion proof.
	Proof       [][]byte   `cramberry:"1"`
	Nonce       types.U256 `cramberry:"2"`
	Balance     types.U256 `cramberry:"3"`
	CodeHash    types.Hash `cramberry:"4"`
	StorageRoot types.Hash `cramberry:"5"`
}

func (AccountResponse) Kind() Kind { return KindAccount }
func (AccountResponse) response()  {}

func (r AccountResponse) FillOutputs(sink func(int, Output)) {
	sink(0, HashOutput(r.CodeHash))
	sink(1, HashOutput(r.StorageRoot))
}
