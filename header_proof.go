package lightreq

import "github.com/blockberries/lightreq/types"

// HeaderProofRequest is a potentially incomplete request for a
// canonical header proof by block number.
type HeaderProofRequest struct {
	Num Field[uint64]
}

var _ IncompleteRequest = (*HeaderProofRequest)(nil)

func (r *HeaderProofRequest) Kind() Kind { return KindHeaderProof }

func (r *HeaderProofRequest) CheckOutputs(check OutputChecker) error {
	return r.Num.check(check, OutputNumber)
}

// NoteOutputs declares the proven block hash as output 0.
func (r *HeaderProofRequest) NoteOutputs(note func(int, OutputKind)) {
	note(0, OutputHash)
}

func (r *HeaderProofRequest) Fill(oracle Oracle) {
	r.Num.fill(oracle, numberOf)
}

func (r *HeaderProofRequest) Complete() (CompleteRequest, error) {
	num, err := r.Num.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteHeaderProofRequest{Num: num}, nil
}

func (r *HeaderProofRequest) AdjustRefs(mapping func(int) int) {
	r.Num.AdjustRefs(mapping)
}

func (r *HeaderProofRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*HeaderProofRequest) incomplete() {}

// CompleteHeaderProofRequest is a complete header proof request.
type CompleteHeaderProofRequest struct {
	Num uint64 `cramberry:"1"`
}

func (CompleteHeaderProofRequest) Kind() Kind { return KindHeaderProof }
func (CompleteHeaderProofRequest) complete()  {}

// HeaderProofResponse proves the canonical hash of a block number.
type HeaderProofResponse struct {
	// Inclusion proof of the header hash and total difficulty in
	// the canonical hash trie.
	Proof [][]byte `cramberry:"1"`
	// Proven block hash.
	Hash types.Hash `cramberry:"2"`
	// Proven total difficulty.
	TD types.U256 `cramberry:"3"`
}

func (HeaderProofResponse) Kind() Kind { return KindHeaderProof }
func (HeaderProofResponse) response()  {}

func (r HeaderProofResponse) FillOutputs(sink func(int, Output)) {
	sink(0, HashOutput(r.Hash))
}
