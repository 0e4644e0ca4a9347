package lightreq

import "github.com/blockberries/lightreq/types"

// StorageRequest is a potentially incomplete request for a storage
// proof.
type StorageRequest struct {
	// Block hash to request the state proof for.
	BlockHash Field[types.Hash]
	// Hash of the account's address.
	AddressHash Field[types.Hash]
	// Hash of the storage key.
	KeyHash Field[types.Hash]
}

var _ IncompleteRequest = (*StorageRequest)(nil)

func (r *StorageRequest) Kind() Kind { return KindStorage }

func (r *StorageRequest) CheckOutputs(check OutputChecker) error {
	if err := r.BlockHash.check(check, OutputHash); err != nil {
		return err
	}
	if err := r.AddressHash.check(check, OutputHash); err != nil {
		return err
	}
	return r.KeyHash.check(check, OutputHash)
}

func (r *StorageRequest) NoteOutputs(note func(int, OutputKind)) {
	note(0, OutputHash)
}

func (r *StorageRequest) Fill(oracle Oracle) {
	r.BlockHash.fill(oracle, hashOf)
	r.AddressHash.fill(oracle, hashOf)
	r.KeyHash.fill(oracle, hashOf)
}

func (r *StorageRequest) Complete() (CompleteRequest, error) {
	blockHash, err := r.BlockHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	addressHash, err := r.AddressHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	keyHash, err := r.KeyHash.IntoScalar()
	if err != nil {
		return nil, err
	}
	return CompleteStorageRequest{
		BlockHash:   blockHash,
		AddressHash: addressHash,
		KeyHash:     keyHash,
	}, nil
}

func (r *StorageRequest) AdjustRefs(mapping func(int) int) {
	r.BlockHash.AdjustRefs(mapping)
	r.AddressHash.AdjustRefs(mapping)
	r.KeyHash.AdjustRefs(mapping)
}

func (r *StorageRequest) Clone() IncompleteRequest {
	c := *r
	return &c
}

func (*StorageRequest) incomplete() {}

// CompleteStorageRequest is a complete request for a storage proof.
type CompleteStorageRequest struct {
	BlockHash   types.Hash `cramberry:"1"`
	AddressHash types.Hash `cramberry:"2"`
	KeyHash     types.Hash `cramberry:"3"`
}

func (CompleteStorageRequest) Kind() Kind { return KindStorage }
func (CompleteStorageRequest) complete()  {}

// StorageResponse is the reply to a storage proof request.
type StorageResponse struct {
	// Inclusion/exclusion proof.
	Proof [][]byte `cramberry:"1"`
	// Storage value.
	Value types.Hash `cramberry:"2"`
}

func (StorageResponse) Kind() Kind { return KindStorage }
func (StorageResponse) response()  {}

// FillOutputs exposes the storage value as output 0.
func (r StorageResponse) FillOutputs(sink func(int, Output)) {
	sink(0, HashOutput(r.Value))
}
