package lightreq

import (
	"reflect"
	"testing"

	"github.com/blockberries/lightreq/types"
)

var (
	hashA = types.Hash{0xA}
	hashB = types.Hash{0xB}
	hashC = types.Hash{0xC}
)

// outputTable is a minimal oracle backed by a map.
type outputTable map[BackRef]Output

func (t outputTable) lookup(req, idx int) (Output, error) {
	if out, ok := t[BackRef{Request: req, Output: idx}]; ok {
		return out, nil
	}
	return Output{}, NewNoSuchOutput(req, idx)
}

// sampleRequests returns one incomplete request of every kind, each
// carrying back-references into requests 0 and 1.
func sampleRequests() []IncompleteRequest {
	return []IncompleteRequest{
		&HeadersRequest{Start: BackReference[types.HashOrNumber](0, 0), Skip: 1, Max: 10},
		&HeaderProofRequest{Num: BackReference[uint64](1, 0)},
		&TransactionIndexRequest{Hash: BackReference[types.Hash](0, 0)},
		&ReceiptsRequest{Hash: BackReference[types.Hash](0, 0)},
		&BodyRequest{Hash: BackReference[types.Hash](0, 0)},
		&AccountRequest{BlockHash: BackReference[types.Hash](0, 0), AddressHash: Scalar(hashB)},
		&StorageRequest{
			BlockHash:   BackReference[types.Hash](0, 0),
			AddressHash: Scalar(hashB),
			KeyHash:     BackReference[types.Hash](1, 1),
		},
		&CodeRequest{BlockHash: Scalar(hashA), CodeHash: BackReference[types.Hash](1, 1)},
	}
}

func fullTable() outputTable {
	return outputTable{
		{Request: 0, Output: 0}: HashOutput(hashA),
		{Request: 1, Output: 0}: NumberOutput(77),
		{Request: 1, Output: 1}: HashOutput(hashC),
	}
}

func TestComplete_AllScalarSucceeds(t *testing.T) {
	req := &StorageRequest{
		BlockHash:   Scalar(hashA),
		AddressHash: Scalar(hashB),
		KeyHash:     Scalar(hashC),
	}
	c, err := req.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := CompleteStorageRequest{BlockHash: hashA, AddressHash: hashB, KeyHash: hashC}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}
}

func TestComplete_AnyRefFails(t *testing.T) {
	for _, req := range sampleRequests() {
		_, err := req.Complete()
		if _, ok := IsNoSuchOutput(err); !ok {
			t.Errorf("%s: expected NoSuchOutput, got %v", req.Kind(), err)
		}
	}
}

func TestFill_ResolvesEveryKind(t *testing.T) {
	table := fullTable()
	for _, req := range sampleRequests() {
		req.Fill(table.lookup)
		if _, err := req.Complete(); err != nil {
			t.Errorf("%s: expected complete after fill, got %v", req.Kind(), err)
		}
	}
}

func TestFill_Idempotent(t *testing.T) {
	table := fullTable()
	delete(table, BackRef{Request: 1, Output: 1})
	for _, req := range sampleRequests() {
		once := req.Clone()
		once.Fill(table.lookup)
		twice := once.Clone()
		twice.Fill(table.lookup)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("%s: fill not idempotent: %+v vs %+v", req.Kind(), once, twice)
		}
	}
}

func TestFill_Monotonic(t *testing.T) {
	req := &StorageRequest{
		BlockHash:   BackReference[types.Hash](0, 0),
		AddressHash: Scalar(hashB),
		KeyHash:     BackReference[types.Hash](1, 0),
	}
	req.Fill(outputTable{{Request: 0, Output: 0}: HashOutput(hashA)}.lookup)
	if !req.BlockHash.IsScalar() || req.KeyHash.IsScalar() {
		t.Fatalf("unexpected state after first fill: %+v", req)
	}

	// An oracle that knows nothing, or returns wrong kinds, must not
	// unresolve anything.
	req.Fill(outputTable{}.lookup)
	req.Fill(func(int, int) (Output, error) { return NumberOutput(1), nil })
	if v, ok := req.BlockHash.Value(); !ok || v != hashA {
		t.Fatalf("block hash regressed: %v", req.BlockHash)
	}
	if v, _ := req.AddressHash.Value(); v != hashB {
		t.Fatalf("scalar changed: %v", req.AddressHash)
	}
}

func TestFill_StreamingEqualsSinglePass(t *testing.T) {
	table := fullTable()
	for _, req := range sampleRequests() {
		single := req.Clone()
		single.Fill(table.lookup)

		streamed := req.Clone()
		known := outputTable{}
		for ref, out := range table {
			known[ref] = out
			streamed.Fill(known.lookup)
		}
		if !reflect.DeepEqual(single, streamed) {
			t.Errorf("%s: streaming fill diverged: %+v vs %+v", req.Kind(), single, streamed)
		}
	}
}

func TestAdjustRefs_Identity(t *testing.T) {
	for _, req := range sampleRequests() {
		adjusted := req.Clone()
		adjusted.AdjustRefs(func(i int) int { return i })
		if !reflect.DeepEqual(req, adjusted) {
			t.Errorf("%s: identity mapping changed request", req.Kind())
		}
	}
}

func TestAdjustRefs_Composition(t *testing.T) {
	f := func(i int) int { return i + 3 }
	g := func(i int) int { return i * 2 }
	for _, req := range sampleRequests() {
		stepwise := req.Clone()
		stepwise.AdjustRefs(f)
		stepwise.AdjustRefs(g)

		composed := req.Clone()
		composed.AdjustRefs(func(i int) int { return g(f(i)) })

		if !reflect.DeepEqual(stepwise, composed) {
			t.Errorf("%s: composition mismatch", req.Kind())
		}
	}
}

func TestAdjustRefs_RewritesOnlyRefs(t *testing.T) {
	req := &CodeRequest{BlockHash: Scalar(hashA), CodeHash: BackReference[types.Hash](4, 1)}
	req.AdjustRefs(func(i int) int { return i - 2 })
	ref, ok := req.CodeHash.Ref()
	if !ok || ref != (BackRef{Request: 2, Output: 1}) {
		t.Fatalf("unexpected ref %v", ref)
	}
	if v, _ := req.BlockHash.Value(); v != hashA {
		t.Fatalf("scalar changed: %v", req.BlockHash)
	}
}

// declared builds an OutputChecker from a batch layout where position
// pos is the request being checked.
func declared(pos int, earlier ...IncompleteRequest) OutputChecker {
	kinds := map[BackRef]OutputKind{}
	for i, req := range earlier {
		req.NoteOutputs(func(idx int, kind OutputKind) {
			kinds[BackRef{Request: i, Output: idx}] = kind
		})
	}
	return func(req, idx int, kind OutputKind) error {
		if req >= pos {
			return NewNoSuchOutput(req, idx)
		}
		if k, ok := kinds[BackRef{Request: req, Output: idx}]; !ok || k != kind {
			return NewNoSuchOutput(req, idx)
		}
		return nil
	}
}

func TestCheckOutputs(t *testing.T) {
	proof := &HeaderProofRequest{Num: Scalar(uint64(100))}

	good := &StorageRequest{
		BlockHash:   BackReference[types.Hash](0, 0),
		AddressHash: Scalar(hashB),
		KeyHash:     Scalar(hashC),
	}
	if err := good.CheckOutputs(declared(1, proof)); err != nil {
		t.Fatalf("expected valid reference: %v", err)
	}

	cases := map[string]*StorageRequest{
		"missing_index":  {BlockHash: BackReference[types.Hash](0, 1)},
		"self_reference": {BlockHash: BackReference[types.Hash](1, 0)},
		"forward":        {BlockHash: BackReference[types.Hash](5, 0)},
	}
	for name, req := range cases {
		if _, ok := IsNoSuchOutput(req.CheckOutputs(declared(1, proof))); !ok {
			t.Errorf("%s: expected NoSuchOutput", name)
		}
	}

	// Kind mismatch: a Number output cannot feed a hash field.
	txIndex := &TransactionIndexRequest{Hash: Scalar(hashA)}
	mismatch := &BodyRequest{Hash: BackReference[types.Hash](0, 0)}
	if _, ok := IsNoSuchOutput(mismatch.CheckOutputs(declared(1, txIndex))); !ok {
		t.Error("expected NoSuchOutput on kind mismatch")
	}
	// ...but it can feed a header proof.
	byNum := &HeaderProofRequest{Num: BackReference[uint64](0, 0)}
	if err := byNum.CheckOutputs(declared(1, txIndex)); err != nil {
		t.Errorf("expected Number reference to validate: %v", err)
	}
}

func TestCheckOutputs_NoRefsNeverCallsChecker(t *testing.T) {
	req := &AccountRequest{BlockHash: Scalar(hashA), AddressHash: Scalar(hashB)}
	err := req.CheckOutputs(func(int, int, OutputKind) error {
		t.Fatal("checker called for scalar fields")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestScenario_StorageFollowsHeaderProof(t *testing.T) {
	a := &HeaderProofRequest{Num: Scalar(uint64(1000))}
	b := &StorageRequest{
		BlockHash:   BackReference[types.Hash](0, 0),
		AddressHash: Scalar(hashB),
		KeyHash:     Scalar(hashC),
	}
	if err := b.CheckOutputs(declared(1, a)); err != nil {
		t.Fatalf("CheckOutputs: %v", err)
	}

	respA := HeaderProofResponse{Hash: hashA, Proof: [][]byte{{1}}}
	table := outputTable{}
	respA.FillOutputs(func(idx int, out Output) {
		table[BackRef{Request: 0, Output: idx}] = out
	})
	b.Fill(table.lookup)

	if v, ok := b.BlockHash.Value(); !ok || v != hashA {
		t.Fatalf("expected block hash %s, got %v", hashA, b.BlockHash)
	}
	c, err := b.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.(CompleteStorageRequest).BlockHash != hashA {
		t.Fatalf("unexpected complete request %+v", c)
	}
}

func TestScenario_ReferenceToUndeclaredOutput(t *testing.T) {
	a := &StorageRequest{BlockHash: Scalar(hashA), AddressHash: Scalar(hashB), KeyHash: Scalar(hashC)}
	b := &CodeRequest{BlockHash: Scalar(hashA), CodeHash: BackReference[types.Hash](0, 1)}
	if _, ok := IsNoSuchOutput(b.CheckOutputs(declared(1, a))); !ok {
		t.Fatal("expected NoSuchOutput for undeclared output index")
	}
}

// TestNoteOutputsMatchesFillOutputs checks that every response exposes
// exactly what its request kind promised.
func TestNoteOutputsMatchesFillOutputs(t *testing.T) {
	pairs := []struct {
		req  IncompleteRequest
		resp Response
	}{
		{&HeadersRequest{}, HeadersResponse{}},
		{&HeaderProofRequest{}, HeaderProofResponse{Hash: hashA}},
		{&TransactionIndexRequest{}, TransactionIndexResponse{Num: 3, Hash: hashB}},
		{&ReceiptsRequest{}, ReceiptsResponse{}},
		{&BodyRequest{}, BodyResponse{}},
		{&AccountRequest{}, AccountResponse{CodeHash: hashA, StorageRoot: hashB}},
		{&StorageRequest{}, StorageResponse{Value: hashC}},
		{&CodeRequest{}, CodeResponse{}},
	}
	for _, p := range pairs {
		if p.req.Kind() != p.resp.Kind() {
			t.Fatalf("kind mismatch %s vs %s", p.req.Kind(), p.resp.Kind())
		}
		var noted, filled []OutputKind
		p.req.NoteOutputs(func(idx int, kind OutputKind) {
			if idx != len(noted) {
				t.Errorf("%s: noted index %d out of order", p.req.Kind(), idx)
			}
			noted = append(noted, kind)
		})
		p.resp.FillOutputs(func(idx int, out Output) {
			if idx != len(filled) {
				t.Errorf("%s: filled index %d out of order", p.resp.Kind(), idx)
			}
			filled = append(filled, out.Kind())
		})
		if !reflect.DeepEqual(noted, filled) {
			t.Errorf("%s: noted %v, filled %v", p.req.Kind(), noted, filled)
		}
	}
}

func TestHeadersFill_AcceptsHashOrNumber(t *testing.T) {
	byHash := &HeadersRequest{Start: BackReference[types.HashOrNumber](0, 0)}
	byHash.Fill(func(int, int) (Output, error) { return HashOutput(hashA), nil })
	if v, _ := byHash.Start.Value(); v != types.ByHash(hashA) {
		t.Fatalf("unexpected start %v", byHash.Start)
	}

	byNum := &HeadersRequest{Start: BackReference[types.HashOrNumber](0, 0)}
	byNum.Fill(func(int, int) (Output, error) { return NumberOutput(12), nil })
	if v, _ := byNum.Start.Value(); v != types.ByNumber(12) {
		t.Fatalf("unexpected start %v", byNum.Start)
	}
}

func TestKind_String(t *testing.T) {
	if KindStorage.String() != "Storage" || Kind(99).String() != "unknown(99)" {
		t.Fatal("unexpected Kind strings")
	}
	if OutputHash.String() != "Hash" || OutputKind(0).String() != "unknown(0)" {
		t.Fatal("unexpected OutputKind strings")
	}
}
