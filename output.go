package lightreq

import (
	"fmt"

	"github.com/blockberries/lightreq/types"
)

// OutputKind is the declared shape of a value a response exposes to
// later requests in the same batch. It is only used to check that
// back-references are compatible before anything is sent.
type OutputKind uint8

const (
	// OutputHash is a 32-byte hash.
	OutputHash OutputKind = iota + 1
	// OutputNumber is an unsigned 64-bit number.
	OutputNumber
)

func (k OutputKind) String() string {
	switch k {
	case OutputHash:
		return "Hash"
	case OutputNumber:
		return "Number"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Output is a resolved value exposed by a response. The zero Output
// has no kind and matches nothing.
type Output struct {
	kind   OutputKind
	hash   types.Hash
	number uint64
}

// HashOutput wraps a hash as an Output.
func HashOutput(h types.Hash) Output {
	return Output{kind: OutputHash, hash: h}
}

// NumberOutput wraps a number as an Output.
func NumberOutput(n uint64) Output {
	return Output{kind: OutputNumber, number: n}
}

// Kind returns the variant of the output.
func (o Output) Kind() OutputKind { return o.kind }

// Hash returns the hash payload if the output is a Hash.
func (o Output) Hash() (types.Hash, bool) {
	return o.hash, o.kind == OutputHash
}

// Number returns the number payload if the output is a Number.
func (o Output) Number() (uint64, bool) {
	return o.number, o.kind == OutputNumber
}

func (o Output) String() string {
	switch o.kind {
	case OutputHash:
		return "Hash(" + o.hash.String() + ")"
	case OutputNumber:
		return fmt.Sprintf("Number(%d)", o.number)
	default:
		return "Output(none)"
	}
}

// hashOf, numberOf and hashOrNumberOf extract a field value of the
// matching scalar type from an output.

func hashOf(o Output) (types.Hash, bool) { return o.Hash() }

func numberOf(o Output) (uint64, bool) { return o.Number() }

func hashOrNumberOf(o Output) (types.HashOrNumber, bool) {
	if h, ok := o.Hash(); ok {
		return types.ByHash(h), true
	}
	if n, ok := o.Number(); ok {
		return types.ByNumber(n), true
	}
	return types.HashOrNumber{}, false
}
