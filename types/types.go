// Package types defines the plain data types shared by light
// protocol requests, responses, providers and transports.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

import (
	"encoding/hex"
	"math/big"
	"strconv"
)

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// String returns the 0x-prefixed hex encoding of the hash.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether every byte of the hash is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// HexToHash decodes a hex string, with or without 0x prefix, into a Hash.
// Short inputs are left-padded.
func HexToHash(s string) (Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	if len(b) > len(h) {
		b = b[len(b)-len(h):]
	}
	copy(h[len(h)-len(b):], b)
	return h, nil
}

// U256 is a 256-bit unsigned integer stored big-endian.
// Used for total difficulty, nonces and balances.
type U256 [32]byte

// U256FromUint64 converts n to a U256.
func U256FromUint64(n uint64) U256 {
	return U256FromBig(new(big.Int).SetUint64(n))
}

// U256FromBig converts a non-negative big.Int to a U256, keeping
// the low 256 bits.
func U256FromBig(n *big.Int) U256 {
	var u U256
	b := n.Bytes()
	if len(b) > len(u) {
		b = b[len(b)-len(u):]
	}
	copy(u[len(u)-len(b):], b)
	return u
}

// Big returns the value as a big.Int.
func (u U256) Big() *big.Int {
	return new(big.Int).SetBytes(u[:])
}

// String returns the decimal representation.
func (u U256) String() string { return u.Big().String() }

// HashOrNumber identifies a block either by hash or by number.
type HashOrNumber struct {
	Hash   Hash   `cramberry:"1"`
	Number uint64 `cramberry:"2"`
	ByHash bool   `cramberry:"3"`
}

// ByHash returns a HashOrNumber referring to the block with hash h.
func ByHash(h Hash) HashOrNumber {
	return HashOrNumber{Hash: h, ByHash: true}
}

// ByNumber returns a HashOrNumber referring to the canonical block n.
func ByNumber(n uint64) HashOrNumber {
	return HashOrNumber{Number: n}
}

func (hn HashOrNumber) String() string {
	if hn.ByHash {
		return hn.Hash.String()
	}
	return strconv.FormatUint(hn.Number, 10)
}
