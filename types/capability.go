package types

import "strings"

// Capabilities is a bitfield declaring which groups of request
// kinds a provider can answer.
type Capabilities uint8

const (
	CapChain Capabilities = 1 << iota // 0b01: headers, header proofs, bodies, receipts, tx index
	CapState                          // 0b10: account, storage and code proofs
)

// Has returns true if all bits in cap are set.
func (c Capabilities) Has(cap Capabilities) bool {
	return c&cap == cap
}

// String returns a human-readable representation.
func (c Capabilities) String() string {
	var caps []string
	if c.Has(CapChain) {
		caps = append(caps, "Chain")
	}
	if c.Has(CapState) {
		caps = append(caps, "State")
	}
	if len(caps) == 0 {
		return "none"
	}
	return strings.Join(caps, "|")
}
