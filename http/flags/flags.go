// Package flags defines the anomaly bit contract attached to every
// transaction. The numeric values are frozen: downstream rule engines match
// on exact bit positions, so new conditions get new bits and existing bits
// are never renumbered.
package flags

// Flags is an OR-only accumulator. Bits are set as conditions are observed
// and never cleared for the lifetime of the transaction.
type Flags uint64

const (
	FieldUnparseable Flags = 0x000000004
	FieldInvalid     Flags = 0x000000008
	FieldFolded      Flags = 0x000000010
	FieldRepeated    Flags = 0x000000020
	FieldLong        Flags = 0x000000040
	FieldRawNul      Flags = 0x000000080

	RequestSmuggling Flags = 0x000000100
	InvalidFolding   Flags = 0x000000200
	RequestInvalidTE Flags = 0x000000400
	MultiPacketHead  Flags = 0x000000800

	HostMissing   Flags = 0x000001000
	HostAmbiguous Flags = 0x000002000

	PathEncodedNul       Flags = 0x000004000
	PathRawNul           Flags = 0x000008000
	PathInvalidEncoding  Flags = 0x000010000
	PathInvalid          Flags = 0x000020000
	PathOverlongU        Flags = 0x000040000
	PathEncodedSeparator Flags = 0x000080000
	PathUTF8Valid        Flags = 0x000100000
	PathUTF8Invalid      Flags = 0x000200000
	PathUTF8Overlong     Flags = 0x000400000
	PathHalfFullRange    Flags = 0x000800000

	StatusLineInvalid Flags = 0x001000000

	// HostUInvalid marks a malformed authority inside the request URI,
	// HostHInvalid a malformed Host header. HostInvalid is always exactly
	// their union and is never set on its own.
	HostUInvalid Flags = 0x002000000
	HostHInvalid Flags = 0x004000000
	HostInvalid        = HostUInvalid | HostHInvalid

	UrlenEncodedNul      Flags = 0x008000000
	UrlenInvalidEncoding Flags = 0x010000000
	UrlenOverlongU       Flags = 0x020000000
	UrlenHalfFullRange   Flags = 0x040000000
	UrlenRawNul          Flags = 0x080000000

	RequestInvalid   Flags = 0x100000000
	RequestInvalidCL Flags = 0x200000000
	AuthInvalid      Flags = 0x400000000
)

// Connection-level flags, kept separate from the per-transaction set.
const (
	Pipelined   Flags = 0x1
	HTTP09Extra Flags = 0x2
)

// Set returns f with the given bits raised.
func (f Flags) Set(bits Flags) Flags {
	return f | bits
}

// Has reports whether all given bits are raised.
func (f Flags) Has(bits Flags) bool {
	return f&bits == bits
}

// Any reports whether at least one of the given bits is raised.
func (f Flags) Any(bits Flags) bool {
	return f&bits != 0
}
