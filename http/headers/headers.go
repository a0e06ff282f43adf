package headers

import (
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/internal/datastruct"
)

// Header is a single parsed header field. Name and Value hold the trimmed
// wire form; Raw keeps the source line as it appeared on the wire, folding
// included, so anomalies stay reconstructible after normalization.
type Header struct {
	Name  string
	Value string
	Raw   string
	Flags flags.Flags
}

// Headers is the ordered field table of a single message. Lookups are
// case-insensitive; duplicate names are permitted and kept in insertion
// order. Whether a duplicate means joining values or flagging repetition is
// decided by the parser, not here.
type Headers struct {
	*datastruct.Table[Header]
}

func New() *Headers {
	return NewPrealloc(8)
}

// NewPrealloc returns Headers with room for n fields pre-allocated.
func NewPrealloc(n int) *Headers {
	return &Headers{datastruct.NewTable[Header](n)}
}

// Add appends a field, keyed by its name.
func (h *Headers) Add(header Header) *Headers {
	h.Table.Add(header.Name, header)
	return h
}

// Value returns the first value stored under the key, or an empty string.
func (h *Headers) Value(key string) string {
	return h.ValueOr(key, "")
}

// ValueOr returns either the first value stored under the key or the
// fallback passed via the second parameter.
func (h *Headers) ValueOr(key, or string) string {
	if header, found := h.Table.Get(key); found {
		return header.Value
	}

	return or
}

// Values collects all values stored under the key, in insertion order.
// Returns nil if the key isn't present.
func (h *Headers) Values(key string) (values []string) {
	for _, entry := range h.Table.Values(key) {
		values = append(values, entry.Value)
	}

	return values
}

// Ref returns a pointer to the first field matching the name so the caller
// can mutate it in place. The pointer is valid only until the next Add.
func (h *Headers) Ref(key string) *Header {
	if entry := h.Table.Ref(key); entry != nil {
		return &entry.Value
	}

	return nil
}

// RefNozero behaves like Ref but ignores NUL bytes inside stored names.
// A field smuggled in as "Host\x00x" must still be found by "Host" lookups,
// as that is how permissive servers will see it.
func (h *Headers) RefNozero(key string) *Header {
	if entry := h.Table.RefNozero(key); entry != nil {
		return &entry.Value
	}

	return nil
}

// GetNozero is the value-returning form of RefNozero.
func (h *Headers) GetNozero(key string) (Header, bool) {
	if ref := h.RefNozero(key); ref != nil {
		return *ref, true
	}

	return Header{}, false
}
