// Package datastruct holds the ordered multi-map backing header, parameter
// and cookie storage. Iteration order always equals insertion order and key
// lookups are case-insensitive, both of which downstream inspection relies
// on: reordering or deduplicating entries would erase evidence.
package datastruct

import (
	"github.com/indigo-web/iter"
	"github.com/indigo-web/utils/strcomp"
)

type Entry[V any] struct {
	Key   string
	Value V
}

// Table is an append-only ordered multi-map. Duplicate keys are permitted
// and preserved; it is the caller's business whether duplicates mean joining
// values or flagging repetition.
type Table[V any] struct {
	entries []Entry[V]
}

func NewTable[V any](prealloc int) *Table[V] {
	return &Table[V]{
		entries: make([]Entry[V], 0, prealloc),
	}
}

func (t *Table[V]) Add(key string, value V) *Table[V] {
	t.entries = append(t.entries, Entry[V]{Key: key, Value: value})
	return t
}

// Get returns the first value stored under the key, matched case-insensitively.
func (t *Table[V]) Get(key string) (V, bool) {
	for i := range t.entries {
		if strcomp.EqualFold(t.entries[i].Key, key) {
			return t.entries[i].Value, true
		}
	}

	var zero V
	return zero, false
}

// Ref returns a pointer to the first matching entry so the caller can mutate
// it in place. The pointer is valid only until the next Add.
func (t *Table[V]) Ref(key string) *Entry[V] {
	for i := range t.entries {
		if strcomp.EqualFold(t.entries[i].Key, key) {
			return &t.entries[i]
		}
	}

	return nil
}

// RefNozero behaves like Ref but skips NUL bytes inside stored keys before
// comparing. A header smuggled as "Host\x00x" must still be found when the
// machinery looks headers up by name.
func (t *Table[V]) RefNozero(key string) *Entry[V] {
	for i := range t.entries {
		if equalFoldNozero(t.entries[i].Key, key) {
			return &t.entries[i]
		}
	}

	return nil
}

// GetNozero is the value-returning form of RefNozero.
func (t *Table[V]) GetNozero(key string) (V, bool) {
	if e := t.RefNozero(key); e != nil {
		return e.Value, true
	}

	var zero V
	return zero, false
}

// Has reports whether at least one entry matches the key.
func (t *Table[V]) Has(key string) bool {
	return t.Ref(key) != nil
}

// Values collects every value stored under the key, in insertion order.
func (t *Table[V]) Values(key string) (values []V) {
	for i := range t.entries {
		if strcomp.EqualFold(t.entries[i].Key, key) {
			values = append(values, t.entries[i].Value)
		}
	}

	return values
}

// At returns the entry at the given insertion index.
func (t *Table[V]) At(i int) Entry[V] {
	return t.entries[i]
}

func (t *Table[V]) Len() int {
	return len(t.entries)
}

// Iter returns an iterator over the entries in insertion order.
func (t *Table[V]) Iter() iter.Iterator[Entry[V]] {
	return iter.Slice(t.entries)
}

// Unwrap reveals the underlying entries. Mutating the slice structure is the
// caller's responsibility; mutating entry values in place is fine.
func (t *Table[V]) Unwrap() []Entry[V] {
	return t.entries
}

func (t *Table[V]) Clear() {
	t.entries = t.entries[:0]
}

// equalFoldNozero compares key to want case-insensitively, ignoring NUL
// bytes in key. want is assumed NUL-free.
func equalFoldNozero(key, want string) bool {
	j := 0
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			continue
		}

		if j == len(want) {
			return false
		}

		if !foldEq(key[i], want[j]) {
			return false
		}
		j++
	}

	return j == len(want)
}

func foldEq(a, b byte) bool {
	if 'A' <= a && a <= 'Z' {
		a += 'a' - 'A'
	}
	if 'A' <= b && b <= 'Z' {
		b += 'a' - 'A'
	}

	return a == b
}
