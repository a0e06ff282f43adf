// Package buffer implements the bounded spill buffer that carries a partial
// protocol token (request line, header line, chunk-size line) across feed
// boundaries. The limit is the defense against a peer that streams an
// endless line one byte at a time.
package buffer

type Buffer struct {
	memory  []byte
	maxSize int
}

func New(initialSize, maxSize int) Buffer {
	return Buffer{
		memory:  make([]byte, 0, initialSize),
		maxSize: maxSize,
	}
}

// Append spills data, reporting false when the total would exceed the limit.
// On refusal the buffer keeps its previous content.
func (b *Buffer) Append(data []byte) (ok bool) {
	if len(b.memory)+len(data) > b.maxSize {
		return false
	}

	b.memory = append(b.memory, data...)
	return true
}

// Merge prepends the spilled bytes to tail, producing the consolidated
// logical unit. The result aliases the internal storage when a spill exists,
// so it must be consumed before the next Append.
func (b *Buffer) Merge(tail []byte) ([]byte, bool) {
	if len(b.memory) == 0 {
		return tail, true
	}

	if !b.Append(tail) {
		return nil, false
	}

	return b.memory, true
}

func (b *Buffer) Bytes() []byte {
	return b.memory
}

func (b *Buffer) Len() int {
	return len(b.memory)
}

func (b *Buffer) Empty() bool {
	return len(b.memory) == 0
}

// Clear resets the length, keeping the allocation for reuse.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}
