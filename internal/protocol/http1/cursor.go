package http1

import (
	"bytes"

	"github.com/wireparse/wireparse/internal/buffer"
)

// cursor tracks the parse position of one stream direction inside the feed
// chunk currently being processed. A token cut off at chunk end is spilled
// into a bounded buffer, so the next feed reassembles it exactly as if the
// bytes had arrived together.
type cursor struct {
	data   []byte
	pos    int
	base   int64 // stream offset of data[0]
	spill  buffer.Buffer
	closed bool
}

func newCursor(limit int) cursor {
	return cursor{spill: buffer.New(256, limit)}
}

// open points the cursor at the next feed chunk.
func (c *cursor) open(data []byte) {
	c.data = data
	c.pos = 0
}

// leave accounts the consumed prefix and drops the reference to the
// caller's buffer. Returns how many bytes of the chunk were consumed.
func (c *cursor) leave() int {
	consumed := c.pos
	c.base += int64(c.pos)
	c.data = nil
	c.pos = 0
	return consumed
}

// off is the absolute stream offset of the next unread byte.
func (c *cursor) off() int64 {
	return c.base + int64(c.pos)
}

// pending reports whether any unread byte exists, spilled bytes included.
func (c *cursor) pending() bool {
	return c.pos < len(c.data) || !c.spill.Empty()
}

// scanRawLine consumes through the next LF and returns the whole line,
// terminator included. Bytes put back via unread are served first. Without
// an LF in sight the tail is spilled and errNeedData comes back; on a closed
// stream whatever is pending forms the final line instead, and errNeedData
// then means the direction is fully drained.
func (c *cursor) scanRawLine() ([]byte, error) {
	if !c.spill.Empty() {
		if i := bytes.IndexByte(c.spill.Bytes(), '\n'); i >= 0 {
			// a complete line can sit in the spill only through unread,
			// which never leaves bytes past the LF
			return c.spill.Bytes()[:i+1], nil
		}
	}

	if i := bytes.IndexByte(c.data[c.pos:], '\n'); i >= 0 {
		end := c.pos + i + 1
		line, ok := c.spill.Merge(c.data[c.pos:end])
		if !ok {
			return nil, errSpillOver
		}
		c.pos = end

		return line, nil
	}

	if c.closed {
		if !c.pending() {
			return nil, errNeedData
		}

		line, ok := c.spill.Merge(c.data[c.pos:])
		if !ok {
			return nil, errSpillOver
		}
		c.pos = len(c.data)

		return line, nil
	}

	if !c.spill.Append(c.data[c.pos:]) {
		return nil, errSpillOver
	}
	c.pos = len(c.data)

	return nil, errNeedData
}

// clearLine drops the spilled bytes of the line just processed. Every
// completed scan must be followed by either clearLine or unread.
func (c *cursor) clearLine() {
	c.spill.Clear()
}

// unread puts the just-scanned line back so the next scan or drain sees it
// again. A line carrying a spilled prefix already lives in the spill buffer
// in full, so leaving the spill uncleared is enough; otherwise the position
// is rewound over the line's bytes in the current chunk.
func (c *cursor) unread(line []byte) {
	if c.spill.Empty() {
		c.pos -= len(line)
	}
}

// drain consumes everything pending and returns it as up to two spans,
// spilled bytes first. The spans stay valid until the next cursor call.
func (c *cursor) drain() (spilled, fresh []byte) {
	spilled = c.spill.Bytes()
	c.spill.Clear()
	fresh = c.data[c.pos:]
	c.pos = len(c.data)

	return spilled, fresh
}

// peek returns the next unread byte without consuming it.
func (c *cursor) peek() (byte, bool) {
	if !c.spill.Empty() {
		return c.spill.Bytes()[0], true
	}
	if c.pos < len(c.data) {
		return c.data[c.pos], true
	}

	return 0, false
}

// peekPending returns a copy of every unread byte, consuming nothing.
func (c *cursor) peekPending() []byte {
	out := append([]byte(nil), c.spill.Bytes()...)

	return append(out, c.data[c.pos:]...)
}

// take consumes up to n bytes from the current chunk and returns them.
// Body states run with an empty spill, so the chunk is the only source.
func (c *cursor) take(n int64) []byte {
	if avail := int64(len(c.data) - c.pos); n > avail {
		n = avail
	}

	out := c.data[c.pos : c.pos+int(n)]
	c.pos += int(n)

	return out
}
