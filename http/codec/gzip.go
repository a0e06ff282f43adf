package codec

import (
	"github.com/klauspost/compress/gzip"
)

// NewGZIP returns the codec for the "gzip" coding. Concatenated members
// are inflated transparently, as the reader is multistream by default.
func NewGZIP() Codec {
	return newBaseCodec("gzip", func() Decompressor {
		return newBaseInstance(new(gzip.Reader), genericResetter)
	})
}
