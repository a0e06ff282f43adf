package codec

import (
	"github.com/klauspost/compress/zstd"
)

// NewZSTD returns the codec for the "zstd" coding. Decoding runs with
// single-goroutine concurrency: instances live as long as their body and
// are never explicitly closed.
func NewZSTD() Codec {
	return newBaseCodec("zstd", func() Decompressor {
		r, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(err)
		}

		return newBaseInstance(r, genericResetter)
	})
}
