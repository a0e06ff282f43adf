package codec

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// NewDeflate returns the codec for the "deflate" coding. Servers disagree
// on what the token means, so both zlib-wrapped and raw deflate streams
// are accepted, told apart by the stream header.
func NewDeflate() Codec {
	return newBaseCodec("deflate", func() Decompressor {
		d := &deflateReader{flate: flate.NewReader(nil)}

		return newBaseInstance(d, func(r io.Reader, adapter *readerAdapter) error {
			return d.reset(adapter)
		})
	})
}

type deflateReader struct {
	peek  *bufio.Reader
	flate io.ReadCloser
	zlib  io.ReadCloser
	r     io.Reader
}

func (d *deflateReader) reset(src io.Reader) error {
	if d.peek == nil {
		d.peek = bufio.NewReader(src)
	} else {
		d.peek.Reset(src)
	}

	hdr, err := d.peek.Peek(2)
	if err == nil && isZlibHeader(hdr) {
		if d.zlib == nil {
			zr, zerr := zlib.NewReader(d.peek)
			if zerr != nil {
				return zerr
			}

			d.zlib = zr
		} else if zerr := d.zlib.(zlib.Resetter).Reset(d.peek, nil); zerr != nil {
			return zerr
		}

		d.r = d.zlib

		return nil
	}

	if rerr := d.flate.(flate.Resetter).Reset(d.peek, nil); rerr != nil {
		return rerr
	}

	d.r = d.flate

	return nil
}

func (d *deflateReader) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate method and a
// checksum divisible by 31.
func isZlibHeader(b []byte) bool {
	if len(b) < 2 || b[0]&0x0f != 8 {
		return false
	}

	return (uint(b[0])<<8|uint(b[1]))%31 == 0
}
