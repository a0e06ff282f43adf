package codec

import (
	"io"

	"github.com/wireparse/wireparse/http"
)

// Codec constructs decompressors for one content coding token.
type Codec interface {
	// Token returns the coding token associated with the codec itself.
	Token() string
	New() Decompressor
}

// Decompressor inflates a single compressed stream pulled from a Fetcher.
// Instances are reusable through Reset.
type Decompressor interface {
	http.Fetcher
	Reset(source http.Fetcher, bufferSize int) error
}

type instantiator = func() Decompressor

type baseCodec struct {
	token   string
	newInst instantiator
}

func newBaseCodec(token string, newInst instantiator) baseCodec {
	return baseCodec{
		token:   token,
		newInst: newInst,
	}
}

func (b baseCodec) Token() string {
	return b.token
}

func (b baseCodec) New() Decompressor {
	return b.newInst()
}

type decoderResetter = func(io.Reader, *readerAdapter) error

var _ Decompressor = new(baseInstance)

type baseInstance struct {
	reset   decoderResetter
	adapter *readerAdapter
	r       io.Reader
	buff    []byte
}

func newBaseInstance(decoder io.Reader, reset decoderResetter) *baseInstance {
	return &baseInstance{
		reset:   reset,
		adapter: newAdapter(),
		r:       decoder,
	}
}

func (b *baseInstance) Reset(source http.Fetcher, bufferSize int) error {
	if cap(b.buff) < bufferSize {
		b.buff = make([]byte, bufferSize)
	} else {
		b.buff = b.buff[:bufferSize]
	}

	b.adapter.Reset(source)

	return b.reset(b.r, b.adapter)
}

func (b *baseInstance) Fetch() ([]byte, error) {
	n, err := b.r.Read(b.buff)
	return b.buff[:n], err
}

func genericResetter(r io.Reader, adapter *readerAdapter) error {
	type resetter interface {
		Reset(r io.Reader) error
	}

	if reset, ok := r.(resetter); ok {
		return reset.Reset(adapter)
	}

	return nil
}
