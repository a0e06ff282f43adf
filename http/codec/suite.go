package codec

import (
	"fmt"
	"io"

	"github.com/indigo-web/utils/strcomp"
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/status"
)

// Suite is the set of content codings a parser recognizes.
type Suite []Codec

// Default covers the codings observed in real response traffic.
func Default() Suite {
	return Suite{NewGZIP(), NewDeflate(), NewZSTD()}
}

// Lookup resolves a Content-Encoding token, case-insensitively and with
// the legacy "x-" prefix accepted for every coding.
func (s Suite) Lookup(token string) (Codec, bool) {
	if len(token) > 2 && (token[0] == 'x' || token[0] == 'X') && token[1] == '-' {
		token = token[2:]
	}

	for _, c := range s {
		if strcomp.EqualFold(token, c.Token()) {
			return c, true
		}
	}

	return nil, false
}

// Chain stacks decompressors over source for a Content-Encoding token
// list given in applied order, so decoding walks it right to left. The
// returned fetcher yields plaintext and enforces the configured bomb
// guards against the bytes actually consumed from source. Empty and
// "identity" tokens are skipped; an unrecognized one declines the whole
// chain with status.ErrUnknownCoding, leaving the caller to pass the
// body through untouched.
func (s Suite) Chain(
	cfg *config.Decompression, source http.Fetcher, tokens []string, bufferSize int,
) (http.Fetcher, error) {
	switch cfg.Policy {
	case config.PassthroughCompressed:
		return source, nil
	case config.RejectCompressed:
		return nil, status.ErrCodingRejected
	}

	var active []Codec
	for _, token := range tokens {
		if token == "" || strcomp.EqualFold(token, "identity") {
			continue
		}

		c, ok := s.Lookup(token)
		if !ok {
			return nil, fmt.Errorf("%w: %s", status.ErrUnknownCoding, token)
		}

		active = append(active, c)
	}

	if len(active) == 0 {
		return source, nil
	}

	if len(active) > cfg.LayerLimit {
		return nil, status.ErrCodingLayers
	}

	meter := &meteredFetcher{src: source}
	var fetcher http.Fetcher = meter

	for i := len(active) - 1; i >= 0; i-- {
		inst := active[i].New()
		if err := inst.Reset(fetcher, bufferSize); err != nil {
			return nil, fmt.Errorf("%w: %v", status.ErrMalformedCoding, err)
		}

		fetcher = inst
	}

	return &guard{src: fetcher, meter: meter, cfg: cfg}, nil
}

// meteredFetcher counts the compressed bytes flowing out of the raw
// source, giving the guard its ratio denominator.
type meteredFetcher struct {
	src http.Fetcher
	n   int64
}

func (m *meteredFetcher) Fetch() ([]byte, error) {
	data, err := m.src.Fetch()
	m.n += int64(len(data))

	return data, err
}

// guard cuts the stream off once it both exceeds the output cap and
// inflates past the produced-to-consumed ratio. Big bodies alone are not
// bombs: a legitimate download stays under the ratio however large it is.
type guard struct {
	src      http.Fetcher
	meter    *meteredFetcher
	cfg      *config.Decompression
	produced int64
}

func (g *guard) Fetch() ([]byte, error) {
	data, err := g.src.Fetch()
	g.produced += int64(len(data))

	if g.produced > g.cfg.BombLimit && g.produced > g.cfg.BombRatio*max(g.meter.n, 1) {
		return nil, status.ErrDecompressBomb
	}

	if err != nil && err != io.EOF {
		return data, fmt.Errorf("%w: %v", status.ErrMalformedCoding, err)
	}

	return data, err
}
