package urlencoded

import (
	"bytes"

	"github.com/indigo-web/utils/uf"
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/form"
	"github.com/wireparse/wireparse/internal/normalize"
)

type CB = func(name, value string)

// Into appends every reported parameter to params under the given source.
func Into(params *form.Params, source form.Source) CB {
	return func(name, value string) {
		*params = append(*params, form.Param{Name: name, Value: value, Source: source})
	}
}

// Parser reassembles an application/x-www-form-urlencoded stream fed in
// arbitrary slices. Pieces are split at ampersands; a piece without an
// equals sign becomes a parameter with an empty value, and empty pieces
// are dropped. Name and value are decoded under the given profile.
type Parser struct {
	enc     *config.Encoding
	fl      *flags.Flags
	cb      CB
	pending []byte
	fed     bool
	emitted bool
}

func New(enc *config.Encoding, fl *flags.Flags, cb CB) *Parser {
	return &Parser{enc: enc, fl: fl, cb: cb}
}

// Feed consumes the next slice of the stream. Completed pieces are
// reported immediately; the unterminated tail is buffered until more data
// or Finalize arrives.
func (p *Parser) Feed(data []byte) {
	if len(data) == 0 {
		return
	}

	p.fed = true

	for {
		amp := bytes.IndexByte(data, '&')
		if amp == -1 {
			break
		}

		p.flush(data[:amp])
		data = data[amp+1:]
	}

	p.pending = append(p.pending, data...)
}

// Finalize reports the trailing piece. A stream that carried data yet
// produced no parameters reports a single fully-empty one, keeping
// degenerate inputs like a lone ampersand visible to inspection.
func (p *Parser) Finalize() {
	p.flush(nil)

	if p.fed && !p.emitted {
		p.cb("", "")
	}
}

func (p *Parser) flush(tail []byte) {
	piece := tail
	if len(p.pending) > 0 {
		piece = append(p.pending, tail...)
	}

	p.report(piece)
	p.pending = p.pending[:0]
}

func (p *Parser) report(piece []byte) {
	if len(piece) == 0 {
		return
	}

	name, value := uf.B2S(piece), ""
	if eq := bytes.IndexByte(piece, '='); eq != -1 {
		name, value = uf.B2S(piece[:eq]), uf.B2S(piece[eq+1:])
	}

	p.emitted = true
	p.cb(normalize.Component(p.enc, name, p.fl), normalize.Component(p.enc, value, p.fl))
}
