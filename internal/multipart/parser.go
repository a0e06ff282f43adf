// Package multipart takes multipart/form-data bodies apart incrementally.
// Data arrives in arbitrary slices; boundaries are recognized through
// longest-prefix matching against the delimiter, so a part is never
// buffered just to find its end. Whatever was parsed before a truncation
// is kept and reported alongside the Incomplete flag.
package multipart

import (
	"bytes"

	"github.com/indigo-web/utils/strcomp"
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/headers"
	"github.com/wireparse/wireparse/internal/normalize"
)

type PartType uint8

const (
	Unknown PartType = iota
	Text
	File
	Preamble
	Epilogue
)

var partTypes = [...]string{"unknown", "text", "file", "preamble", "epilogue"}

func (t PartType) String() string {
	if int(t) >= len(partTypes) {
		return partTypes[Unknown]
	}

	return partTypes[t]
}

// Part is one piece of a multipart body. Text parts carry their content in
// Value; file parts capture content there only when extraction is enabled,
// and never beyond the configured limit. Size always counts every byte.
type Part struct {
	Type PartType
	// Name is the form field name from Content-Disposition.
	Name string
	// Filename is the client-reported file name, empty for non-files.
	Filename string
	// ContentType is the raw part Content-Type value, empty when absent.
	ContentType string
	// Headers holds the part's own header fields.
	Headers *headers.Headers
	Value   []byte
	Size    int64
}

type state uint8

const (
	statePreamble state = iota + 1
	stateHeaders
	stateBody
	stateTail
	stateEpilogue
)

type tailState uint8

const (
	tailDash1 tailState = iota + 1
	tailDash2
	tailLWS
	tailCR
)

// part headers longer than this cannot come from a legitimate client
const partHeadersLimit = 32 * 1024

// Parser is the streaming multipart machine. All resumption state lives
// in the struct, so feeding a body split at any byte yields the same parts
// and flags as feeding it whole.
type Parser struct {
	cfg   *config.Multipart
	delim []byte
	fl    Flags
	parts []*Part
	state state

	current *Part

	headerAcc  []byte
	headerLine int

	// candidate holds bytes provisionally matched against the delimiter;
	// they become ordinary content the moment the match fails
	candidate []byte
	matchPos  int

	tail struct {
		state tailState
		last  bool
	}
}

// New builds a parser for one body. fl carries whatever FindBoundary
// already observed about the boundary declaration.
func New(cfg *config.Multipart, boundary string, fl Flags) *Parser {
	p := &Parser{
		cfg:     cfg,
		delim:   append([]byte("\r\n--"), boundary...),
		fl:      fl,
		state:   statePreamble,
		current: &Part{Type: Preamble},
	}
	p.lineStart()

	return p
}

// Feed consumes the next slice of the body.
func (p *Parser) Feed(data []byte) {
	for len(data) > 0 {
		if p.state == stateTail {
			p.tailByte(data[0])
			data = data[1:]
			continue
		}

		if p.matchPos == 0 && p.state != stateHeaders {
			// bulk-copy content up to the next possible delimiter start
			run := eolStart(data)
			if run != 0 {
				if run == -1 {
					run = len(data)
				}

				p.appendChunk(data[:run])
				data = data[run:]
				continue
			}
		}

		p.matchByte(data[0])
		data = data[1:]
	}
}

// Finalize ends the body. Held delimiter candidates become content, an
// unterminated part is closed as-is, and a body that never reached its
// closing boundary is flagged Incomplete.
func (p *Parser) Finalize() {
	if p.state != stateTail {
		p.flushCandidate()

		if p.state == stateHeaders {
			p.fl |= PartInvalid
			p.endHeaders()
		}

		p.closeCurrent()
	}

	if !p.fl.Has(SeenLastBoundary) {
		p.fl |= Incomplete
	}
}

// Parts returns every part recognized so far, parse order preserved.
func (p *Parser) Parts() []*Part {
	return p.parts
}

func (p *Parser) Flags() Flags {
	return p.fl
}

func (p *Parser) matchByte(c byte) {
	switch {
	case p.matchPos == 0:
		switch c {
		case '\r':
			p.hold(c, 1)
		case '\n':
			p.hold(c, 2)
		default:
			p.sinkByte(c)
		}
	case p.matchPos == 1:
		if c == '\n' {
			p.hold(c, 2)
		} else {
			p.mismatch(c)
		}
	case c == p.delim[p.matchPos]:
		p.hold(c, p.matchPos+1)
		if p.matchPos == len(p.delim) {
			p.boundary()
		}
	default:
		p.mismatch(c)
	}
}

func (p *Parser) hold(c byte, next int) {
	p.candidate = append(p.candidate, c)
	p.matchPos = next
}

func (p *Parser) mismatch(c byte) {
	p.flushCandidate()
	p.matchByte(c)
}

func (p *Parser) flushCandidate() {
	held := p.candidate
	p.matchPos = 0
	p.candidate = p.candidate[:0]

	for i := 0; i < len(held); i++ {
		if p.state == stateHeaders {
			p.headerByte(held[i])
			continue
		}

		p.appendChunk(held[i:])
		break
	}
}

// lineStart primes the matcher as if a line break was just consumed, so a
// delimiter may begin immediately. Used at the very start of the body and
// after every boundary line.
func (p *Parser) lineStart() {
	p.candidate = p.candidate[:0]
	p.matchPos = 2
}

func (p *Parser) boundary() {
	if p.state == stateHeaders {
		// a delimiter inside the header block: unless its line break was
		// the blank line that ends headers, the part is malformed
		cleanBreak := p.headerLine == len(p.headerAcc) &&
			len(p.candidate) > 0 && (p.candidate[0] == '\r' || p.candidate[0] == '\n')
		if !cleanBreak {
			p.fl |= PartInvalid
		}

		p.endHeaders()
	}

	p.closeCurrent()
	p.candidate = p.candidate[:0]
	p.matchPos = 0
	p.state = stateTail
	p.tail.state = tailDash1
	p.tail.last = false
}

func (p *Parser) tailByte(c byte) {
	switch p.tail.state {
	case tailDash1:
		if c == '-' {
			p.tail.state = tailDash2
			return
		}

		p.tail.state = tailLWS
		p.tailByte(c)
	case tailDash2:
		if c == '-' {
			p.tail.last = true
			p.fl |= SeenLastBoundary
			p.tail.state = tailLWS
			return
		}

		p.tail.state = tailLWS
		p.tailByte(c)
	case tailLWS:
		switch c {
		case '\r':
			p.tail.state = tailCR
		case '\n':
			p.fl |= LFLine
			p.openNext()
		case ' ', '\t':
			p.fl |= LWSAfterBoundary
		default:
			p.fl |= NonLWSAfterBoundary
		}
	case tailCR:
		if c == '\n' {
			p.fl |= CRLFLine
			p.openNext()
			return
		}

		p.fl |= NonLWSAfterBoundary
		p.tail.state = tailLWS
		p.tailByte(c)
	}
}

func (p *Parser) openNext() {
	if p.tail.last {
		p.state = stateEpilogue
		p.current = &Part{Type: Epilogue}
	} else {
		if p.fl.Has(SeenLastBoundary) {
			p.fl |= PartAfterLastBoundary
		}

		p.state = stateHeaders
		p.current = &Part{}
		p.headerAcc = p.headerAcc[:0]
		p.headerLine = 0
	}

	p.lineStart()
}

func (p *Parser) closeCurrent() {
	part := p.current
	p.current = nil

	switch p.state {
	case statePreamble:
		if part.Size > 0 {
			p.fl |= HasPreamble
			p.parts = append(p.parts, part)
		}
	case stateEpilogue:
		if part.Size > 0 {
			p.fl |= HasEpilogue
			p.parts = append(p.parts, part)
		}
	default:
		p.parts = append(p.parts, part)
	}
}

func (p *Parser) headerByte(c byte) {
	p.headerAcc = append(p.headerAcc, c)

	if len(p.headerAcc) > partHeadersLimit {
		p.fl |= PartInvalid
		p.endHeaders()

		return
	}

	if c != '\n' {
		return
	}

	line := p.headerAcc[p.headerLine:]
	p.headerLine = len(p.headerAcc)

	if normalize.IsLineEmpty(line) {
		p.endHeaders()
	}
}

// endHeaders parses the accumulated header block, classifies the part and
// moves on to its content.
func (p *Parser) endHeaders() {
	part := p.current
	part.Headers = p.parseHeaders()
	p.headerAcc = p.headerAcc[:0]
	p.headerLine = 0
	p.state = stateBody
	p.lineStart()

	cd := part.Headers.Value("Content-Disposition")
	if cd == "" {
		part.Type = Unknown
		p.fl |= PartUnknown
	} else {
		if !strcomp.EqualFold(headers.ValueOf(cd), "form-data") {
			p.fl |= PartInvalid
		}

		part.Name = headers.ParamOf(cd, "name", "")
		part.Filename = headers.ParamOf(cd, "filename", "")

		switch {
		case part.Filename != "":
			part.Type = File
		case part.Name != "":
			part.Type = Text
		default:
			part.Type = Unknown
			p.fl |= PartInvalid
		}
	}

	part.ContentType = part.Headers.Value("Content-Type")
}

func (p *Parser) parseHeaders() *headers.Headers {
	type field struct {
		name, value string
	}

	var fields []field
	acc := p.headerAcc

	for len(acc) > 0 {
		var line []byte
		if nl := bytes.IndexByte(acc, '\n'); nl == -1 {
			line, acc = acc, nil
		} else {
			line, acc = acc[:nl], acc[nl+1:]
		}

		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}

		if len(line) == 0 {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			p.fl |= PartHeaderFolding
			if len(fields) == 0 {
				p.fl |= PartInvalid
				continue
			}

			fields[len(fields)-1].value += " " + string(bytes.Trim(line, " \t"))
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			p.fl |= PartInvalid
			continue
		}

		fields = append(fields, field{
			name:  string(bytes.TrimRight(line[:colon], " \t")),
			value: string(bytes.TrimLeft(line[colon+1:], " \t")),
		})
	}

	hdrs := headers.NewPrealloc(len(fields))
	for _, f := range fields {
		hdrs.Add(headers.Header{Name: f.name, Value: f.value})
	}

	return hdrs
}

func (p *Parser) sinkByte(c byte) {
	if p.state == stateHeaders {
		p.headerByte(c)
		return
	}

	part := p.current
	part.Size++

	switch part.Type {
	case Unknown:
	case File:
		if p.cfg.ExtractFiles && int64(len(part.Value)) < p.cfg.FileSizeLimit {
			part.Value = append(part.Value, c)
		}
	default:
		part.Value = append(part.Value, c)
	}
}

func (p *Parser) appendChunk(chunk []byte) {
	part := p.current
	part.Size += int64(len(chunk))

	switch part.Type {
	case Unknown:
	case File:
		if p.cfg.ExtractFiles {
			if room := p.cfg.FileSizeLimit - int64(len(part.Value)); room > 0 {
				if int64(len(chunk)) > room {
					chunk = chunk[:room]
				}

				part.Value = append(part.Value, chunk...)
			}
		}
	default:
		part.Value = append(part.Value, chunk...)
	}
}

// eolStart returns the offset of the first byte that could open a
// delimiter, or -1.
func eolStart(data []byte) int {
	for i, c := range data {
		if c == '\r' || c == '\n' {
			return i
		}
	}

	return -1
}
