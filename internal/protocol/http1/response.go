package http1

import (
	"bytes"

	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/proto"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/internal/hexconv"
	"github.com/wireparse/wireparse/internal/normalize"
	"github.com/wireparse/wireparse/journal"
)

type resState uint8

const (
	eResIdle resState = iota
	eResLine
	eResHeaders
	eResBodyDetermine
	eResBodyCL
	eResStreamClose
	eResChunkLen
	eResChunkData
	eResChunkEnd
	eResFinalize
)

// responseMachine parses the server-to-client half of a connection. It
// pairs each response with the oldest request still waiting for one;
// framing decisions therefore read request-side fields of the shared
// transaction.
type responseMachine struct {
	cursor

	d     *Dissector
	state resState
	tx    *http.Transaction

	fields fieldBlock

	chunkCount int64
	txStart    int64

	bodyLeft  int64
	chunkLeft int64

	// spool accumulates a compressed body for one-shot decoding at end of
	// message; overflow switches the remainder to raw delivery.
	spool    []byte
	overflow bool

	// absorbCR glues a CR left over from a bare-LF line ending onto that
	// line; ateCR remembers it happened for the current scan.
	absorbCR  bool
	ateCR     bool
	warnedEOL bool

	// dataOtherAtTxEnd defers the failed-CONNECT verdict until the
	// response finishes, so its body is still parsed.
	dataOtherAtTxEnd bool
}

func (m *responseMachine) init(d *Dissector) {
	m.d = d
	m.cursor = newCursor(d.cfg.Fields.HardLimit)
	m.fields = newFieldBlock(status.DirResponse, d.cfg, d.conn.Journal)
}

// resetTx clears per-transaction scratch state.
func (m *responseMachine) resetTx() {
	m.txStart = 0
	m.bodyLeft = 0
	m.chunkLeft = 0
	m.spool = nil
	m.overflow = false
	m.absorbCR = false
	m.ateCR = false
	m.warnedEOL = false
	m.dataOtherAtTxEnd = false
}

func (m *responseMachine) warn(code journal.Code, msg string) {
	m.d.j.Warn(status.DirResponse, code, m.off(), msg)
}

func (m *responseMachine) dispatch() error {
	err := m.step()
	if err == errSpillOver {
		return m.d.overLimit(status.DirResponse, &m.cursor)
	}

	return err
}

func (m *responseMachine) step() error {
	switch m.state {
	case eResIdle:
		return m.idle()
	case eResLine:
		return m.line()
	case eResHeaders:
		return m.headers()
	case eResBodyDetermine:
		return m.bodyDetermine()
	case eResBodyCL:
		return m.bodyCL()
	case eResStreamClose:
		return m.streamClose()
	case eResChunkLen:
		return m.chunkLen()
	case eResChunkData:
		return m.chunkData()
	case eResChunkEnd:
		return m.chunkEnd()
	default:
		return m.finalize()
	}
}

func (m *responseMachine) idle() error {
	if !m.pending() {
		return errNeedData
	}

	// state first, hook last, so a pause verdict resumes past the bind
	m.tx = m.d.bindResponseTx()
	m.txStart = m.chunkCount

	if m.tx.ProtocolAbsent {
		// a 0.9 exchange has no status line; everything is body
		m.tx.ResponseTransfer = http.TransferIdentity
		m.tx.ResponseProgress = http.PhaseBody
		m.bodyLeft = -1
		m.state = eResStreamClose
	} else {
		m.state = eResLine
		m.tx.ResponseProgress = http.PhaseLine
	}

	return verdict(m.d.hooks.OnResponseStart(m.tx))
}

func (m *responseMachine) line() error {
	for {
		if m.closed && !m.pending() {
			// the server closed without a byte: an empty identity body
			m.tx.ResponseTransfer = http.TransferIdentity
			m.tx.ResponseProgress = http.PhaseBody
			m.state = eResFinalize

			return nil
		}

		line, err := m.scanLine()
		if err != nil {
			return err
		}

		if lineTerminator(m.d.cfg.Personality, line) {
			// stray newlines before the status line
			m.clearLine()
			if m.closed {
				m.state = eResFinalize

				return nil
			}

			continue
		}

		if normalize.TreatResponseLineAsBody(line) {
			// not a status line; the server is leaking body bytes
			err := m.resBodyData(line)
			m.clearLine()
			if err != nil {
				return err
			}

			if m.pos >= len(m.data) {
				m.tx.ResponseTransfer = http.TransferIdentity
				m.tx.ResponseProgress = http.PhaseBody
				m.state = eResFinalize

				return nil
			}

			continue
		}

		chomped := normalize.Chomp(string(line))
		m.tx.ResponseLine = chomped
		m.parseResponseLine(chomped)
		m.clearLine()

		m.state = eResHeaders
		m.tx.ResponseProgress = http.PhaseHeaders
		m.fields.begin(m.tx, m.tx.ResponseHeaders)

		return verdict(m.d.hooks.OnResponseLine(m.tx))
	}
}

// parseResponseLine splits a status line into protocol, status code and
// message. The split is forgiving so every token lands somewhere;
// validation afterwards flags what the split could not make sense of.
func (m *responseMachine) parseResponseLine(line string) {
	tx := m.tx
	tx.ResponseProtocol = proto.Invalid
	tx.Status = 0
	tx.ResponseMessage = ""

	m.splitResponseLine(line)

	if tx.ResponseProtocol == proto.Invalid {
		m.warn(journal.CodeInvalidProtocol, "Invalid response line: invalid protocol")
		tx.Flags = tx.Flags.Set(flags.StatusLineInvalid)
	}

	if tx.Status < 100 || tx.Status > 999 {
		m.warn(journal.CodeInvalidStatus, "Invalid response line: invalid response status")
		tx.Status = 0
		tx.Flags = tx.Flags.Set(flags.StatusLineInvalid)
	}
}

func (m *responseMachine) splitResponseLine(line string) {
	tx := m.tx

	pos := 0
	for pos < len(line) && normalize.IsSpace(line[pos]) {
		pos++
	}

	start := pos
	for pos < len(line) && !normalize.IsSpace(line[pos]) {
		pos++
	}
	if start == pos {
		return
	}
	tx.ResponseProtocol = proto.Parse([]byte(line[start:pos]))

	for pos < len(line) && normalize.IsSpace(line[pos]) {
		pos++
	}

	start = pos
	for pos < len(line) && !normalize.IsSpace(line[pos]) {
		pos++
	}
	if start == pos {
		return
	}
	tx.Status = parseStatusCode(line[start:pos])

	for pos < len(line) && normalize.IsSpace(line[pos]) {
		pos++
	}
	tx.ResponseMessage = line[pos:]
}

// parseStatusCode reads a strictly decimal status token; anything else,
// including trailing junk, yields zero.
func parseStatusCode(token string) status.Code {
	n := 0
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c < '0' || c > '9' {
			return 0
		}

		n = n*10 + int(c-'0')
		if n > 999 {
			return 0
		}
	}

	return status.Code(n)
}

func (m *responseMachine) headers() error {
	for {
		if m.closed && !m.pending() {
			// stream ended inside the block; a header cut mid-line is
			// lost with it
			m.clearLine()
			m.state = eResFinalize
			if m.tx.ResponseProgress == http.PhaseTrailer {
				return verdict(m.d.hooks.OnResponseTrailers(m.tx))
			}

			return nil
		}

		line, err := m.scanLine()
		if err != nil {
			return err
		}

		if lineTerminator(m.d.cfg.Personality, line) {
			err := m.fields.terminator(m.off())
			m.clearLine()
			m.absorbCR = false
			if err != nil {
				return err
			}

			if m.tx.ResponseProgress == http.PhaseTrailer {
				m.state = eResFinalize

				return verdict(m.d.hooks.OnResponseTrailers(m.tx))
			}

			m.state = eResBodyDetermine

			return nil
		}

		err = m.fields.line(normalize.Chomp(string(line)), m.off())
		m.clearLine()
		if err != nil {
			return err
		}
	}
}

func (m *responseMachine) bodyCL() error {
	if m.closed && !m.pending() {
		// server slammed the connection before the declared length
		m.state = eResFinalize

		return nil
	}

	data := m.take(m.bodyLeft)
	if len(data) == 0 {
		return errNeedData
	}

	// account before delivering: a pause verdict must not replay the span
	m.bodyLeft -= int64(len(data))
	if m.bodyLeft == 0 {
		m.state = eResFinalize
	}

	return m.resBodyData(data)
}

// streamClose reads an unbounded identity body: everything until the
// stream ends belongs to it. Spilled and fresh bytes go out as one span so
// a pause verdict cannot lose the second half.
func (m *responseMachine) streamClose() error {
	spilled, fresh := m.drain()
	span := spilled
	switch {
	case len(span) == 0:
		span = fresh
	case len(fresh) > 0:
		span = append(append([]byte(nil), spilled...), fresh...)
	}

	if len(span) > 0 {
		if err := m.resBodyData(span); err != nil {
			return err
		}
	}

	if m.closed {
		m.state = eResFinalize

		return nil
	}

	return errNeedData
}

func (m *responseMachine) chunkLen() error {
	if m.closed && !m.pending() {
		m.state = eResFinalize

		return nil
	}

	line, err := m.scanChunkLine()
	if err != nil {
		return err
	}

	n, empty, ok := normalize.ParseChunkedLength(normalize.Chomp(string(line)))
	if !ok {
		// not a chunk size at all: back out of chunked framing and read
		// the remainder as an identity body instead of going blind
		m.unread(line)
		m.tx.ResponseTransfer = http.TransferIdentity
		m.bodyLeft = -1
		m.state = eResStreamClose
		m.d.j.Err(status.DirResponse, journal.CodeInvalidChunkSize, m.off(),
			"Response chunk encoding: invalid chunk length")

		return nil
	}

	m.tx.ResponseBodyLen += int64(len(line))
	m.clearLine()

	switch {
	case empty:
		// stray CRLF between chunks
	case n == 0:
		m.state = eResHeaders
		m.tx.ResponseProgress = http.PhaseTrailer
		m.tx.ResponseTrailer = true
		m.absorbCR = false
		m.fields.begin(m.tx, m.tx.ResponseHeaders)
	default:
		m.chunkLeft = n
		m.state = eResChunkData
	}

	return nil
}

func (m *responseMachine) chunkData() error {
	if m.closed && !m.pending() {
		m.state = eResFinalize

		return nil
	}

	data := m.take(m.chunkLeft)
	if len(data) == 0 {
		return errNeedData
	}

	m.chunkLeft -= int64(len(data))
	if m.chunkLeft == 0 {
		m.state = eResChunkEnd
	}

	return m.resBodyData(data)
}

func (m *responseMachine) chunkEnd() error {
	if m.closed && !m.pending() {
		m.state = eResFinalize

		return nil
	}

	for m.pos < len(m.data) {
		c := m.data[m.pos]
		m.pos++
		m.tx.ResponseBodyLen++

		if c == '\n' {
			m.state = eResChunkLen

			return nil
		}
	}

	return errNeedData
}

func (m *responseMachine) finalize() error {
	if !m.pending() {
		return m.d.responseComplete()
	}

	line, err := m.scanRawLine()
	if err != nil {
		return err
	}

	if normalize.TreatResponseLineAsBody(line) {
		m.warn(journal.CodeOverlappingData, "Unexpected response body")
		err := m.resBodyData(line)
		m.clearLine()

		return err
	}

	// looks like the next response; put it back and close this one out
	m.unread(line)

	return m.d.responseComplete()
}

// scanLine reads one line of the head. Minimal keeps the strict raw scan;
// everyone else absorbs the deformed endings permissive servers tolerate:
// CR alone as a terminator, a CR glued after a bare-LF line, and the
// LFCRCRLFCRLF mix some proxies emit.
func (m *responseMachine) scanLine() ([]byte, error) {
	if !m.d.cfg.LenientLineEndings() {
		return m.scanRawLine()
	}

	if m.absorbCR {
		m.absorbCR = false
		if m.spill.Empty() && m.pos < len(m.data) && m.data[m.pos] == '\r' {
			m.pos++
			m.ateCR = true
			m.weirdEOL("Deformed response line ending")
		}
	}

	line, err := m.lenientScan()
	if err != nil {
		return nil, err
	}

	if m.ateCR && isCRLF(line) &&
		m.pos+1 < len(m.data) && m.data[m.pos] == '\r' && m.data[m.pos+1] == '\n' {
		// LFCRCRLFCRLF: the trailing pair repeats the terminator
		m.pos += 2
		m.weirdEOL("Weird response end of lines mix")
	}
	m.ateCR = false

	n := len(line)
	m.absorbCR = n > 0 && line[n-1] == '\n' && (n == 1 || line[n-2] != '\r')

	return line, nil
}

// lenientScan accepts a CR without LF as a line terminator, except for a
// lone CR opening a line, which stays content so CRCRLF does not read as
// an empty line.
func (m *responseMachine) lenientScan() ([]byte, error) {
	if !m.spill.Empty() {
		sp := m.spill.Bytes()
		if i := bytes.IndexByte(sp, '\n'); i >= 0 {
			// a complete unread line served again
			return sp[:i+1], nil
		}

		if sp[len(sp)-1] == '\r' {
			// the CR fell on a feed boundary; classify it now
			if m.pos >= len(m.data) {
				if m.closed {
					return m.takeLine(m.pos)
				}

				return nil, errNeedData
			}

			switch m.data[m.pos] {
			case '\n':
				return m.takeLine(m.pos + 1)
			case '\r':
				// the spilled CR is content, the new one restarts the dance
			default:
				if len(sp) > 1 {
					return m.takeLine(m.pos)
				}
			}
		}
	}

	i := m.pos
	for i < len(m.data) {
		switch m.data[i] {
		case '\n':
			return m.takeLine(i + 1)
		case '\r':
			if i+1 >= len(m.data) {
				if m.closed {
					return m.takeLine(i + 1)
				}

				if !m.spill.Append(m.data[m.pos:]) {
					return nil, errSpillOver
				}
				m.pos = len(m.data)

				return nil, errNeedData
			}

			switch m.data[i+1] {
			case '\n':
				return m.takeLine(i + 2)
			case '\r':
				// paired CRs glue: the first is content
				i++
			default:
				if m.spill.Len()+(i-m.pos) == 0 {
					// lone CR opening the line is content
					i++
					continue
				}

				return m.takeLine(i + 1)
			}
		default:
			i++
		}
	}

	if m.closed {
		if !m.pending() {
			return nil, errNeedData
		}

		return m.takeLine(len(m.data))
	}

	if !m.spill.Append(m.data[m.pos:]) {
		return nil, errSpillOver
	}
	m.pos = len(m.data)

	return nil, errNeedData
}

// takeLine consumes the chunk up to end and returns it joined with any
// spilled prefix.
func (m *responseMachine) takeLine(end int) ([]byte, error) {
	chunk := m.data[m.pos:end]
	m.pos = end

	if m.spill.Empty() {
		return chunk, nil
	}

	line, ok := m.spill.Merge(chunk)
	if !ok {
		return nil, errSpillOver
	}

	return line, nil
}

// scanChunkLine is scanRawLine with an early junk bail: once enough bytes
// are on hand to rule out a chunk size, the whole run is returned as one
// unparsable line so the caller can fall back to identity framing instead
// of buffering garbage in search of an LF.
func (m *responseMachine) scanChunkLine() ([]byte, error) {
	if m.chunkJunk() {
		line, ok := m.spill.Merge(m.data[m.pos:])
		if !ok {
			return nil, errSpillOver
		}
		m.pos = len(m.data)

		return line, nil
	}

	return m.scanRawLine()
}

func (m *responseMachine) chunkJunk() bool {
	if m.spill.Len()+len(m.data)-m.pos < 8 {
		return false
	}

	for _, span := range [2][]byte{m.spill.Bytes(), m.data[m.pos:]} {
		for _, c := range span {
			switch c {
			case '\r', '\n', ' ', '\t', '\v', '\f':
			default:
				return !hexconv.Is(c)
			}
		}
	}

	return false
}

func (m *responseMachine) weirdEOL(msg string) {
	if m.warnedEOL {
		return
	}

	m.warnedEOL = true
	m.warn(journal.CodeDeformedEOL, msg)
}

func isCRLF(line []byte) bool {
	return len(line) == 2 && line[0] == '\r' && line[1] == '\n'
}
