package http1

import (
	"errors"
	"strings"

	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/method"
	"github.com/wireparse/wireparse/http/proto"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/http/uri"

	"github.com/wireparse/wireparse/internal/normalize"
	"github.com/wireparse/wireparse/journal"
)

type reqState uint8

const (
	eReqIdle reqState = iota
	eReqLine
	eReqProtocol
	eReqHeaders
	eReqConnectCheck
	eReqConnectWait
	eReqConnectProbe
	eReqBodyDetermine
	eReqBodyIdentity
	eReqChunkLen
	eReqChunkData
	eReqChunkEnd
	eReqFinalize
	eReqIgnore09
)

// requestMachine parses the client-to-server half of a connection. All
// resumption state lives on the struct: a feed may stop between any two
// bytes and the next one picks up exactly there.
type requestMachine struct {
	cursor
	d     *Dissector
	state reqState
	tx    *http.Transaction

	fields fieldBlock
	forms  harvest

	// chunkCount counts feed calls carrying data; txStart remembers its
	// value when the current transaction began.
	chunkCount int64
	txStart    int64

	bodyLeft  int64
	chunkLeft int64

	// tunnel09 survives transaction teardown: it is consumed by the
	// 0.9 aftermath state, which runs after the transaction is gone.
	tunnel09       bool
	warnedTrailing bool
}

func (m *requestMachine) init(d *Dissector) {
	m.d = d
	m.cursor = newCursor(d.cfg.Fields.HardLimit)
	m.fields = newFieldBlock(status.DirRequest, d.cfg, d.conn.Journal)
	m.state = eReqIdle
}

func (m *requestMachine) resetTx() {
	m.txStart = 0
	m.bodyLeft = 0
	m.chunkLeft = 0
	m.forms = harvest{}
	m.warnedTrailing = false
}

func (m *requestMachine) warn(code journal.Code, msg string) {
	m.d.j.Warn(status.DirRequest, code, m.off(), msg)
}

func (m *requestMachine) dispatch() error {
	err := m.step()
	if errors.Is(err, errSpillOver) {
		return m.d.overLimit(status.DirRequest, &m.cursor)
	}

	return err
}

func (m *requestMachine) step() error {
	switch m.state {
	case eReqIdle:
		return m.idle()
	case eReqLine:
		return m.line()
	case eReqProtocol:
		return m.protocol()
	case eReqHeaders:
		return m.headers()
	case eReqConnectCheck:
		return m.connectCheck()
	case eReqConnectWait:
		return m.connectWait()
	case eReqConnectProbe:
		return m.connectProbe()
	case eReqBodyDetermine:
		return m.bodyDetermine()
	case eReqBodyIdentity:
		return m.bodyIdentity()
	case eReqChunkLen:
		return m.chunkLen()
	case eReqChunkData:
		return m.chunkData()
	case eReqChunkEnd:
		return m.chunkEnd()
	case eReqFinalize:
		return m.finalize()
	default:
		return m.ignore09()
	}
}

func (m *requestMachine) idle() error {
	if !m.pending() {
		return errNeedData
	}

	// state first, hook last: a pause verdict must resume in eReqLine,
	// not create the transaction twice
	m.tx = m.d.createRequestTx()
	m.txStart = m.chunkCount
	m.state = eReqLine
	m.tx.RequestProgress = http.PhaseLine

	return verdict(m.d.hooks.OnRequestStart(m.tx))
}

func (m *requestMachine) line() error {
	for {
		line, err := m.scanRawLine()
		if err != nil {
			return err
		}

		if lineTerminator(m.d.cfg.Personality, line) {
			// stray CRLF between requests
			m.clearLine()
			if m.closed {
				m.state = eReqFinalize
				return nil
			}

			continue
		}

		chomped := normalize.Chomp(string(line))
		m.tx.RequestLine = chomped
		m.parseRequestLine(chomped)
		m.clearLine()
		m.state = eReqProtocol

		return m.requestLineProcess()
	}
}

// parseRequestLine cuts a request line into method, target and protocol.
// The target ends at a raw space; wider whitespace inside it is flagged
// before re-splitting the way permissive servers do.
func (m *requestMachine) parseRequestLine(line string) {
	tx := m.tx

	if m.d.cfg.RequestLineNulTerminates() {
		if nul := strings.IndexByte(line, 0); nul != -1 {
			line = line[:nul]
		}
	}

	pos := 0
	for pos < len(line) && normalize.IsSpace(line[pos]) {
		pos++
	}
	if pos > 0 {
		m.warn(journal.CodeLineLeadingWhitespace, "Request line: leading whitespace")
		line = line[pos:]
	}

	end := 0
	for end < len(line) && !normalize.IsSpace(line[end]) {
		end++
	}
	tx.RawMethod = line[:end]
	tx.Method = method.Parse(tx.RawMethod)
	if tx.Method == method.Unknown && !isToken(tx.RawMethod) {
		tx.Method = method.Invalid
	}

	pos = end
	compliant := true
	for pos < len(line) && normalize.IsSpace(line[pos]) {
		if line[pos] != ' ' {
			compliant = false
		}
		pos++
	}
	if !compliant {
		m.warn(journal.CodeMethodDelimNonCompliant, "Request line: non-compliant delimiter between method and URI")
	}

	if pos == len(line) {
		// method and nothing else, the 0.9 short form
		tx.ProtocolAbsent = true
		tx.Protocol = proto.V0_9
		if !knownMethod(tx.Method) {
			m.warn(journal.CodeUnknownMethod, "Request line: unknown method")
		}

		return
	}

	start := pos
	for pos < len(line) && line[pos] != ' ' {
		pos++
	}
	tx.RawURI = line[start:pos]

	if pos == len(line) {
		if ws := indexSpace(tx.RawURI); ws != -1 {
			m.warn(journal.CodeURIDelimNonCompliant, "Request line: URI contains non-compliant delimiter")
			pos = start + ws
			tx.RawURI = line[start:pos]
		}
	}

	for pos < len(line) && normalize.IsSpace(line[pos]) {
		pos++
	}

	if pos == len(line) {
		tx.ProtocolAbsent = true
		tx.Protocol = proto.V0_9
		if !knownMethod(tx.Method) {
			m.warn(journal.CodeUnknownMethodNoProtocol, "Request line: unknown method and no protocol")
		}

		return
	}

	tx.RawProtocol = line[pos:]
	tx.Protocol = proto.Parse([]byte(tx.RawProtocol))

	if !knownMethod(tx.Method) && tx.Protocol == proto.Invalid {
		m.warn(journal.CodeUnknownMethodInvalidProtocol, "Request line: unknown method and invalid protocol")
	}
}

// requestLineProcess derives the structured view of the parsed line: the
// URI split and normalization, query parameters, then the line hook.
func (m *requestMachine) requestLineProcess() error {
	tx := m.tx
	cfg := m.d.cfg
	before := tx.Flags

	if tx.Method == method.CONNECT {
		tx.URI = normalize.Authority(tx.RawURI, &tx.Flags)
	} else {
		tx.URI = uri.Parse(tx.RawURI)
		normalize.URI(cfg, tx.URI, &tx.Flags)
	}

	if cfg.Forms.Query && tx.URI.RawQuery != "" {
		q := newQueryParser(cfg, tx)
		q.Feed([]byte(tx.URI.RawQuery))
		q.Finalize()
	}

	m.journalURIFlags(tx.Flags &^ before)

	return verdict(m.d.hooks.OnRequestLine(tx))
}

// journalURIFlags translates anomaly bits the target normalization raised
// into journal entries, one per condition.
func (m *requestMachine) journalURIFlags(raised flags.Flags) {
	if raised.Any(flags.PathInvalidEncoding) {
		m.warn(journal.CodePathInvalidEncoding, "Request path contains an invalid percent encoding")
	}
	if raised.Any(flags.PathRawNul) {
		m.warn(journal.CodePathRawNul, "Request path contains a raw NUL byte")
	}
	if raised.Any(flags.PathOverlongU) {
		m.d.j.Note(status.DirRequest, journal.CodePathOverlong, m.off(), "Request path contains an overlong %u encoding")
	}
	if raised.Any(flags.UrlenInvalidEncoding) {
		m.d.j.Note(status.DirRequest, journal.CodeQueryInvalidEncoding, m.off(), "Request query string contains an invalid percent encoding")
	}
	if raised.Any(flags.HostUInvalid) {
		m.warn(journal.CodeHostInvalid, "Request URI host malformed")
	}
}

// protocol decides what an absent protocol token meant. A colon on the next
// line is strong evidence of a header block, so the protocol merely went
// missing; anything else confirms the genuine 0.9 short form.
func (m *requestMachine) protocol() error {
	if !m.tx.ProtocolAbsent {
		m.enterHeaders()
		return nil
	}

	afterSpace := false
probe:
	for i := m.pos; i < len(m.data); i++ {
		switch c := m.data[i]; {
		case c == ':':
			m.warn(journal.CodeMissingProtocol, "Request line: missing protocol")
			m.tx.ProtocolAbsent = false
			m.enterHeaders()

			return nil
		case c == ' ' || c == '\t':
			afterSpace = true
		default:
			if afterSpace {
				break probe
			}
		}
	}

	if !knownMethod(m.tx.Method) {
		m.tunnel09 = true
	}
	m.state = eReqFinalize

	return nil
}

func (m *requestMachine) enterHeaders() {
	m.state = eReqHeaders
	m.tx.RequestProgress = http.PhaseHeaders
	m.fields.begin(m.tx, m.tx.RequestHeaders)
}

func (m *requestMachine) headers() error {
	for {
		if m.closed && !m.pending() {
			// The stream ended inside the block. Flush what we hold and
			// treat the block as finished.
			if err := m.fields.terminator(m.off()); err != nil {
				return err
			}
			m.tx.RequestProgress = http.PhaseTrailer

			return m.headersDone()
		}

		line, err := m.scanRawLine()
		if err != nil {
			return err
		}

		if lineTerminator(m.d.cfg.Personality, line) {
			err := m.fields.terminator(m.off())
			m.clearLine()
			if err != nil {
				return err
			}

			return m.headersDone()
		}

		err = m.fields.line(normalize.Chomp(string(line)), m.off())
		m.clearLine()
		if err != nil {
			return err
		}
	}
}

func (m *requestMachine) headersDone() error {
	if m.tx.RequestProgress > http.PhaseHeaders {
		m.state = eReqFinalize

		return verdict(m.d.hooks.OnRequestTrailers(m.tx))
	}

	m.state = eReqConnectCheck

	return m.requestHeadersProcess()
}

func (m *requestMachine) connectCheck() error {
	if m.tx.Method == method.CONNECT {
		m.state = eReqConnectWait
		return errDataOther
	}

	m.state = eReqBodyDetermine

	return nil
}

// connectWait parks the request direction until the response to the
// CONNECT settles whether a tunnel opens.
func (m *requestMachine) connectWait() error {
	if m.tx.ResponseProgress <= http.PhaseLine {
		return errDataOther
	}

	if m.tx.Status >= 200 && m.tx.Status <= 299 {
		m.state = eReqConnectProbe
	} else {
		m.state = eReqFinalize
	}

	return nil
}

// connectProbe peeks at the bytes queued behind an established CONNECT: a
// recognizable request method means the client kept speaking HTTP through
// the hop, anything else is tunnel traffic.
func (m *requestMachine) connectProbe() error {
	if !m.closed && !hasProbeEnd(m.spill.Bytes()) && !hasProbeEnd(m.data[m.pos:]) {
		// hold what we have until a byte that can end the probe arrives
		if !m.spill.Append(m.data[m.pos:]) {
			return errSpillOver
		}
		m.pos = len(m.data)

		return errNeedData
	}

	probe := m.peekPending()
	i := 0
	for i < len(probe) && (probe[i] == ' ' || probe[i] == '\t') {
		i++
	}
	start := i
	for i < len(probe) && !normalize.IsSpace(probe[i]) {
		i++
	}

	if i > start && knownMethod(method.Parse(string(probe[start:i]))) {
		// still HTTP after the 2xx: the next request begins right here
		return m.d.requestComplete()
	}

	m.d.j.Note(status.DirRequest, journal.CodeSwitchToTunnel, m.off(), "Non-HTTP traffic after established CONNECT")
	m.spill.Clear()
	m.d.conn.RequestState = status.Tunnel
	m.d.conn.ResponseState = status.Tunnel

	return nil
}

// bodyDetermine routes into the body reader picked at header time and arms
// the form parsers feeding on it.
func (m *requestMachine) bodyDetermine() error {
	tx := m.tx

	switch tx.RequestTransfer {
	case http.TransferChunked:
		m.beginHarvest()
		m.state = eReqChunkLen
		tx.RequestProgress = http.PhaseBody
	case http.TransferIdentity:
		m.bodyLeft = tx.RequestLength
		if m.bodyLeft != 0 {
			m.beginHarvest()
			m.state = eReqBodyIdentity
			tx.RequestProgress = http.PhaseBody
		} else {
			m.state = eReqFinalize
		}
	default:
		// no body, and contradictory framing reads as no body
		m.state = eReqFinalize
	}

	return nil
}

func (m *requestMachine) bodyIdentity() error {
	if m.closed && !m.pending() {
		m.state = eReqFinalize
		return nil
	}

	data := m.take(m.bodyLeft)
	if len(data) == 0 {
		return errNeedData
	}

	// account before delivering: a pause verdict must not replay the span
	m.bodyLeft -= int64(len(data))
	if m.bodyLeft == 0 {
		m.state = eReqFinalize
	}

	return m.reqBodyData(data)
}

func (m *requestMachine) chunkLen() error {
	if m.closed && !m.pending() {
		m.state = eReqFinalize
		return nil
	}

	line, err := m.scanRawLine()
	if err != nil {
		return err
	}

	m.tx.RequestBodyLen += int64(len(line))
	n, empty, ok := normalize.ParseChunkedLength(normalize.Chomp(string(line)))
	m.clearLine()

	switch {
	case empty || !ok:
		m.d.j.Err(status.DirRequest, journal.CodeInvalidChunkSize, m.off(), "Request chunk encoding: invalid chunk length")
		return status.ErrChunkSize
	case n == 0:
		m.state = eReqHeaders
		m.tx.RequestProgress = http.PhaseTrailer
		m.tx.RequestTrailer = true
		m.fields.begin(m.tx, m.tx.RequestHeaders)
	default:
		m.chunkLeft = n
		m.state = eReqChunkData
	}

	return nil
}

func (m *requestMachine) chunkData() error {
	if m.closed && !m.pending() {
		m.state = eReqFinalize
		return nil
	}

	data := m.take(m.chunkLeft)
	if len(data) == 0 {
		return errNeedData
	}

	m.chunkLeft -= int64(len(data))
	if m.chunkLeft == 0 {
		m.state = eReqChunkEnd
	}

	return m.reqBodyData(data)
}

// chunkEnd eats the line ending after chunk data byte by byte; the
// terminator may be split anywhere and must not reach the spill.
func (m *requestMachine) chunkEnd() error {
	if m.closed && !m.pending() {
		m.state = eReqFinalize
		return nil
	}

	for m.pos < len(m.data) {
		c := m.data[m.pos]
		m.pos++
		m.tx.RequestBodyLen++

		if c == '\n' {
			m.state = eReqChunkLen
			return nil
		}
	}

	return errNeedData
}

// finalize decides what the bytes after a finished request are: the next
// request, or body data leaking past the declared framing.
func (m *requestMachine) finalize() error {
	if !m.pending() {
		return m.d.requestComplete()
	}

	line, err := m.scanRawLine()
	if err != nil {
		return err
	}

	i := 0
	for i < len(line) && normalize.IsSpace(line[i]) {
		i++
	}
	start := i
	for i < len(line) && !normalize.IsSpace(line[i]) {
		i++
	}

	if i == start {
		// bare terminators between messages stay in the stream for the
		// next request's scanner to skip
		m.unread(line)
		return m.d.requestComplete()
	}

	if knownMethod(method.Parse(string(line[start:i]))) {
		m.unread(line)
		return m.d.requestComplete()
	}

	if !m.warnedTrailing {
		m.warnedTrailing = true
		m.warn(journal.CodeOverlappingData, "Unexpected request body")
	}

	err = m.reqBodyData(line)
	m.clearLine()

	return err
}

// ignore09 absorbs whatever follows a 0.9 transaction: 0.9 has no framing
// for a second request, so the rest of the stream is noise. When the
// supposed request line was not even a known method, the connection is
// reclassified as a tunnel.
func (m *requestMachine) ignore09() error {
	if !m.pending() {
		return errNeedData
	}

	if !m.d.conn.Flags.Has(flags.HTTP09Extra) {
		m.d.j.Note(status.DirRequest, journal.CodeExtraDataAfter09, m.off(), "Data after HTTP/0.9 request")
	}
	m.d.conn.Flags = m.d.conn.Flags.Set(flags.HTTP09Extra)

	m.spill.Clear()
	m.pos = len(m.data)

	if m.tunnel09 {
		m.d.j.Note(status.DirRequest, journal.CodeSwitchToTunnel, m.off(), "Unrecognized 0.9 short form, treating connection as a tunnel")
		m.d.conn.RequestState = status.Tunnel

		return nil
	}

	return errNeedData
}

func knownMethod(v method.Method) bool {
	return v != method.Unknown && v != method.Invalid
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if normalize.IsSpace(s[i]) {
			return i
		}
	}

	return -1
}

func hasProbeEnd(data []byte) bool {
	for _, c := range data {
		if c == '\n' || c == 0 {
			return true
		}
	}

	return false
}

// lineTerminator reports whether a line ends a header block. IIS 5.0
// accepts a whitespace-only line as a terminator; everyone else requires
// an empty one.
func lineTerminator(p config.Personality, line []byte) bool {
	if p == config.IIS5 && normalize.IsLineWhitespace(line) {
		return true
	}

	return normalize.IsLineEmpty(line)
}
