package http1

import (
	"errors"
	"io"
	"strings"

	"github.com/indigo-web/utils/strcomp"
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/headers"
	"github.com/wireparse/wireparse/http/method"
	"github.com/wireparse/wireparse/http/mime"
	"github.com/wireparse/wireparse/http/proto"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/internal/normalize"
	"github.com/wireparse/wireparse/journal"
)

// decodeChunkSize is the read granularity of the decompression chain.
const decodeChunkSize = 4096

// bodyDetermine resolves response framing once the header block is in.
// Interim and tunnel responses divert before framing is even considered;
// the headers hook runs last either way, after the verdict it may want to
// inspect.
func (m *responseMachine) bodyDetermine() error {
	tx := m.tx
	conn := m.d.conn

	if tx.Method == method.CONNECT {
		switch {
		case tx.Status >= 200 && tx.Status <= 299:
			// a successful CONNECT ends HTTP on this connection; the
			// request side probes what the tunnel carries
			tx.ResponseTransfer = http.TransferNoBody
			m.state = eResFinalize

			return m.responseHeadersProcess()
		case tx.Status == 407:
			// proxy authentication: the client gets to try again
			if conn.RequestState != status.Error {
				conn.RequestState = status.Data
			}
		default:
			// failed CONNECT unblocks the request side, but this
			// response still runs to completion first
			if conn.RequestState != status.Error {
				conn.RequestState = status.Data
			}
			m.dataOtherAtTxEnd = true
		}
	}

	te := tx.ResponseHeaders.Ref("transfer-encoding")
	cl := tx.ResponseHeaders.Ref("content-length")

	if tx.Status == 101 {
		if te == nil && cl == nil {
			m.state = eResFinalize
			if conn.RequestState != status.Error {
				conn.RequestState = status.Tunnel
			}
			conn.ResponseState = status.Tunnel

			return m.responseHeadersProcess()
		}

		m.warn(journal.CodeSwitchWithLength, "Switching Protocol with Content-Length")
	}

	if tx.Status == 100 && te == nil && cl == nil {
		if tx.ResponseInterims > 0 {
			m.d.j.Err(status.DirResponse, journal.CodeDoubleContinue, m.off(),
				"Already seen 100-Continue")

			return status.ErrDoubleContinue
		}

		// an interim response: forget its headers and expect another
		// status line for the same transaction
		tx.ResponseHeaders = headers.New()
		tx.ResponseInterims++
		m.state = eResLine
		tx.ResponseProgress = http.PhaseLine

		return nil
	}

	switch {
	case tx.Method == method.HEAD:
		tx.ResponseTransfer = http.TransferNoBody
		m.state = eResFinalize
	case tx.Status >= 100 && tx.Status <= 199, tx.Status == 204, tx.Status == 304:
		if te == nil && cl == nil {
			tx.ResponseTransfer = http.TransferNoBody
			m.state = eResFinalize
		} else {
			m.warn(journal.CodeUnexpectedBody, "Unexpected response body")
		}
	}

	if m.state != eResFinalize {
		if ct := tx.ResponseHeaders.Value("content-type"); ct != "" {
			tx.ResponseContentType = mime.Parse(ct)
		}

		if err := m.resolveFraming(te, cl); err != nil {
			return err
		}
	}

	return m.responseHeadersProcess()
}

func (m *responseMachine) resolveFraming(te, cl *headers.Header) error {
	tx := m.tx

	switch {
	case te != nil && containsChunked(te.Value):
		if !strcomp.EqualFold(te.Value, "chunked") {
			m.warn(journal.CodeInvalidTransferEncoding,
				"Transfer-encoding has abnormal chunked value")
		}
		if tx.ResponseProtocol < proto.V1_1 {
			m.warn(journal.CodeChunkedOnOldProtocol,
				"Chunked transfer-encoding on HTTP/0.9 or HTTP/1.0")
		}

		tx.ResponseTransfer = http.TransferChunked
		if cl != nil {
			tx.Flags = tx.Flags.Set(flags.RequestSmuggling)
		}

		m.state = eResChunkLen
		tx.ResponseProgress = http.PhaseBody
	case cl != nil:
		tx.ResponseTransfer = http.TransferIdentity

		n, junk, ok := normalize.ParseContentLength(cl.Value)
		if junk {
			m.warn(journal.CodeInvalidContentLength, "C-L value with extra data in the beginning")
		}
		if !ok {
			m.d.j.Err(status.DirResponse, journal.CodeInvalidContentLength, m.off(),
				"Invalid C-L field in response")

			return status.ErrContentLength
		}

		tx.ResponseLength = n
		if n == 0 {
			m.state = eResFinalize

			break
		}

		m.bodyLeft = n
		m.state = eResBodyCL
		tx.ResponseProgress = http.PhaseBody
	default:
		ct := tx.ResponseHeaders.Value("content-type")
		if strings.Contains(strings.ToLower(ct), "multipart/byteranges") {
			m.d.j.Err(status.DirResponse, journal.CodeByterangesResponse, m.off(),
				"C-T multipart/byteranges in responses not supported")

			return status.ErrByteranges
		}

		// no framing at all: the body runs until the stream closes
		tx.ResponseTransfer = http.TransferIdentity
		m.bodyLeft = -1
		m.state = eResStreamClose
		tx.ResponseProgress = http.PhaseBody
	}

	return nil
}

// responseHeadersProcess settles representation metadata once framing is
// decided, then runs the headers hook.
func (m *responseMachine) responseHeadersProcess() error {
	tx := m.tx

	if m.chunkCount != m.txStart {
		tx.Flags = tx.Flags.Set(flags.MultiPacketHead)
		m.d.j.Note(status.DirResponse, journal.CodeMultiPacketHead, m.off(),
			"Response head split across packets")
	}

	if ce := tx.ResponseHeaders.Value("content-encoding"); ce != "" {
		tx.ResponseCodings = splitCodings(ce)
	}

	if len(tx.ResponseCodings) > 0 && m.d.cfg.Decompression.Policy == config.RejectCompressed {
		m.d.j.Err(status.DirResponse, journal.CodeDecompressionFailed, m.off(),
			"Compressed response body rejected by policy")

		return status.ErrCodingRejected
	}

	return verdict(m.d.hooks.OnResponseHeaders(tx))
}

// splitCodings breaks a Content-Encoding value into its tokens, kept in
// applied order.
func splitCodings(value string) []string {
	var out []string
	for _, token := range strings.Split(value, ",") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, strings.ToLower(token))
		}
	}

	return out
}

// containsChunked looks for "chunked" inside a Transfer-Encoding value the
// way permissive servers do: case-insensitively, NUL bytes skipped.
func containsChunked(value string) bool {
	if strings.IndexByte(value, 0) >= 0 {
		b := make([]byte, 0, len(value))
		for i := 0; i < len(value); i++ {
			if value[i] != 0 {
				b = append(b, value[i])
			}
		}
		value = string(b)
	}

	return strings.Contains(strings.ToLower(value), "chunked")
}

func (m *responseMachine) decodeActive() bool {
	return len(m.tx.ResponseCodings) > 0 &&
		m.d.cfg.Decompression.Policy == config.DecodeCompressed
}

// resBodyData accounts and delivers one span of response body. Compressed
// bodies spool for decoding at end of message; everything else flows
// straight to the observer.
func (m *responseMachine) resBodyData(data []byte) error {
	tx := m.tx
	tx.ResponseBodyLen += int64(len(data))

	if m.decodeActive() && !m.overflow {
		m.spool = append(m.spool, data...)
		if int64(len(m.spool)) <= m.d.cfg.Decompression.BombLimit {
			return nil
		}

		// the compressed body alone is over the output cap; decoding it
		// can only make things worse, so hand the raw bytes through
		m.overflow = true
		m.d.j.Err(status.DirResponse, journal.CodeDecompressionBomb, m.off(),
			"Compressed response body over the decompression limit")

		return m.deliverRaw()
	}

	tx.ResponseEntityLen += int64(len(data))

	return verdict(m.d.hooks.OnResponseBodyData(tx, data))
}

// endBody closes out the response body stream: the spooled compressed
// body, if any, is decoded and delivered, then the zero-length end marker
// goes out.
func (m *responseMachine) endBody() error {
	if m.decodeActive() && !m.overflow && len(m.spool) > 0 {
		if err := m.decodeSpool(); err != nil {
			return err
		}
	}
	m.spool = nil

	return verdict(m.d.hooks.OnResponseBodyData(m.tx, nil))
}

func (m *responseMachine) decodeSpool() error {
	tx := m.tx

	chain, err := m.d.codecs.Chain(
		&m.d.cfg.Decompression, http.FetchBytes(m.spool), tx.ResponseCodings, decodeChunkSize,
	)
	switch {
	case errors.Is(err, status.ErrUnknownCoding):
		m.warn(journal.CodeCodingUnknown, "Unknown response content encoding")

		return m.deliverRaw()
	case errors.Is(err, status.ErrCodingLayers):
		m.warn(journal.CodeDecompressionFailed, "Too many response content encoding layers")

		return m.deliverRaw()
	case err != nil:
		m.warn(journal.CodeDecompressionFailed, "Unable to decode response body")

		return m.deliverRaw()
	}

	for {
		chunk, err := chain.Fetch()
		if len(chunk) > 0 {
			tx.ResponseEntityLen += int64(len(chunk))
			if verr := verdict(m.d.hooks.OnResponseBodyData(tx, chunk)); verr != nil {
				return verr
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, status.ErrDecompressBomb):
			m.d.j.Err(status.DirResponse, journal.CodeDecompressionBomb, m.off(),
				"Response body decompression bomb")

			return nil
		default:
			m.warn(journal.CodeDecompressionFailed, "Unable to decode response body")

			return nil
		}
	}
}

// deliverRaw hands the spooled body through undecoded.
func (m *responseMachine) deliverRaw() error {
	tx := m.tx
	out := m.spool
	m.spool = nil

	tx.ResponseEntityLen += int64(len(out))

	return verdict(m.d.hooks.OnResponseBodyData(tx, out))
}
