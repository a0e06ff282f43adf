package http1

import (
	"encoding/base64"
	"strings"

	"github.com/indigo-web/utils/strcomp"

	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/cookie"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/mime"
	"github.com/wireparse/wireparse/http/proto"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/internal/normalize"
	"github.com/wireparse/wireparse/journal"
)

// requestHeadersProcess resolves everything the header block decides: body
// framing, the effective host, cookies and credentials. Runs once per
// block, ending with the headers hook.
func (m *requestMachine) requestHeadersProcess() error {
	tx := m.tx

	if m.chunkCount != m.txStart {
		tx.Flags = tx.Flags.Set(flags.MultiPacketHead)
		m.d.j.Note(status.DirRequest, journal.CodeMultiPacketHead, m.off(), "Request head split across packets")
	}

	te := tx.RequestHeaders.Ref("transfer-encoding")
	cl := tx.RequestHeaders.Ref("content-length")

	switch {
	case te != nil:
		if !strcomp.EqualFold(te.Value, "chunked") {
			// Anything other than a lone "chunked" leaves the framing
			// unresolvable; receivers disagree on what follows.
			tx.RequestTransfer = http.TransferInvalid
			tx.Flags = tx.Flags.Set(flags.RequestInvalidTE | flags.RequestInvalid)
			m.warn(journal.CodeInvalidTransferEncoding, "Invalid T-E value in request")

			break
		}

		if tx.Protocol < proto.V1_1 {
			tx.Flags = tx.Flags.Set(flags.RequestInvalidTE | flags.RequestSmuggling)
			m.warn(journal.CodeChunkedOnOldProtocol, "Chunked transfer-encoding on HTTP/0.9 or HTTP/1.0")
		}
		tx.RequestTransfer = http.TransferChunked

		if cl != nil {
			tx.Flags = tx.Flags.Set(flags.RequestSmuggling)
		}
	case cl != nil:
		if cl.Flags.Has(flags.FieldFolded) {
			tx.Flags = tx.Flags.Set(flags.RequestSmuggling)
		}
		if cl.Flags.Has(flags.FieldRepeated) {
			tx.Flags = tx.Flags.Set(flags.RequestSmuggling)
		}

		n, junk, ok := normalize.ParseContentLength(cl.Value)
		if junk {
			m.warn(journal.CodeInvalidContentLength, "C-L value with extra data in the beginning")
		}

		if !ok {
			tx.RequestTransfer = http.TransferInvalid
			tx.Flags = tx.Flags.Set(flags.RequestInvalidCL | flags.RequestInvalid)
			m.warn(journal.CodeInvalidContentLength, "Invalid C-L field in request")
		} else {
			tx.RequestTransfer = http.TransferIdentity
			tx.RequestLength = n
		}
	default:
		tx.RequestTransfer = http.TransferNoBody
	}

	if ct := tx.RequestHeaders.Value("content-type"); ct != "" {
		tx.RequestContentType = mime.Parse(ct)
	}

	m.resolveHost()

	if m.d.cfg.Forms.Cookies {
		if value := tx.RequestHeaders.Value("cookie"); value != "" {
			cookie.Parse(tx.Cookies, value)
		}
	}

	m.parseAuthorization()

	return verdict(m.d.hooks.OnRequestHeaders(tx))
}

// resolveHost reconciles the two places a request names its host. The URI
// authority wins; the Host header fills the gap or corroborates it.
func (m *requestMachine) resolveHost() {
	tx := m.tx

	h := tx.RequestHeaders.Ref("host")
	if h == nil {
		if tx.URI.Host == "" && tx.Protocol >= proto.V1_1 {
			tx.Flags = tx.Flags.Set(flags.HostMissing)
			m.warn(journal.CodeHostMissing, "Host information in request headers required by HTTP/1.1")
		}

		return
	}

	hadInvalid := tx.Flags.Has(flags.HostHInvalid)
	host, port := normalize.HostHeader(h.Value, &tx.Flags)
	if !hadInvalid && tx.Flags.Has(flags.HostHInvalid) {
		m.warn(journal.CodeHostInvalid, "Request Host header value malformed")
	}

	if tx.URI.Host == "" {
		tx.URI.Host = host
		if tx.URI.PortNumber == 0 {
			tx.URI.PortNumber = port
		}

		return
	}

	ambiguous := !strcomp.EqualFold(host, tx.URI.Host)
	if port != 0 && tx.URI.PortNumber != 0 && port != tx.URI.PortNumber {
		ambiguous = true
	}

	if ambiguous {
		if !tx.Flags.Has(flags.HostAmbiguous) {
			m.warn(journal.CodeHostAmbiguous, "Request host information ambiguous")
		}
		tx.Flags = tx.Flags.Set(flags.HostAmbiguous)
	}
}

// parseAuthorization extracts credentials from the Authorization header:
// just enough parsing to characterize who is knocking, nothing more.
func (m *requestMachine) parseAuthorization() {
	tx := m.tx

	h := tx.RequestHeaders.Ref("authorization")
	if h == nil {
		tx.Auth.Type = http.AuthNone
		return
	}

	value := strings.TrimSpace(h.Value)
	scheme := value
	rest := ""
	if sp := strings.IndexByte(value, ' '); sp != -1 {
		scheme, rest = value[:sp], strings.TrimSpace(value[sp+1:])
	}

	switch {
	case strcomp.EqualFold(scheme, "basic"):
		tx.Auth.Type = http.AuthBasic
		decoded, err := base64.StdEncoding.DecodeString(rest)
		colon := -1
		if err == nil {
			colon = strings.IndexByte(string(decoded), ':')
		}
		if err != nil || colon == -1 {
			m.authInvalid("Unable to parse Basic authentication credentials")
			return
		}
		tx.Auth.Username = string(decoded[:colon])
		tx.Auth.Password = string(decoded[colon+1:])
	case strcomp.EqualFold(scheme, "digest"):
		tx.Auth.Type = http.AuthDigest
		username, ok := digestUsername(rest)
		if !ok {
			m.authInvalid("Unable to parse Digest authentication username")
			return
		}
		tx.Auth.Username = username
	case strcomp.EqualFold(scheme, "bearer"):
		tx.Auth.Type = http.AuthBearer
		if rest == "" {
			m.authInvalid("Bearer authentication without a token")
			return
		}
		tx.Auth.Token = rest
	default:
		tx.Auth.Type = http.AuthUnrecognized
	}
}

func (m *requestMachine) authInvalid(msg string) {
	if !m.tx.Flags.Has(flags.AuthInvalid) {
		m.warn(journal.CodeInvalidAuthorization, msg)
	}
	m.tx.Flags = m.tx.Flags.Set(flags.AuthInvalid)
}

// digestUsername pulls the quoted username attribute out of a Digest
// challenge response.
func digestUsername(s string) (string, bool) {
	i := indexFold(s, "username=")
	if i == -1 {
		return "", false
	}

	rest := s[i+len("username="):]
	rest = strings.TrimLeft(rest, " \t")
	if len(rest) == 0 || rest[0] != '"' {
		return "", false
	}
	rest = rest[1:]

	closing := strings.IndexByte(rest, '"')
	if closing == -1 {
		return "", false
	}

	return rest[:closing], true
}

// indexFold finds substr in s case-insensitively, ASCII only.
func indexFold(s, substr string) int {
	if len(substr) == 0 {
		return 0
	}

	for i := 0; i+len(substr) <= len(s); i++ {
		if strcomp.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}

	return -1
}
