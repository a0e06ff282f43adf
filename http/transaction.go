package http

import (
	"github.com/wireparse/wireparse/http/cookie"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/form"
	"github.com/wireparse/wireparse/http/headers"
	"github.com/wireparse/wireparse/http/method"
	"github.com/wireparse/wireparse/http/proto"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/http/uri"
)

// Phase tracks how far one direction of a transaction has advanced. Phases
// only move forward; comparing them orders the two directions against each
// other, which the CONNECT logic relies on.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseLine
	PhaseHeaders
	PhaseBody
	PhaseTrailer
	PhaseComplete
)

var phaseNames = [...]string{"not started", "line", "headers", "body", "trailer", "complete"}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		return "unknown"
	}

	return phaseNames[p]
}

// Transfer is the body framing resolved for one direction of a transaction.
type Transfer uint8

const (
	TransferUnknown Transfer = iota
	// TransferNoBody means the message cannot carry a body at all.
	TransferNoBody
	// TransferIdentity covers both length-delimited bodies and
	// read-until-close response bodies.
	TransferIdentity
	TransferChunked
	// TransferInvalid marks framing that contradicted itself; the parser
	// still picks a fallback to keep the stream aligned.
	TransferInvalid
)

var transferNames = [...]string{"unknown", "none", "identity", "chunked", "invalid"}

func (t Transfer) String() string {
	if int(t) >= len(transferNames) {
		return transferNames[TransferUnknown]
	}

	return transferNames[t]
}

type AuthType uint8

const (
	AuthNone AuthType = iota
	AuthBasic
	AuthDigest
	AuthBearer
	// AuthUnrecognized is any scheme token the parser does not know; the
	// raw header value remains available in the header table.
	AuthUnrecognized
)

// Auth is the parsed Authorization header. Basic carries Username and
// Password, Digest only Username, Bearer only Token.
type Auth struct {
	Type     AuthType
	Username string
	Password string
	Token    string
}

// Transaction is one request/response pair. Requests pair with responses
// first-in-first-out on their connection; a transaction whose counterpart
// was never observed keeps the respective phase at PhaseNone.
//
// String fields hold normalized forms next to their Raw originals. Length
// fields: *Length is the declared Content-Length (-1 when absent), *BodyLen
// counts body bytes as transmitted, *EntityLen counts body bytes after
// de-chunking and decompression.
type Transaction struct {
	// RequestLine is the raw request line without its terminator.
	RequestLine string
	Method      method.Method
	RawMethod   string
	RawURI      string
	Protocol    proto.Protocol
	RawProtocol string
	// ProtocolAbsent marks a request line that carried no protocol token,
	// the HTTP/0.9 short form. Protocol reads V0_9 in that case.
	ProtocolAbsent bool
	URI            *uri.URI

	RequestHeaders     *headers.Headers
	RequestTransfer    Transfer
	RequestLength      int64
	RequestBodyLen     int64
	RequestEntityLen   int64
	RequestContentType string
	RequestTrailer     bool
	RequestProgress    Phase

	// ResponseLine is the raw status line without its terminator.
	ResponseLine     string
	ResponseProtocol proto.Protocol
	Status           status.Code
	ResponseMessage  string

	ResponseHeaders     *headers.Headers
	ResponseTransfer    Transfer
	ResponseLength      int64
	ResponseBodyLen     int64
	ResponseEntityLen   int64
	ResponseContentType string
	// ResponseCodings lists Content-Encoding tokens in applied order.
	ResponseCodings []string
	ResponseTrailer bool
	// ResponseInterims counts 1xx responses consumed before the final one.
	ResponseInterims int
	ResponseProgress Phase

	// Flags is the accumulated anomaly word of both directions.
	Flags flags.Flags

	// Params aggregates request parameters from the query string, an
	// urlencoded body and textual multipart parts, in that arrival order.
	Params form.Params
	// Files lists multipart file parts, content captured only when file
	// extraction is configured.
	Files   []form.File
	Cookies cookie.Jar
	Auth    Auth
}

func NewTransaction() *Transaction {
	return &Transaction{
		RequestHeaders:  headers.New(),
		ResponseHeaders: headers.New(),
		Cookies:         cookie.NewJar(),
		RequestLength:   -1,
		ResponseLength:  -1,
	}
}

// Done reports whether both directions reached PhaseComplete.
func (t *Transaction) Done() bool {
	return t.RequestProgress == PhaseComplete && t.ResponseProgress == PhaseComplete
}
