// Package proto enumerates HTTP protocol versions. The numeric values encode
// major*100+minor so framing decisions can order-compare versions; 0.9 sits
// below 1.0 and the two sentinel values sit below every real version.
package proto

import (
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type Protocol int16

const (
	Invalid Protocol = -2
	Unknown Protocol = -1
	V0_9    Protocol = 9
	V1_0    Protocol = 100
	V1_1    Protocol = 101
)

func (p Protocol) String() string {
	switch p {
	case V0_9:
		return "HTTP/0.9"
	case V1_0:
		return "HTTP/1.0"
	case V1_1:
		return "HTTP/1.1"
	case Unknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// Parse maps a protocol token to a version. The comparison is
// case-insensitive but otherwise strict: anything except HTTP/0.9, HTTP/1.0
// and HTTP/1.1 is Invalid, which callers surface as a line anomaly.
func Parse(raw []byte) Protocol {
	const tokenLength = len("HTTP/x.x")

	if len(raw) != tokenLength || !strcomp.EqualFold(uf.B2S(raw[:5]), "HTTP/") {
		return Invalid
	}

	switch {
	case raw[5] == '0' && raw[6] == '.' && raw[7] == '9':
		return V0_9
	case raw[5] == '1' && raw[6] == '.' && raw[7] == '0':
		return V1_0
	case raw[5] == '1' && raw[6] == '.' && raw[7] == '1':
		return V1_1
	}

	return Invalid
}
