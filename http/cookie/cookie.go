// Package cookie parses the request Cookie header in the legacy v0 format,
// the only one user agents actually send. Parsing is lenient: broken pairs
// are skipped, never fatal, and pairs are stored exactly as transmitted.
package cookie

import (
	"strings"

	"github.com/wireparse/wireparse/internal/datastruct"
)

// Jar is an ordered multi-map of request cookies. Duplicate names are kept:
// which one a server honors is itself interesting to an inspector.
type Jar = *datastruct.Table[string]

func NewJar() Jar {
	return datastruct.NewTable[string](4)
}

// Parse splits a Cookie header value into pairs and adds them to the jar.
// Pieces are separated by ';' with optional leading whitespace. A piece
// without a name (leading '=') is ignored. A piece without '=' becomes a
// cookie with an empty value. Values are never unquoted or trimmed.
func Parse(jar Jar, value string) {
	for len(value) > 0 {
		var piece string

		if sc := strings.IndexByte(value, ';'); sc != -1 {
			piece, value = value[:sc], value[sc+1:]
		} else {
			piece, value = value, ""
		}

		piece = trimLeftSpace(piece)
		if len(piece) == 0 {
			continue
		}

		eq := strings.IndexByte(piece, '=')
		switch eq {
		case 0:
			// Nameless cookie.
		case -1:
			jar.Add(piece, "")
		default:
			jar.Add(piece[:eq], piece[eq+1:])
		}
	}
}

func trimLeftSpace(str string) string {
	for len(str) > 0 {
		switch str[0] {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			str = str[1:]
		default:
			return str
		}
	}

	return str
}
