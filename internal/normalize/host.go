package normalize

import (
	"strings"

	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/internal/hexconv"
)

// HostPort is the parse of a "host[:port]" authority form.
type HostPort struct {
	// Host is the host text as transmitted, surrounding whitespace trimmed.
	Host string
	// Port is the port text, empty when absent.
	Port string
	// Number is the decoded port in 1..65535, zero when absent or broken.
	Number int
	// Valid reports whether the whole input parsed cleanly.
	Valid bool
}

// ParseHostPort splits an authority into host and port, tolerating the
// whitespace real clients put around the colon. A lone trailing colon, an
// empty or non-numeric port, a port outside 1..65535 and garbage after a
// bracketed literal all clear Valid.
func ParseHostPort(raw string) HostPort {
	s := trimSpace(raw)
	hp := HostPort{Valid: true}

	if strings.HasPrefix(s, "[") {
		closing := strings.IndexByte(s, ']')
		if closing == -1 {
			hp.Host = s
			hp.Valid = false

			return hp
		}

		hp.Host = s[:closing+1]

		switch rest := s[closing+1:]; {
		case rest == "":
		case rest[0] == ':':
			hp.readPort(rest[1:])
		default:
			hp.Valid = false
		}
	} else if colon := strings.IndexByte(s, ':'); colon != -1 {
		hp.Host = trimSpace(s[:colon])
		hp.readPort(s[colon+1:])
	} else {
		hp.Host = s
	}

	if !ValidateHostname(hp.Host) {
		hp.Valid = false
	}

	return hp
}

func (hp *HostPort) readPort(s string) {
	hp.Port = trimSpace(s)

	if n, ok := Port(hp.Port); ok {
		hp.Number = n
	} else {
		hp.Valid = false
	}
}

// Port parses a decimal port, accepting 1 through 65535.
func Port(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}

		n = n*10 + int(s[i]-'0')
		if n > 65535 {
			return 0, false
		}
	}

	if n == 0 {
		return 0, false
	}

	return n, true
}

// ValidateHostname checks a hostname against DNS label rules, or, for a
// bracketed literal, against the IPv6 character set. A single trailing dot
// is accepted; empty labels anywhere else are not.
func ValidateHostname(host string) bool {
	if host == "" {
		return false
	}

	if host[0] == '[' {
		if host[len(host)-1] != ']' {
			return false
		}

		for i := 1; i < len(host)-1; i++ {
			if !hexconv.Is(host[i]) && host[i] != ':' && host[i] != '.' {
				return false
			}
		}

		return true
	}

	if host[len(host)-1] == '.' {
		host = host[:len(host)-1]
		if host == "" {
			return false
		}
	}

	for len(host) > 0 {
		label := host
		if dot := strings.IndexByte(host, '.'); dot != -1 {
			label, host = host[:dot], host[dot+1:]
			if host == "" {
				// the dot was the last byte of an already-stripped name,
				// meaning the input ended in two dots
				return false
			}
		} else {
			host = ""
		}

		if !validLabel(label) {
			return false
		}
	}

	return true
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}

	for i := 0; i < len(label); i++ {
		switch c := label[i]; {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-':
		default:
			return false
		}
	}

	return true
}

// Hostname validates and normalizes one hostname: lowercased, a single
// trailing dot dropped. Validation failure raises the given invalid bit;
// the text is still normalized so downstream comparisons stay meaningful.
func Hostname(host string, fl *flags.Flags, invalid flags.Flags) string {
	if !ValidateHostname(host) {
		*fl |= invalid
	}

	return hostText(host)
}

func hostText(host string) string {
	b := []byte(host)
	lowerASCII(b)

	if len(b) > 1 && b[len(b)-1] == '.' {
		b = b[:len(b)-1]
	}

	return string(b)
}
