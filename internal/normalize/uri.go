package normalize

import (
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/uri"
)

// URI fills in the normalized fields of a structurally split request
// target, accumulating anomalies into fl. The path runs through the path
// profile, every other component through the query profile.
func URI(cfg *config.Config, u *uri.URI, fl *flags.Flags) {
	if u.Scheme != "" {
		b := []byte(u.Scheme)
		lowerASCII(b)
		u.Scheme = string(b)
	}

	if u.Username != "" {
		u.Username = Component(&cfg.Query, u.Username, fl)
	}

	if u.Password != "" {
		u.Password = Component(&cfg.Query, u.Password, fl)
	}

	if u.RawHost != "" {
		u.Host = Hostname(Component(&cfg.Query, u.RawHost, fl), fl, flags.HostUInvalid)
	}

	if u.Port != "" {
		if n, ok := Port(u.Port); ok {
			u.PortNumber = n
		} else {
			*fl |= flags.HostUInvalid
		}
	}

	u.Path = RemoveDotSegments(Path(&cfg.Path, u.RawPath, fl))

	if u.RawQuery != "" {
		u.Query = Component(&cfg.Query, u.RawQuery, fl)
	}

	if u.Fragment != "" {
		u.Fragment = Component(&cfg.Query, u.Fragment, fl)
	}
}

// Authority builds a URI from an authority-form target, the shape CONNECT
// requests use. Malformed input raises the URI-side host-invalid bit.
func Authority(raw string, fl *flags.Flags) *uri.URI {
	hp := ParseHostPort(raw)
	if !hp.Valid {
		*fl |= flags.HostUInvalid
	}

	return &uri.URI{
		Raw:        raw,
		Host:       hostText(hp.Host),
		RawHost:    hp.Host,
		Port:       hp.Port,
		PortNumber: hp.Number,
	}
}

// HostHeader parses and normalizes a Host header value. Malformed values
// raise the header-side host-invalid bit.
func HostHeader(value string, fl *flags.Flags) (host string, port int) {
	hp := ParseHostPort(value)
	if !hp.Valid {
		*fl |= flags.HostHInvalid
	}

	return hostText(hp.Host), hp.Number
}
