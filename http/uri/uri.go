package uri

import "strings"

// URI carries one request target split into components. Splitting and
// normalization are separate steps: Parse only cuts the raw target apart,
// the normalizer decodes the pieces afterwards. Wire forms stay next to
// their decoded counterparts because in traffic analysis the exact bytes
// transmitted matter as much as any interpretation of them.
type URI struct {
	// Raw is the request target exactly as transmitted.
	Raw string
	// Scheme is lowercased during normalization. The wire form survives in Raw.
	Scheme string
	// Username and Password are percent-decoded during normalization.
	Username string
	Password string
	// Host is the authority hostname after normalization: lowercased, the
	// trailing dot stripped. RawHost is the wire form.
	Host    string
	RawHost string
	// Port is the authority port text. PortNumber is its numeric value,
	// filled during normalization; zero when absent or unparseable.
	Port       string
	PortNumber int
	// Path is the decoded and canonicalized path, RawPath the wire form.
	Path    string
	RawPath string
	// Query is the query string with plus-decoding applied, RawQuery the
	// wire form. Individual parameters are decoded separately.
	Query    string
	RawQuery string
	// Fragment is percent-decoded during normalization.
	Fragment string
}

// Parse splits a request target into components. The split is purely
// structural: nothing is decoded, nothing is validated, and every byte of
// the input lands in exactly one component. A scheme is whatever precedes
// the first colon, provided no slash comes first. An authority requires
// "//" plus at least one character that doesn't already terminate it, so a
// bare "http://" reads as scheme plus a two-slash path, the same way
// permissive servers treat it.
func Parse(raw string) *URI {
	u := &URI{Raw: raw}
	rest := raw

	if colon := schemeEnd(rest); colon != -1 {
		u.Scheme = rest[:colon]
		rest = rest[colon+1:]
	}

	if len(rest) > 2 && rest[0] == '/' && rest[1] == '/' && !authorityEnd(rest[2]) {
		var authority string
		authority, rest = cutAuthority(rest[2:])
		u.parseAuthority(authority)
	}

	if hash := strings.IndexByte(rest, '#'); hash != -1 {
		u.Fragment = rest[hash+1:]
		rest = rest[:hash]
	}

	if question := strings.IndexByte(rest, '?'); question != -1 {
		u.RawQuery = rest[question+1:]
		rest = rest[:question]
	}

	u.RawPath = rest

	return u
}

func (u *URI) parseAuthority(authority string) {
	if at := strings.IndexByte(authority, '@'); at != -1 {
		userinfo := authority[:at]
		authority = authority[at+1:]

		if colon := strings.IndexByte(userinfo, ':'); colon != -1 {
			u.Username, u.Password = userinfo[:colon], userinfo[colon+1:]
		} else {
			u.Username = userinfo
		}
	}

	// a bracketed IPv6 literal keeps its colons, so the port search must
	// start past the closing bracket
	portFrom := 0
	if len(authority) > 0 && authority[0] == '[' {
		if closing := strings.IndexByte(authority, ']'); closing != -1 {
			portFrom = closing
		}
	}

	if colon := strings.IndexByte(authority[portFrom:], ':'); colon != -1 {
		u.RawHost = authority[:portFrom+colon]
		u.Port = authority[portFrom+colon+1:]
	} else {
		u.RawHost = authority
	}
}

// schemeEnd returns the index of the colon terminating a scheme, or -1 if
// the target carries none.
func schemeEnd(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ':':
			return i
		case '/':
			return -1
		}
	}

	return -1
}

func authorityEnd(b byte) bool {
	return b == '/' || b == '?' || b == '#'
}

func cutAuthority(s string) (authority, rest string) {
	for i := 0; i < len(s); i++ {
		if authorityEnd(s[i]) {
			return s[:i], s[i:]
		}
	}

	return s, ""
}
