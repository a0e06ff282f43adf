// Package mime carries media type identification for body dispatch. The
// interesting part is Parse: servers see Content-Type values mangled in every
// way imaginable, so extraction is deliberately loose and never fails.
package mime

type MIME = string

const (
	Unknown        MIME = ""
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	XML            MIME = "text/xml"
	JSON           MIME = "application/json"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
	ByteRanges     MIME = "multipart/byteranges"
)

// Parse extracts the media type from a Content-Type header value. Leading
// whitespace is dropped, the type is lowercased, and everything from the
// first space, semicolon or comma on is ignored. Parameters survive in the
// raw header value, which stays available to whoever needs the boundary.
func Parse(value string) MIME {
	for len(value) > 0 && (value[0] == ' ' || value[0] == '\t') {
		value = value[1:]
	}

	mime := make([]byte, 0, len(value))

	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == ' ' || c == ';' || c == ',' {
			break
		}

		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}

		mime = append(mime, c)
	}

	return MIME(mime)
}

// Complies reports whether the parsed media type matches the wanted one.
// Empty input complies with anything.
func Complies(mime MIME, with string) bool {
	parsed := Parse(with)
	return len(parsed) == 0 || parsed == mime
}
