package normalize

import (
	"strings"

	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"

	"github.com/wireparse/wireparse/internal/hexconv"
)

// ParseContentLength reads a decimal Content-Length the way lax servers
// do: leading whitespace and even non-digit junk before the first digit
// are skipped, anything after the digits is ignored. junk reports whether
// garbage was skipped; ok is false when no digits were found at all or
// the value overflows.
func ParseContentLength(v string) (n int64, junk, ok bool) {
	i := 0
	for i < len(v) && IsSpace(v[i]) {
		i++
	}

	start := i
	for i < len(v) && (v[i] < '0' || v[i] > '9') {
		i++
	}

	junk = i > start
	if i == len(v) {
		return 0, junk, false
	}

	for i < len(v) && '0' <= v[i] && v[i] <= '9' {
		n = n*10 + int64(v[i]-'0')
		if n < 0 {
			return 0, junk, false
		}

		i++
	}

	return n, junk, true
}

// ParseChunkedLength reads a hexadecimal chunk size, tolerating whitespace
// around the digits and dropping any extension after a semicolon. An empty
// size line reports empty=true so the caller can skip stray line endings
// between chunks.
func ParseChunkedLength(line string) (n int64, empty, ok bool) {
	if ext := strings.IndexByte(line, ';'); ext != -1 {
		line = line[:ext]
	}

	line = trimSpace(line)
	if line == "" {
		return 0, true, true
	}

	for i := 0; i < len(line); i++ {
		if !hexconv.Is(line[i]) || n > 1<<59 {
			return 0, false, false
		}

		n = n<<4 | int64(hexconv.Un(line[i]))
	}

	return n, false, true
}

// Chomp strips every trailing CR and LF byte, however they are mixed.
func Chomp(line string) string {
	end := len(line)
	for end > 0 && (line[end-1] == '\r' || line[end-1] == '\n') {
		end--
	}

	return line[:end]
}

// IsSpace matches the liberal whitespace class shared by folding and field
// trimming: space, tab and the CR/LF/VT/FF control set.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

// IsLineEmpty reports whether the line is exactly one end-of-line token.
// "\n\r" is not one: that really is a bare LF line followed by stray data.
func IsLineEmpty(line []byte) bool {
	switch len(line) {
	case 1:
		return line[0] == '\r' || line[0] == '\n'
	case 2:
		return line[0] == '\r' && line[1] == '\n'
	}

	return false
}

// IsLineWhitespace reports whether every byte of the line is whitespace.
func IsLineWhitespace(line []byte) bool {
	for _, c := range line {
		if !IsSpace(c) {
			return false
		}
	}

	return true
}

// IsLineFolded reports whether the line continues the previous header.
func IsLineFolded(line []byte) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// TreatResponseLineAsBody decides whether bytes at a response boundary
// open a status line or leaked body data: anything that doesn't start
// with "HTTP" after optional whitespace and NULs is body.
func TreatResponseLineAsBody(data []byte) bool {
	i := 0
	for i < len(data) && (IsSpace(data[i]) || data[i] == 0) {
		i++
	}

	if len(data)-i < 4 {
		return true
	}

	return !strcomp.EqualFold(uf.B2S(data[i:i+4]), "http")
}
