package http1

import "github.com/wireparse/wireparse/internal/normalize"

// tchar marks the characters allowed in a header field name and in a method
// token. Everything else in a name earns the field an invalid-name flag, and
// everything else before the first request-line space makes a method unknown.
var tchar = [256]bool{
	'!': true, '#': true, '$': true, '%': true, '&': true, '\'': true,
	'*': true, '+': true, '-': true, '.': true, '^': true, '_': true,
	'`': true, '|': true, '~': true,
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true,
	'g': true, 'h': true, 'i': true, 'j': true, 'k': true, 'l': true,
	'm': true, 'n': true, 'o': true, 'p': true, 'q': true, 'r': true,
	's': true, 't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true,
	'G': true, 'H': true, 'I': true, 'J': true, 'K': true, 'L': true,
	'M': true, 'N': true, 'O': true, 'P': true, 'Q': true, 'R': true,
	'S': true, 'T': true, 'U': true, 'V': true, 'W': true, 'X': true,
	'Y': true, 'Z': true,
}

func isToken(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !tchar[s[i]] {
			return false
		}
	}

	return true
}

// trimSpan returns s without leading and trailing whitespace, using the wide
// definition that includes CR, LF, VT and FF.
func trimSpan(s string) string {
	start := 0
	for start < len(s) && normalize.IsSpace(s[start]) {
		start++
	}

	end := len(s)
	for end > start && normalize.IsSpace(s[end-1]) {
		end--
	}

	return s[start:end]
}

func trimLeftSpan(s string) string {
	for len(s) > 0 && normalize.IsSpace(s[0]) {
		s = s[1:]
	}

	return s
}

// hasNul reports whether the line carries a raw NUL byte anywhere.
func hasNul(line []byte) bool {
	for _, c := range line {
		if c == 0 {
			return true
		}
	}

	return false
}
