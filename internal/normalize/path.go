package normalize

import (
	"strings"

	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/flags"
)

// Path decodes and canonicalizes a URI path under the profile: percent and
// %u decoding, backslash rewriting, separator substitution, the NUL
// policies, separator compression, lowercasing and the UTF-8 axis. Dot
// segments are left in place, RemoveDotSegments resolves those.
func Path(enc *config.Encoding, raw string, fl *flags.Flags) string {
	decoded := decode(enc, pathAxis, raw, fl, false)

	if enc.CompressSeparators {
		decoded = compressSeparators(decoded)
	}

	if enc.Lowercase {
		lowerASCII(decoded)
	}

	return string(utf8Pass(enc, decoded, fl))
}

// RemoveDotSegments resolves "." and ".." segments the way servers do
// before mapping a path onto a resource. Parent references that would
// climb past the root are dropped.
func RemoveDotSegments(path string) string {
	if strings.IndexByte(path, '.') == -1 {
		return path
	}

	s := path
	rooted := strings.HasPrefix(s, "/")
	if rooted {
		s = s[1:]
	}

	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	trailing := false

	for i, seg := range parts {
		switch seg {
		case ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case "":
			if i == len(parts)-1 {
				trailing = true
			} else {
				stack = append(stack, seg)
			}
		default:
			stack = append(stack, seg)
		}
	}

	out := strings.Join(stack, "/")
	if trailing && len(stack) > 0 {
		out += "/"
	}

	if rooted {
		out = "/" + out
	}

	return out
}

func compressSeparators(s []byte) []byte {
	w := 0
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == '/' && s[i-1] == '/' {
			continue
		}

		s[w] = s[i]
		w++
	}

	return s[:w]
}

// utf8Pass classifies the decoded path on the UTF-8 axis and, when the
// profile asks for it, folds multi-byte sequences into single-byte
// best-fit forms. Classification always runs; only the rewriting is gated.
func utf8Pass(enc *config.Encoding, s []byte, fl *flags.Flags) []byte {
	var out []byte
	if enc.ConvertUTF8 {
		out = make([]byte, 0, len(s))
	}

	valid := true

	for i := 0; i < len(s); {
		c := s[i]
		if c < 0x80 {
			if out != nil {
				out = append(out, c)
			}

			i++
			continue
		}

		code, size, ok := decodeSequence(s[i:], fl)
		if !ok {
			valid = false
			*fl |= flags.PathUTF8Invalid

			if out != nil {
				out = append(out, enc.BestfitReplacement)
			}

			i += size
			continue
		}

		if code >= 0xFF00 && code <= 0xFFEF {
			*fl |= flags.PathHalfFullRange
		}

		if out != nil {
			out = append(out, bestfit(code, enc.BestfitReplacement))
		}

		i += size
	}

	if valid {
		*fl |= flags.PathUTF8Valid
	}

	if out != nil {
		return out
	}

	return s
}

// decodeSequence reads one multi-byte sequence, flagging overlong
// encodings. On malformed input it consumes only the lead byte, so the
// scan resynchronizes at the byte that broke the sequence.
func decodeSequence(s []byte, fl *flags.Flags) (code rune, size int, ok bool) {
	var (
		need int
		min  rune
	)

	switch c := s[0]; {
	case c&0xE0 == 0xC0:
		code, need, min = rune(c&0x1F), 1, 0x80
	case c&0xF0 == 0xE0:
		code, need, min = rune(c&0x0F), 2, 0x800
	case c&0xF8 == 0xF0:
		code, need, min = rune(c&0x07), 3, 0x10000
	default:
		// stray continuation byte or an out-of-range lead
		return 0, 1, false
	}

	if len(s) < need+1 {
		// truncated at end of input: swallow the well-formed prefix whole
		size = 1
		for size < len(s) && s[size]&0xC0 == 0x80 {
			size++
		}

		return 0, size, false
	}

	for i := 1; i <= need; i++ {
		if s[i]&0xC0 != 0x80 {
			return 0, 1, false
		}

		code = code<<6 | rune(s[i]&0x3F)
	}

	if code > 0x10FFFF || code >= 0xD800 && code <= 0xDFFF {
		return 0, 1, false
	}

	if code < min {
		// an overlong sequence is both a UTF-8 deformity and an overlong
		// encoding of the character it smuggles
		*fl |= flags.PathUTF8Overlong | flags.PathOverlongU
	}

	return code, need + 1, true
}
