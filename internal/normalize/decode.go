// Package normalize decodes and canonicalizes protocol fields the way the
// emulated server would, raising an anomaly flag for every transformation
// that could hide intent from a naive observer.
package normalize

import (
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/internal/hexconv"
)

// axis binds the decoder to the flag set of one URI component: the same
// condition raises the Path bits when decoding the path and the Urlen bits
// everywhere else. A zero separator bit marks the non-path axis, where
// encoded slashes carry no special meaning.
type axis struct {
	invalid    flags.Flags
	encodedNul flags.Flags
	rawNul     flags.Flags
	overlong   flags.Flags
	halfFull   flags.Flags
	separator  flags.Flags
}

var (
	pathAxis = axis{
		invalid:    flags.PathInvalidEncoding,
		encodedNul: flags.PathEncodedNul,
		rawNul:     flags.PathRawNul,
		overlong:   flags.PathOverlongU,
		halfFull:   flags.PathHalfFullRange,
		separator:  flags.PathEncodedSeparator,
	}
	urlenAxis = axis{
		invalid:    flags.UrlenInvalidEncoding,
		encodedNul: flags.UrlenEncodedNul,
		rawNul:     flags.UrlenRawNul,
		overlong:   flags.UrlenOverlongU,
		halfFull:   flags.UrlenHalfFullRange,
	}
)

// Component percent-decodes a non-path component: query, credentials,
// fragment, form parameters. Plus signs decode to spaces. Anomalies raise
// the query-string flag set.
func Component(enc *config.Encoding, raw string, fl *flags.Flags) string {
	return string(decode(enc, urlenAxis, raw, fl, true))
}

func decode(enc *config.Encoding, ax axis, s string, fl *flags.Flags, plusToSpace bool) []byte {
	out := make([]byte, 0, len(s))

	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '%':
			consumed, ok := escape(&out, enc, ax, s[i:], fl)
			if !ok {
				return out
			}

			i += consumed
		case c == '+' && plusToSpace:
			out = append(out, ' ')
			i++
		case c == 0:
			*fl |= ax.rawNul
			if enc.RawNulTerminates {
				return out
			}

			out = append(out, 0)
			i++
		case c == '\\' && enc.ConvertBackslash && ax.separator != 0:
			out = append(out, '/')
			i++
		default:
			out = append(out, c)
			i++
		}
	}

	return out
}

// escape decodes one percent-led sequence at the start of rest, appending
// the result to out. It reports how many input bytes were consumed, and
// ok=false when a NUL-termination policy cut the component short.
func escape(out *[]byte, enc *config.Encoding, ax axis, rest string, fl *flags.Flags) (consumed int, ok bool) {
	if enc.DecodeU && len(rest) >= 2 && (rest[1] == 'u' || rest[1] == 'U') {
		if len(rest) >= 6 && hexRun(rest[2:6]) {
			hi := hexconv.Un(rest[2])<<4 | hexconv.Un(rest[3])
			lo := hexconv.Un(rest[4])<<4 | hexconv.Un(rest[5])

			return emit(out, enc, ax, rest[:6], unicodeByte(enc, ax, hi, lo, fl), fl)
		}

		*fl |= ax.invalid

		switch enc.Policy {
		case config.RemovePercent:
			return 1, true
		case config.ProcessInvalid:
			// four characters present but not hex: run them through the
			// loose conversion anyway, short sequences stay untouched
			if len(rest) >= 6 {
				return emit(out, enc, ax, rest[:6], unicodeByte(enc, ax, x2c(rest[2], rest[3]), x2c(rest[4], rest[5]), fl), fl)
			}
		}

		*out = append(*out, '%')

		return 1, true
	}

	if len(rest) >= 3 && hexRun(rest[1:3]) {
		return emit(out, enc, ax, rest[:3], hexconv.Un(rest[1])<<4|hexconv.Un(rest[2]), fl)
	}

	*fl |= ax.invalid

	switch enc.Policy {
	case config.RemovePercent:
		return 1, true
	case config.ProcessInvalid:
		if len(rest) >= 3 {
			return emit(out, enc, ax, rest[:3], x2c(rest[1], rest[2]), fl)
		}
	}

	*out = append(*out, '%')

	return 1, true
}

// emit appends one decoded byte, applying the NUL and encoded-separator
// policies. escapeText is the wire form of the sequence the byte came
// from, written verbatim when a separator must stay encoded.
func emit(out *[]byte, enc *config.Encoding, ax axis, escapeText string, b byte, fl *flags.Flags) (consumed int, ok bool) {
	if b == 0 {
		*fl |= ax.encodedNul
		if enc.EncodedNulTerminates {
			return 0, false
		}
	}

	if ax.separator != 0 && (b == '/' || (enc.ConvertBackslash && b == '\\')) {
		*fl |= ax.separator
		if !enc.DecodeSeparators {
			*out = append(*out, escapeText...)

			return len(escapeText), true
		}

		b = '/'
	}

	*out = append(*out, b)

	return len(escapeText), true
}

// unicodeByte folds a %u code unit into one byte the way IIS does: a zero
// high byte is an overlong encoding of the low byte, anything else goes
// through the best-fit table.
func unicodeByte(enc *config.Encoding, ax axis, hi, lo byte, fl *flags.Flags) byte {
	code := rune(hi)<<8 | rune(lo)
	if code >= 0xFF00 && code <= 0xFFEF {
		*fl |= ax.halfFull
	}

	if hi == 0 {
		*fl |= ax.overlong
		return lo
	}

	return bestfit(code, enc.BestfitReplacement)
}

func hexRun(s string) bool {
	for i := 0; i < len(s); i++ {
		if !hexconv.Is(s[i]) {
			return false
		}
	}

	return true
}

// x2c mirrors the classic CGI hex conversion, deliberately accepting
// non-hex input: garbage goes through the same arithmetic a lenient server
// would apply to it.
func x2c(hi, lo byte) byte {
	return hexVal(hi)<<4 + hexVal(lo)
}

func hexVal(c byte) byte {
	if c >= 'A' {
		return c&0xdf - 'A' + 10
	}

	return c - '0'
}

func lowerASCII(s []byte) {
	for i, c := range s {
		if 'A' <= c && c <= 'Z' {
			s[i] = c + 0x20
		}
	}
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && IsSpace(s[start]) {
		start++
	}

	end := len(s)
	for end > start && IsSpace(s[end-1]) {
		end--
	}

	return s[start:end]
}
