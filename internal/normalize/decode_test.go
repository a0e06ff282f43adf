package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/flags"
)

func TestComponent(t *testing.T) {
	cases := []struct {
		name string
		tune func(*config.Encoding)
		in   string
		want string
		fl   flags.Flags
	}{
		{name: "identity", in: "/dest", want: "/dest"},
		{name: "simple escape", in: "/%64est", want: "/dest"},
		{name: "plus decodes to space", in: "a+b%20c", want: "a b c"},
		{
			name: "invalid preserved by default",
			in:   "/%xxest", want: "/%xxest",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "invalid removed",
			tune: func(e *config.Encoding) { e.Policy = config.RemovePercent },
			in:   "/%xxest", want: "/xxest",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "invalid decoded anyway",
			tune: func(e *config.Encoding) { e.Policy = config.ProcessInvalid },
			in:   "/%}9est", want: "/iest",
			fl: flags.UrlenInvalidEncoding,
		},
		{name: "one hex digit short", in: "/%a", want: "/%a", fl: flags.UrlenInvalidEncoding},
		{name: "bare percent", in: "/%", want: "/%", fl: flags.UrlenInvalidEncoding},
		{
			name: "u-encoded",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%u0064", want: "/d",
			fl: flags.UrlenOverlongU,
		},
		{
			name: "u-encoding disabled",
			in:   "/%u0064", want: "/%u0064",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded too short under process",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/%u006", want: "/%u006",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded too short preserved",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%u006", want: "/%u006",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded non-hex removed",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.RemovePercent },
			in:   "/%uXXXX", want: "/uXXXX",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded non-hex decoded anyway",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/%u00}9", want: "/i",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded cut at four",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%u00", want: "/%u00",
		},
		{
			name: "u-encoded cut at three",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%u0", want: "/%u0",
		},
		{
			name: "u-encoded cut at two",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%u", want: "/%u",
		},
		{name: "encoded nul kept", in: "/%00", want: "/\x00", fl: flags.UrlenEncodedNul},
		{
			name: "encoded nul terminates",
			tune: func(e *config.Encoding) { e.EncodedNulTerminates = true },
			in:   "/%00ABC", want: "/",
			fl: flags.UrlenEncodedNul,
		},
		{
			name: "raw nul terminates",
			tune: func(e *config.Encoding) { e.RawNulTerminates = true },
			in:   "/\x00ABC", want: "/",
			fl: flags.UrlenRawNul,
		},
		{
			name: "u-encoded best fit",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%u0107", want: "/c",
		},
		{
			name: "u-encoding marker is case-insensitive",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%U0064", want: "/d",
		},
		{
			name: "u-encoded mixed with short tail preserved",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/one/tw%u006f/three/%u123", want: "/one/two/three/%u123",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded mixed with non-hex tail preserved",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/one/tw%u006f/three/%uXXXX", want: "/one/two/three/%uXXXX",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "u-encoded mixed with short tail removed",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.RemovePercent },
			in:   "/one/tw%u006f/three/%u123", want: "/one/two/three/u123",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "short escape removed",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.RemovePercent },
			in:   "/one/tw%u006f/three/%3", want: "/one/two/three/3",
			fl: flags.UrlenInvalidEncoding,
		},
		{
			name: "short escape survives process",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/one/tw%u006f/three/%3", want: "/one/two/three/%3",
			fl: flags.UrlenInvalidEncoding,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc := config.Default().Query
			if c.tune != nil {
				c.tune(&enc)
			}

			var fl flags.Flags
			require.Equal(t, c.want, Component(&enc, c.in, &fl))
			if c.fl != 0 {
				require.True(t, fl.Has(c.fl), "missing flags: got %#x, want %#x", uint64(fl), uint64(c.fl))
			}
		})
	}
}

func TestPathDecode(t *testing.T) {
	cases := []struct {
		name string
		tune func(*config.Encoding)
		in   string
		want string
		fl   flags.Flags
	}{
		{
			name: "short escape survives process",
			tune: func(e *config.Encoding) { e.Policy = config.ProcessInvalid },
			in:   "/%a", want: "/%a",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "u-encoded one char survives process",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/%uX", want: "/%uX",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "u-encoded best fit",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/%u0107", want: "/c",
		},
		{
			name: "u-encoded non-hex removed",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.RemovePercent },
			in:   "/%uXXXX", want: "/uXXXX",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "u-encoded non-hex preserved",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%uXXXX", want: "/%uXXXX",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "u-encoded non-hex decoded anyway",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/%u00}9", want: "/i",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "u-encoded nul",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.ProcessInvalid },
			in:   "/%u0000", want: "/\x00",
			fl: flags.PathEncodedNul,
		},
		{
			name: "u-encoded three chars removed",
			tune: func(e *config.Encoding) { e.DecodeU = true; e.Policy = config.RemovePercent },
			in:   "/%uXXX", want: "/uXXX",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "u-encoded three chars preserved",
			tune: func(e *config.Encoding) { e.DecodeU = true },
			in:   "/%uXXX", want: "/%uXXX",
			fl: flags.PathInvalidEncoding,
		},
		{name: "encoded nul kept", in: "/%00123", want: "/\x00123", fl: flags.PathEncodedNul},
		{
			name: "encoded nul terminates",
			tune: func(e *config.Encoding) { e.EncodedNulTerminates = true },
			in:   "/%00123", want: "/",
			fl: flags.PathEncodedNul,
		},
		{
			name: "encoded slash stays encoded",
			in:   "/one%2ftwo", want: "/one%2ftwo",
			fl: flags.PathEncodedSeparator,
		},
		{
			name: "encoded slash decoded",
			tune: func(e *config.Encoding) { e.DecodeSeparators = true },
			in:   "/one%2ftwo", want: "/one/two",
			fl: flags.PathEncodedSeparator,
		},
		{name: "non-hex preserved", in: "/%HH", want: "/%HH", fl: flags.PathInvalidEncoding},
		{
			name: "non-hex removed",
			tune: func(e *config.Encoding) { e.Policy = config.RemovePercent },
			in:   "/%HH", want: "/HH",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "non-hex decoded anyway",
			tune: func(e *config.Encoding) { e.Policy = config.ProcessInvalid },
			in:   "/%}9", want: "/i",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "one char removed",
			tune: func(e *config.Encoding) { e.Policy = config.RemovePercent },
			in:   "/%H", want: "/H",
			fl: flags.PathInvalidEncoding,
		},
		{name: "one char preserved", in: "/%H", want: "/%H", fl: flags.PathInvalidEncoding},
		{
			name: "one char survives process",
			tune: func(e *config.Encoding) { e.Policy = config.ProcessInvalid },
			in:   "/%H", want: "/%H",
			fl: flags.PathInvalidEncoding,
		},
		{
			name: "raw nul terminates",
			tune: func(e *config.Encoding) { e.RawNulTerminates = true },
			in:   "/\x00123", want: "/",
			fl: flags.PathRawNul,
		},
		{name: "raw nul kept", in: "/\x00123", want: "/\x00123", fl: flags.PathRawNul},
		{
			name: "backslash converted",
			tune: func(e *config.Encoding) { e.ConvertBackslash = true },
			in:   "/one\\two", want: "/one/two",
		},
		{name: "backslash kept", in: "/one\\two", want: "/one\\two"},
		{
			name: "separators compressed",
			tune: func(e *config.Encoding) { e.CompressSeparators = true },
			in:   "/one//two", want: "/one/two",
		},
		{
			name: "lowercased",
			tune: func(e *config.Encoding) { e.Lowercase = true },
			in:   "/One%54wo", want: "/onetwo",
		},
		{
			name: "encoded backslash counts as separator when converted",
			tune: func(e *config.Encoding) { e.ConvertBackslash = true; e.DecodeSeparators = true },
			in:   "/one%5ctwo", want: "/one/two",
			fl: flags.PathEncodedSeparator,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc := config.Default().Path
			if c.tune != nil {
				c.tune(&enc)
			}

			var fl flags.Flags
			require.Equal(t, c.want, Path(&enc, c.in, &fl))
			if c.fl != 0 {
				require.True(t, fl.Has(c.fl), "missing flags: got %#x, want %#x", uint64(fl), uint64(c.fl))
			}
		})
	}
}

func TestPathUTF8(t *testing.T) {
	t.Run("invalid sequences become replacements", func(t *testing.T) {
		enc := config.Default().Path
		enc.ConvertUTF8 = true

		var fl flags.Flags
		got := Path(&enc, "\xf1.\xf1\xef\xbd\x9dabcd", &fl)
		require.Equal(t, "?.?}abcd", got)
		require.True(t, fl.Has(flags.PathUTF8Invalid))
		require.True(t, fl.Has(flags.PathHalfFullRange))
		require.False(t, fl.Has(flags.PathUTF8Valid))
	})

	t.Run("plain ascii is valid", func(t *testing.T) {
		enc := config.Default().Path

		var fl flags.Flags
		require.Equal(t, "/index.html", Path(&enc, "/index.html", &fl))
		require.True(t, fl.Has(flags.PathUTF8Valid))
	})

	t.Run("overlong slash is flagged on both axes", func(t *testing.T) {
		enc := config.Default().Path

		var fl flags.Flags
		Path(&enc, "/%c0%af", &fl)
		require.True(t, fl.Has(flags.PathUTF8Overlong))
		require.True(t, fl.Has(flags.PathOverlongU))
	})

	t.Run("classification runs without conversion", func(t *testing.T) {
		enc := config.Default().Path

		var fl flags.Flags
		require.Equal(t, "/\xf1abc", Path(&enc, "/\xf1abc", &fl))
		require.True(t, fl.Has(flags.PathUTF8Invalid))
	})
}
