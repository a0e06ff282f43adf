package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseContentLength(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int64
		junk bool
		ok   bool
	}{
		{"plain", "134", 134, false, true},
		{"surrounding space", " 134 ", 134, false, true},
		{"leading junk", "abcd134", 134, true, true},
		{"junk only", "abcd ", 0, true, false},
		{"empty", "", 0, false, false},
		{"stops at non-digit", "12a45", 12, false, true},
		{"zero", "0", 0, false, true},
		{"overflow", "99999999999999999999999", 0, false, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, junk, ok := ParseContentLength(c.in)
			require.Equal(t, c.ok, ok)
			require.Equal(t, c.junk, junk)
			require.Equal(t, c.n, n)
		})
	}
}

func TestParseChunkedLength(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		n     int64
		empty bool
		ok    bool
	}{
		{"hex", "ab", 0xab, false, true},
		{"surrounding space", " 12\t", 0x12, false, true},
		{"empty", "", 0, true, true},
		{"whitespace only", " ", 0, true, true},
		{"extension only", ";ext", 0, true, true},
		{"extension dropped", "12;ext=1", 0x12, false, true},
		{"non-hex", "x", 0, false, false},
		{"overflow", "FFFFFFFFFFFFFFFF", 0, false, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, empty, ok := ParseChunkedLength(c.in)
			require.Equal(t, c.ok, ok)
			require.Equal(t, c.empty, empty)
			require.Equal(t, c.n, n)
		})
	}
}

func TestLinePredicates(t *testing.T) {
	t.Run("chomp", func(t *testing.T) {
		require.Equal(t, "test", Chomp("test\r\n"))
		require.Equal(t, "test", Chomp("test\r\n\r\n"))
		require.Equal(t, "test", Chomp("test\n\r"))
		require.Equal(t, "test", Chomp("test"))
		require.Equal(t, "", Chomp("\r\n"))
	})

	t.Run("empty line", func(t *testing.T) {
		require.True(t, IsLineEmpty([]byte("\r\n")))
		require.True(t, IsLineEmpty([]byte("\r")))
		require.True(t, IsLineEmpty([]byte("\n")))
		require.False(t, IsLineEmpty([]byte("\n\r")))
		require.False(t, IsLineEmpty([]byte("test\n")))
		require.False(t, IsLineEmpty([]byte("")))
	})

	t.Run("whitespace line", func(t *testing.T) {
		require.True(t, IsLineWhitespace([]byte(" \t\r\n")))
		require.True(t, IsLineWhitespace([]byte("")))
		require.False(t, IsLineWhitespace([]byte(" x ")))
	})

	t.Run("folded line", func(t *testing.T) {
		require.True(t, IsLineFolded([]byte(" x")))
		require.True(t, IsLineFolded([]byte("\tx")))
		require.False(t, IsLineFolded([]byte("x")))
		require.False(t, IsLineFolded([]byte("")))
	})
}

func TestTreatResponseLineAsBody(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"status line", "HTTP/1.1 200 OK\r\n", false},
		{"case-insensitive", "http/1.0 200 ok\r\n", false},
		{"leading whitespace and nuls", "  \x00HTTP/1.0 200 OK\r\n", false},
		{"junk before the marker", "kfgjl  hTtp ", true},
		{"too short", "HTT", true},
		{"empty", "", true},
		{"plain data", "data flowing", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, TreatResponseLineAsBody([]byte(c.in)))
		})
	}
}
