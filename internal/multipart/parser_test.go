package multipart

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireparse/wireparse/config"
)

func TestFindBoundary(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		b, fl, ok := FindBoundary("multipart/form-data; boundary=0123456789")
		require.True(t, ok)
		require.Equal(t, "0123456789", b)
		require.Zero(t, fl)
	})

	t.Run("case-insensitive attribute", func(t *testing.T) {
		b, _, ok := FindBoundary("multipart/form-data; BOUNDARY=abc")
		require.True(t, ok)
		require.Equal(t, "abc", b)
	})

	t.Run("quoted", func(t *testing.T) {
		b, fl, ok := FindBoundary(`multipart/form-data; boundary="abc def"`)
		require.True(t, ok)
		require.Equal(t, "abc def", b)
		require.True(t, fl.Has(BoundaryQuoted))
		require.True(t, fl.Has(BoundaryUnusual))
	})

	t.Run("whitespace around equals", func(t *testing.T) {
		b, fl, ok := FindBoundary("multipart/form-data; boundary = abc")
		require.True(t, ok)
		require.Equal(t, "abc", b)
		require.True(t, fl.Has(BoundaryUnusual))
	})

	t.Run("stops at parameter separator", func(t *testing.T) {
		b, _, ok := FindBoundary("multipart/form-data; boundary=abc; charset=utf-8")
		require.True(t, ok)
		require.Equal(t, "abc", b)
	})

	t.Run("attribute missing", func(t *testing.T) {
		_, _, ok := FindBoundary("application/x-www-form-urlencoded")
		require.False(t, ok)
	})

	t.Run("equals missing", func(t *testing.T) {
		_, fl, ok := FindBoundary("multipart/form-data; boundary abc")
		require.False(t, ok)
		require.True(t, fl.Has(BoundaryInvalid))
	})

	t.Run("empty value", func(t *testing.T) {
		_, fl, ok := FindBoundary("multipart/form-data; boundary=")
		require.False(t, ok)
		require.True(t, fl.Has(BoundaryInvalid))
	})

	t.Run("declared twice", func(t *testing.T) {
		b, fl, ok := FindBoundary("multipart/form-data; boundary=abc; boundary=def")
		require.True(t, ok)
		require.Equal(t, "abc", b)
		require.True(t, fl.Has(BoundaryInvalid))
	})

	t.Run("unterminated quote", func(t *testing.T) {
		b, fl, ok := FindBoundary(`multipart/form-data; boundary="abc`)
		require.True(t, ok)
		require.Equal(t, "abc", b)
		require.True(t, fl.Has(BoundaryInvalid))
	})

	t.Run("oversized", func(t *testing.T) {
		long := make([]byte, 300)
		for i := range long {
			long[i] = 'a'
		}

		_, fl, ok := FindBoundary("multipart/form-data; boundary=" + string(long))
		require.False(t, ok)
		require.True(t, fl.Has(BoundaryInvalid))
	})
}

func feedParser(t *testing.T, boundary, body string, chunk int) *Parser {
	t.Helper()

	cfg := config.Default().Multipart
	p := New(&cfg, boundary, 0)

	for len(body) > 0 {
		n := chunk
		if n > len(body) {
			n = len(body)
		}

		p.Feed([]byte(body[:n]))
		body = body[n:]
	}

	p.Finalize()

	return p
}

func TestParserRealWorld(t *testing.T) {
	const boundary = "----WebKitFormBoundary7MA4YWxkTrZu0gW"
	body := "------WebKitFormBoundary7MA4YWxkTrZu0gW\r\n" +
		"Content-Disposition: form-data; name=\"username\"\r\n" +
		"\r\n" +
		"Alice\r\n" +
		"------WebKitFormBoundary7MA4YWxkTrZu0gW\r\n" +
		"Content-Disposition: form-data; name=\"profile_pic\"; filename=\"profile.png\"\r\n" +
		"Content-Type: image/png\r\n" +
		"\r\n" +
		"[binary file content]\r\n" +
		"------WebKitFormBoundary7MA4YWxkTrZu0gW--\r\n"

	p := feedParser(t, boundary, body, len(body))
	parts := p.Parts()
	require.Len(t, parts, 2)

	require.Equal(t, Text, parts[0].Type)
	require.Equal(t, "username", parts[0].Name)
	require.Equal(t, "Alice", string(parts[0].Value))

	require.Equal(t, File, parts[1].Type)
	require.Equal(t, "profile_pic", parts[1].Name)
	require.Equal(t, "profile.png", parts[1].Filename)
	require.Equal(t, "image/png", parts[1].ContentType)
	require.EqualValues(t, len("[binary file content]"), parts[1].Size)
	require.Empty(t, parts[1].Value)

	require.True(t, p.Flags().Has(SeenLastBoundary|CRLFLine))
	require.False(t, p.Flags().Has(Incomplete))
}

func TestParserStreamingInvariance(t *testing.T) {
	const boundary = "xyz"
	body := "preamble\r\n" +
		"--xyz\r\n" +
		"Content-Disposition: form-data; name=a\r\n" +
		"\r\n" +
		"first\r\nvalue\r\n" +
		"--xyz\r\n" +
		"Content-Disposition: form-data; name=b\r\n" +
		"\r\n" +
		"second\r\n" +
		"--xyz--\r\n" +
		"trailing junk"

	whole := feedParser(t, boundary, body, len(body))

	for chunk := 1; chunk < len(body); chunk++ {
		split := feedParser(t, boundary, body, chunk)
		require.Equal(t, whole.Flags(), split.Flags(), "chunk size %d", chunk)
		require.Len(t, split.Parts(), len(whole.Parts()), "chunk size %d", chunk)

		for i, part := range whole.Parts() {
			got := split.Parts()[i]
			require.Equal(t, part.Type, got.Type, "chunk size %d part %d", chunk, i)
			require.Equal(t, part.Name, got.Name, "chunk size %d part %d", chunk, i)
			require.Equal(t, string(part.Value), string(got.Value), "chunk size %d part %d", chunk, i)
		}
	}

	parts := whole.Parts()
	require.Len(t, parts, 4)
	require.Equal(t, Preamble, parts[0].Type)
	require.Equal(t, "preamble", string(parts[0].Value))
	require.Equal(t, "first\r\nvalue", string(parts[1].Value))
	require.Equal(t, "second", string(parts[2].Value))
	require.Equal(t, Epilogue, parts[3].Type)
	require.Equal(t, "trailing junk", string(parts[3].Value))

	fl := whole.Flags()
	require.True(t, fl.Has(HasPreamble|HasEpilogue|SeenLastBoundary))
	require.False(t, fl.Has(Incomplete))
}

func TestParserTruncation(t *testing.T) {
	t.Run("mid part", func(t *testing.T) {
		body := "--b\r\n" +
			"Content-Disposition: form-data; name=a\r\n" +
			"\r\n" +
			"partial conte"

		p := feedParser(t, "b", body, 5)
		parts := p.Parts()
		require.Len(t, parts, 1)
		require.Equal(t, "partial conte", string(parts[0].Value))
		require.True(t, p.Flags().Has(Incomplete))
	})

	t.Run("mid headers", func(t *testing.T) {
		body := "--b\r\nContent-Disposition: form-data; name=a\r\n"

		p := feedParser(t, "b", body, len(body))
		parts := p.Parts()
		require.Len(t, parts, 1)
		require.Equal(t, "a", parts[0].Name)
		require.True(t, p.Flags().Has(Incomplete|PartInvalid))
	})

	t.Run("held delimiter prefix becomes content", func(t *testing.T) {
		body := "--b\r\n" +
			"Content-Disposition: form-data; name=a\r\n" +
			"\r\n" +
			"data\r\n--"

		p := feedParser(t, "b", body, len(body))
		parts := p.Parts()
		require.Len(t, parts, 1)
		require.Equal(t, "data\r\n--", string(parts[0].Value))
		require.True(t, p.Flags().Has(Incomplete))
	})
}

func TestParserOddities(t *testing.T) {
	t.Run("lf-only lines", func(t *testing.T) {
		body := "--b\n" +
			"Content-Disposition: form-data; name=a\n" +
			"\n" +
			"value\n" +
			"--b--\n"

		p := feedParser(t, "b", body, len(body))
		require.Len(t, p.Parts(), 1)
		require.Equal(t, "value", string(p.Parts()[0].Value))
		require.True(t, p.Flags().Has(LFLine))
		require.False(t, p.Flags().Has(CRLFLine))
	})

	t.Run("junk after boundary", func(t *testing.T) {
		body := "--b ether\r\n" +
			"Content-Disposition: form-data; name=a\r\n" +
			"\r\n" +
			"v\r\n" +
			"--b-- \r\n"

		p := feedParser(t, "b", body, len(body))
		require.True(t, p.Flags().Has(NonLWSAfterBoundary))
		require.True(t, p.Flags().Has(LWSAfterBoundary))
		require.Len(t, p.Parts(), 1)
	})

	t.Run("part without content disposition", func(t *testing.T) {
		body := "--b\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"ignored\r\n" +
			"--b--\r\n"

		p := feedParser(t, "b", body, len(body))
		parts := p.Parts()
		require.Len(t, parts, 1)
		require.Equal(t, Unknown, parts[0].Type)
		require.EqualValues(t, len("ignored"), parts[0].Size)
		require.Empty(t, parts[0].Value)
		require.True(t, p.Flags().Has(PartUnknown))
	})

	t.Run("folded part header", func(t *testing.T) {
		body := "--b\r\n" +
			"Content-Disposition: form-data;\r\n" +
			"\tname=a\r\n" +
			"\r\n" +
			"v\r\n" +
			"--b--\r\n"

		p := feedParser(t, "b", body, len(body))
		parts := p.Parts()
		require.Len(t, parts, 1)
		require.Equal(t, "a", parts[0].Name)
		require.True(t, p.Flags().Has(PartHeaderFolding))
	})

	t.Run("part after last boundary", func(t *testing.T) {
		body := "--b\r\n" +
			"Content-Disposition: form-data; name=a\r\n" +
			"\r\n" +
			"v\r\n" +
			"--b--\r\n" +
			"--b\r\n" +
			"Content-Disposition: form-data; name=late\r\n" +
			"\r\n" +
			"w\r\n" +
			"--b--\r\n"

		p := feedParser(t, "b", body, len(body))
		require.True(t, p.Flags().Has(PartAfterLastBoundary))

		var names []string
		for _, part := range p.Parts() {
			if part.Type == Text {
				names = append(names, part.Name)
			}
		}

		require.Equal(t, []string{"a", "late"}, names)
	})

	t.Run("empty body part", func(t *testing.T) {
		body := "--b\r\n" +
			"Content-Disposition: form-data; name=a\r\n" +
			"\r\n" +
			"\r\n" +
			"--b--\r\n"

		p := feedParser(t, "b", body, len(body))
		parts := p.Parts()
		require.Len(t, parts, 1)
		require.Equal(t, Text, parts[0].Type)
		require.Empty(t, string(parts[0].Value))
		require.False(t, p.Flags().Has(PartInvalid))
	})
}

func TestParserFileExtraction(t *testing.T) {
	body := "--b\r\n" +
		"Content-Disposition: form-data; name=up; filename=a.bin\r\n" +
		"\r\n" +
		"0123456789\r\n" +
		"--b--\r\n"

	t.Run("disabled keeps metadata only", func(t *testing.T) {
		cfg := config.Default().Multipart
		p := New(&cfg, "b", 0)
		p.Feed([]byte(body))
		p.Finalize()

		part := p.Parts()[0]
		require.Equal(t, File, part.Type)
		require.EqualValues(t, 10, part.Size)
		require.Empty(t, part.Value)
	})

	t.Run("enabled captures up to the limit", func(t *testing.T) {
		cfg := config.Default().Multipart
		cfg.ExtractFiles = true
		cfg.FileSizeLimit = 4

		p := New(&cfg, "b", 0)
		p.Feed([]byte(body))
		p.Finalize()

		part := p.Parts()[0]
		require.EqualValues(t, 10, part.Size)
		require.Equal(t, "0123", string(part.Value))
	})
}
