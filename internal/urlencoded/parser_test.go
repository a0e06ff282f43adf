package urlencoded

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/form"
)

func parse(t *testing.T, feeds ...string) form.Params {
	t.Helper()

	var (
		params form.Params
		fl     flags.Flags
	)

	enc := config.Default().Query
	p := New(&enc, &fl, Into(&params, form.SourceBody))

	for _, feed := range feeds {
		p.Feed([]byte(feed))
	}

	p.Finalize()

	return params
}

func TestParser(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, parse(t, ""))
	})

	t.Run("degenerate pieces collapse to one empty param", func(t *testing.T) {
		for _, input := range []string{"&", "=&", "&=", "&&", "="} {
			require.Equal(t, form.Params{{Source: form.SourceBody}}, parse(t, input), "input %q", input)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		require.Equal(t, form.Params{{Value: "1", Source: form.SourceBody}}, parse(t, "=1&"))
	})

	t.Run("name only", func(t *testing.T) {
		want := form.Params{{Name: "p", Source: form.SourceBody}}
		require.Equal(t, want, parse(t, "p"))
		require.Equal(t, want, parse(t, "p&"))
	})

	t.Run("two names", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "p", Source: form.SourceBody},
			{Name: "q", Source: form.SourceBody},
		}, parse(t, "p&q"))
	})

	t.Run("values", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "p", Value: "1", Source: form.SourceBody},
			{Name: "q", Value: "2", Source: form.SourceBody},
		}, parse(t, "p=1&q=2"))
	})

	t.Run("second equals sign joins the value", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "p", Value: "1=2", Source: form.SourceBody},
		}, parse(t, "p=1=2"))
	})

	t.Run("escapes and plus decode", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "a b", Value: "c d+e", Source: form.SourceBody},
		}, parse(t, "a+b=c%20d%2be"))
	})
}

func TestParserPartialFeeds(t *testing.T) {
	t.Run("name built byte by byte", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "px", Value: "12", Source: form.SourceBody},
		}, parse(t, "p", "x", "=", "1", "2"))
	})

	t.Run("ampersand splits across feeds", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "p", Value: "1", Source: form.SourceBody},
			{Name: "q", Value: "2", Source: form.SourceBody},
		}, parse(t, "p=1&", "q=2"))
	})

	t.Run("escape split across feeds", func(t *testing.T) {
		require.Equal(t, form.Params{
			{Name: "p", Value: " ", Source: form.SourceBody},
		}, parse(t, "p=%2", "0"))
	})

	t.Run("empty feeds are ignored", func(t *testing.T) {
		require.Empty(t, parse(t, "", "", ""))
	})
}

func TestParserFlags(t *testing.T) {
	var (
		params form.Params
		fl     flags.Flags
	)

	enc := config.Default().Query
	p := New(&enc, &fl, Into(&params, form.SourceQuery))
	p.Feed([]byte("p=%xx"))
	p.Finalize()

	require.True(t, fl.Has(flags.UrlenInvalidEncoding))
	require.Equal(t, form.Params{{Name: "p", Value: "%xx", Source: form.SourceQuery}}, params)
}
