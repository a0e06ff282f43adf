package cookie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("single pair", func(t *testing.T) {
		jar := NewJar()
		Parse(jar, "a=b")
		value, found := jar.Get("a")
		require.True(t, found)
		require.Equal(t, "b", value)
		require.Equal(t, 1, jar.Len())
	})

	t.Run("multiple pairs", func(t *testing.T) {
		jar := NewJar()
		Parse(jar, "hello=world; men=in black")
		value, _ := jar.Get("hello")
		require.Equal(t, "world", value)
		value, _ = jar.Get("men")
		require.Equal(t, "in black", value)
	})

	t.Run("empty value", func(t *testing.T) {
		jar := NewJar()
		Parse(jar, "a=; b")
		value, found := jar.Get("a")
		require.True(t, found)
		require.Empty(t, value)
		value, found = jar.Get("b")
		require.True(t, found)
		require.Empty(t, value)
	})

	t.Run("nameless pieces ignored", func(t *testing.T) {
		jar := NewJar()
		Parse(jar, "=ghost; ;; real=1")
		require.Equal(t, 1, jar.Len())
		value, _ := jar.Get("real")
		require.Equal(t, "1", value)
	})

	t.Run("duplicates preserved", func(t *testing.T) {
		jar := NewJar()
		Parse(jar, "sid=first; sid=second")
		require.Equal(t, []string{"first", "second"}, jar.Values("sid"))
	})

	t.Run("value kept verbatim", func(t *testing.T) {
		jar := NewJar()
		Parse(jar, `q="quoted value"; trail=x `)
		value, _ := jar.Get("q")
		require.Equal(t, `"quoted value"`, value)
		value, _ = jar.Get("trail")
		require.Equal(t, "x ", value)
	})
}
