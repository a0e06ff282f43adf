package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLimit(t *testing.T) {
	b := New(4, 8)

	require.True(t, b.Append([]byte("12345")))
	assert.False(t, b.Append([]byte("6789")), "over the limit")
	assert.Equal(t, []byte("12345"), b.Bytes(), "refused append must not mutate")
	require.True(t, b.Append([]byte("678")))
	assert.Equal(t, 8, b.Len())
}

func TestMerge(t *testing.T) {
	b := New(0, 16)

	merged, ok := b.Merge([]byte("whole"))
	require.True(t, ok)
	assert.Equal(t, []byte("whole"), merged, "no spill means pass-through")

	require.True(t, b.Append([]byte("GET / HT")))
	merged, ok = b.Merge([]byte("TP/1.1"))
	require.True(t, ok)
	assert.Equal(t, []byte("GET / HTTP/1.1"), merged)

	b.Clear()
	assert.True(t, b.Empty())

	require.True(t, b.Append(make([]byte, 16)))
	_, ok = b.Merge([]byte("x"))
	assert.False(t, ok, "merge over the limit")
}
