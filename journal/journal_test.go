package journal

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndFind(t *testing.T) {
	j := New(zerolog.Nop())
	j.Warn(0, CodeHostAmbiguous, 42, "host differs from authority")
	j.Err(1, CodeInvalidChunkSize, 100, "cannot parse chunk size")

	require.Len(t, j.Entries(), 2)

	e := j.Find(CodeInvalidChunkSize)
	require.NotNil(t, e)
	assert.Equal(t, Error, e.Level)
	assert.Equal(t, int64(100), e.Offset)

	assert.Nil(t, j.Find(CodeHostMissing))
}

func TestSinkMirroring(t *testing.T) {
	var buf bytes.Buffer
	j := New(zerolog.New(&buf))
	j.Warn(0, CodeFieldRepeated, 7, "repetition for header")

	out := buf.String()
	assert.Contains(t, out, "field_repeated")
	assert.Contains(t, out, "repetition for header")
}

func TestOnEntry(t *testing.T) {
	j := New(zerolog.Nop())

	var seen []Code
	j.OnEntry(func(e Entry) {
		seen = append(seen, e.Code)
	})

	j.Note(0, CodeSwitchToTunnel, 0, "101 switching protocols")
	assert.Equal(t, []Code{CodeSwitchToTunnel}, seen)
}
