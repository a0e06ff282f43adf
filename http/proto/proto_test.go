package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, V1_1, Parse([]byte("HTTP/1.1")))
	assert.Equal(t, V1_0, Parse([]byte("HTTP/1.0")))
	assert.Equal(t, V0_9, Parse([]byte("HTTP/0.9")))
	assert.Equal(t, V1_1, Parse([]byte("http/1.1")))
	assert.Equal(t, Invalid, Parse([]byte("HTTP/2.0")))
	assert.Equal(t, Invalid, Parse([]byte("HTTP/1.10")))
	assert.Equal(t, Invalid, Parse([]byte("SPDY/1.1")))
	assert.Equal(t, Invalid, Parse(nil))
}

func TestOrdering(t *testing.T) {
	// Body framing relies on version ordering.
	assert.True(t, V0_9 < V1_0)
	assert.True(t, V1_0 < V1_1)
	assert.True(t, Unknown < V0_9)
	assert.True(t, Invalid < Unknown)
}
