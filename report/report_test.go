package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/wireparse/wireparse"
	"github.com/wireparse/wireparse/http/status"
)

// capture runs one request/response pair through a fresh parser and hands
// back its connection.
func capture(t *testing.T, hooks *wireparse.Hooks, req, res string) *wireparse.Parser {
	t.Helper()

	p := wireparse.New(nil, hooks)
	p.Open("10.1.1.1", 40000, "10.2.2.2", 80, time.Date(2024, 5, 7, 9, 30, 0, 0, time.UTC))

	_, _, err := p.FeedRequest(time.Time{}, []byte(req))
	require.NoError(t, err)
	_, _, err = p.FeedResponse(time.Time{}, []byte(res))
	require.NoError(t, err)

	return p
}

func TestBuild(t *testing.T) {
	req := "POST /find?q=x HTTP/1.1\r\n" +
		"Host: api.example.com\r\n" +
		"Authorization: Basic dXNlcjpwYXNz\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n" +
		"Content-Length: 3\r\n" +
		"\r\n" +
		"a=1"
	res := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nok"

	p := capture(t, nil, req, res)
	conn := p.Connection()
	r := Build(conn, p.Transactions()[0])

	require.Equal(t, conn.ID.String(), r.Connection)
	require.Equal(t, "10.1.1.1:40000", r.Client)
	require.Equal(t, "10.2.2.2:80", r.Server)
	require.NotEmpty(t, r.Opened)

	require.Equal(t, "POST", r.Method)
	require.Equal(t, "/find?q=x", r.URI)
	require.Equal(t, "/find", r.Path)
	require.Equal(t, "api.example.com", r.Host)
	require.Equal(t, "HTTP/1.1", r.Protocol)
	require.Equal(t, 200, r.Status)

	require.Equal(t, "identity", r.RequestTransfer)
	require.Equal(t, "identity", r.ResponseTransfer)
	require.Equal(t, int64(3), r.RequestBodyLen)
	require.Equal(t, int64(3), r.RequestEntityLen)
	require.Equal(t, int64(2), r.ResponseBodyLen)
	require.Equal(t, "application/x-www-form-urlencoded", r.RequestContentType)
	require.Equal(t, "text/plain", r.ResponseContentType)

	require.Equal(t, "basic", r.Auth)
	require.Equal(t, "user", r.AuthUser)

	require.Equal(t, []Param{
		{Name: "q", Value: "x", Source: "query"},
		{Name: "a", Value: "1", Source: "body"},
	}, r.Params)
	require.Zero(t, r.Flags)
}

func TestWriterLine(t *testing.T) {
	p := capture(t, nil,
		"GET /one HTTP/1.1\r\nHost: h\r\n\r\n",
		"HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n")

	buff := bytes.NewBuffer(nil)
	w := NewWriter(buff)
	require.NoError(t, w.Write(p.Connection(), p.Transactions()[0]))

	out := buff.String()
	require.True(t, strings.HasSuffix(out, "\n"))
	require.Equal(t, 1, strings.Count(out, "\n"))

	var r Record
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &r))
	require.Equal(t, "GET", r.Method)
	require.Equal(t, "/one", r.URI)
	require.Equal(t, 404, r.Status)
	require.Equal(t, "identity", r.ResponseTransfer)
}

func TestWriterHook(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	w := NewWriter(buff)

	hooks := &wireparse.Hooks{}
	p := wireparse.New(nil, hooks)
	hooks.TransactionComplete = w.Hook(p.Connection())

	for _, target := range []string{"/first", "/second"} {
		_, _, err := p.FeedRequest(time.Time{}, []byte("GET "+target+" HTTP/1.1\r\nHost: h\r\n\r\n"))
		require.NoError(t, err)
		_, _, err = p.FeedResponse(time.Time{}, []byte("HTTP/1.1 204 No Content\r\n\r\n"))
		require.NoError(t, err)
	}

	lines := strings.Split(strings.TrimRight(buff.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	for i, target := range []string{"/first", "/second"} {
		var r Record
		require.NoError(t, jsoniter.Unmarshal([]byte(lines[i]), &r))
		require.Equal(t, target, r.URI)
		require.Equal(t, 204, r.Status)
	}
}

func TestWriterHookKeepsParsing(t *testing.T) {
	// a sink that always fails must not abort inspection
	w := NewWriter(failingWriter{})

	hooks := &wireparse.Hooks{}
	p := wireparse.New(nil, hooks)
	hooks.TransactionComplete = w.Hook(p.Connection())

	_, _, err := p.FeedRequest(time.Time{}, []byte("GET / HTTP/1.1\r\nHost: h\r\n\r\n"))
	require.NoError(t, err)
	st, _, err := p.FeedResponse(time.Time{}, []byte("HTTP/1.1 204 No Content\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, status.Data, st)
	require.True(t, p.Transactions()[0].Done())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, bytes.ErrTooLarge
}
