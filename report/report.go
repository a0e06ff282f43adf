// Package report flattens completed transactions into line-delimited JSON
// for downstream consumers: rule engines, indexers, the example tooling.
// One line per transaction, no framing beyond the newline.
package report

import (
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/status"
)

// Record is the serialized view of one transaction. Raw wire forms are
// preferred over normalized ones wherever both exist; the flags word
// carries the anomaly summary.
type Record struct {
	Connection string `json:"connection"`
	Client     string `json:"client,omitempty"`
	Server     string `json:"server,omitempty"`
	Opened     string `json:"opened,omitempty"`

	Method   string `json:"method"`
	URI      string `json:"uri"`
	Path     string `json:"path,omitempty"`
	Host     string `json:"host,omitempty"`
	Protocol string `json:"protocol"`
	Status   int    `json:"status"`

	RequestTransfer  string `json:"request_transfer"`
	ResponseTransfer string `json:"response_transfer"`

	RequestBodyLen    int64 `json:"request_body_len"`
	RequestEntityLen  int64 `json:"request_entity_len"`
	ResponseBodyLen   int64 `json:"response_body_len"`
	ResponseEntityLen int64 `json:"response_entity_len"`

	RequestContentType  string `json:"request_content_type,omitempty"`
	ResponseContentType string `json:"response_content_type,omitempty"`

	Flags    uint64  `json:"flags"`
	Auth     string  `json:"auth,omitempty"`
	AuthUser string  `json:"auth_user,omitempty"`
	Params   []Param `json:"params,omitempty"`
	Files    []File  `json:"files,omitempty"`
}

type Param struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

type File struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size"`
}

// Writer emits records to a shared sink. Safe for use from multiple
// connections at once; lines never interleave.
type Writer struct {
	mu   sync.Mutex
	w    io.Writer
	json jsoniter.API
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, json: jsoniter.ConfigCompatibleWithStandardLibrary}
}

// Write serializes one transaction of conn as a single JSON line.
func (w *Writer) Write(conn *http.Connection, tx *http.Transaction) error {
	out, err := w.json.Marshal(Build(conn, tx))
	if err != nil {
		return err
	}
	out = append(out, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	_, err = w.w.Write(out)

	return err
}

// Hook adapts the writer into a TransactionComplete hook for conn. Write
// errors drop the record rather than aborting inspection.
func (w *Writer) Hook(conn *http.Connection) func(*http.Transaction) status.Control {
	return func(tx *http.Transaction) status.Control {
		_ = w.Write(conn, tx)

		return status.Continue
	}
}

// Build assembles the record without writing it.
func Build(conn *http.Connection, tx *http.Transaction) Record {
	r := Record{
		Connection: conn.ID.String(),

		Method:   tx.Method.String(),
		URI:      tx.RawURI,
		Protocol: tx.Protocol.String(),
		Status:   int(tx.Status),

		RequestTransfer:  tx.RequestTransfer.String(),
		ResponseTransfer: tx.ResponseTransfer.String(),

		RequestBodyLen:    tx.RequestBodyLen,
		RequestEntityLen:  tx.RequestEntityLen,
		ResponseBodyLen:   tx.ResponseBodyLen,
		ResponseEntityLen: tx.ResponseEntityLen,

		RequestContentType:  tx.RequestContentType,
		ResponseContentType: tx.ResponseContentType,

		Flags: uint64(tx.Flags),
	}

	if conn.Client.IP != "" {
		r.Client = conn.Client.String()
	}
	if conn.Server.IP != "" {
		r.Server = conn.Server.String()
	}
	if !conn.OpenedAt.IsZero() {
		r.Opened = conn.OpenedAt.Format(time.RFC3339Nano)
	}

	if tx.URI != nil {
		r.Path = tx.URI.Path
		r.Host = tx.URI.Host
	}

	if tx.Auth.Type != http.AuthNone {
		r.Auth = authName(tx.Auth.Type)
		r.AuthUser = tx.Auth.Username
	}

	for _, param := range tx.Params {
		r.Params = append(r.Params, Param{
			Name:   param.Name,
			Value:  param.Value,
			Source: param.Source.String(),
		})
	}

	for _, file := range tx.Files {
		r.Files = append(r.Files, File{
			Name:     file.Name,
			Filename: file.Filename,
			Type:     file.Type,
			Size:     file.Size,
		})
	}

	return r
}

func authName(t http.AuthType) string {
	switch t {
	case http.AuthBasic:
		return "basic"
	case http.AuthDigest:
		return "digest"
	case http.AuthBearer:
		return "bearer"
	case http.AuthUnrecognized:
		return "unrecognized"
	default:
		return ""
	}
}
