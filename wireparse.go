// Package wireparse reconstructs HTTP/1.x conversations from passively
// captured TCP payload. It is built for inspection, not serving: input
// arrives in whatever runs the capture produced, both stream directions are
// parsed the way permissive servers read them, and everything anomalous is
// flagged and journaled instead of rejected. One Parser handles one
// connection and is not safe for concurrent use; connections are
// independent of each other.
package wireparse

import (
	"time"

	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/internal/protocol/http1"
	"github.com/wireparse/wireparse/journal"
)

// Aliases for the types embedding applications touch on every call, so most
// of them only ever import this package and config.
type (
	Hooks       = http.Hooks
	Connection  = http.Connection
	Transaction = http.Transaction
	Endpoint    = http.Endpoint
)

// Parser drives both directions of one observed connection.
type Parser struct {
	cfg   *config.Config
	hooks *Hooks
	conn  *Connection
	d     *http1.Dissector
}

// New builds a parser around cfg and hooks. A nil cfg falls back to
// config.Default(); a nil hooks observes nothing beyond the journal.
func New(cfg *config.Config, hooks *Hooks) *Parser {
	if cfg == nil {
		cfg = config.Default()
	}
	if hooks == nil {
		hooks = &Hooks{}
	}

	j := journal.New(cfg.Logger)
	if hooks.Log != nil {
		j.OnEntry(hooks.Log)
	}
	conn := http.NewConnection(j)

	return &Parser{
		cfg:   cfg,
		hooks: hooks,
		conn:  conn,
		d:     http1.NewDissector(cfg, hooks, conn),
	}
}

// Open records the transport identity of the connection and its opening
// time, for correlation in journals and reports. Feeding without Open
// works; the endpoints then stay zero.
func (p *Parser) Open(clientIP string, clientPort int, serverIP string, serverPort int, ts time.Time) {
	p.conn.Client = Endpoint{IP: clientIP, Port: clientPort}
	p.conn.Server = Endpoint{IP: serverIP, Port: serverPort}
	p.conn.OpenedAt = ts
	p.conn.RequestState = status.Open
	p.conn.ResponseState = status.Open
}

// Feed advances one direction with the next run of captured payload and
// reports how many bytes of it were interpreted. On status.DataOther the
// caller holds the remainder until the opposite direction catches up and
// then feeds it again; on status.Stop a hook suspended the direction and
// the remainder is likewise the caller's to keep; status.Tunnel means the
// connection stopped being HTTP and further bytes pass through uninspected.
func (p *Parser) Feed(dir status.Direction, ts time.Time, data []byte) (status.Status, int, error) {
	if dir == status.DirRequest {
		return p.d.FeedRequest(ts, data)
	}

	return p.d.FeedResponse(ts, data)
}

// FeedRequest feeds client-to-server payload; see Feed.
func (p *Parser) FeedRequest(ts time.Time, data []byte) (status.Status, int, error) {
	return p.d.FeedRequest(ts, data)
}

// FeedResponse feeds server-to-client payload; see Feed.
func (p *Parser) FeedResponse(ts time.Time, data []byte) (status.Status, int, error) {
	return p.d.FeedResponse(ts, data)
}

// CloseRequest marks the client-to-server direction closed. An in-flight
// request finalizes as incomplete instead of being dropped.
func (p *Parser) CloseRequest(ts time.Time) {
	p.d.CloseRequest(ts)
}

// CloseResponse marks the server-to-client direction closed. A
// read-until-close response body ends here, emitting its final data.
func (p *Parser) CloseResponse(ts time.Time) {
	p.d.CloseResponse(ts)
}

// Close closes both directions and stamps the connection. A zero ts reuses
// the timestamp of the last feed.
func (p *Parser) Close(ts time.Time) {
	p.d.Close(ts)
}

// Connection exposes the connection under inspection. Reading it between
// calls is fine; the parser owns it during calls.
func (p *Parser) Connection() *Connection {
	return p.conn
}

// Transactions is shorthand for Connection().Transactions.
func (p *Parser) Transactions() []*Transaction {
	return p.conn.Transactions
}

// Journal is shorthand for the connection journal.
func (p *Parser) Journal() *journal.Journal {
	return p.conn.Journal
}

// LastSeen returns the timestamp of the most recent feed on either
// direction.
func (p *Parser) LastSeen() time.Time {
	return p.d.LastSeen()
}
