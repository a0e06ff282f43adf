// Package http1 holds the HTTP/1.x connection dissector: two half-independent
// state machines, one per stream direction, advancing a shared transaction
// list. Input is raw TCP payload in whatever splits the wire produced; the
// outcome is the same transactions, flags and journal entries regardless of
// where the splits fell. The dissector only observes, it never writes back.
package http1

import (
	"errors"
	"fmt"
	"time"

	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/codec"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/http/uri"
	"github.com/wireparse/wireparse/journal"
)

// control-flow signals internal to the machines; they never cross the
// package boundary.
var (
	errNeedData  = errors.New("need more data")
	errDataOther = errors.New("data belongs to the other direction")
	errPaused    = errors.New("parsing paused by observer")
	errSpillOver = errors.New("spill buffer over the limit")
)

// requestURINotSeen marks a transaction synthesized for a response whose
// request was never observed on the wire.
const requestURINotSeen = "/wireparse::request_uri_not_seen"

// Dissector drives both directions of one HTTP/1.x connection.
type Dissector struct {
	cfg    *config.Config
	hooks  *http.Hooks
	conn   *http.Connection
	j      *journal.Journal
	codecs codec.Suite

	req requestMachine
	res responseMachine

	// resNext indexes the transaction the next response attaches to.
	resNext int

	reqErr error
	resErr error

	lastTs time.Time
}

func NewDissector(cfg *config.Config, hooks *http.Hooks, conn *http.Connection) *Dissector {
	d := &Dissector{
		cfg:    cfg,
		hooks:  hooks,
		conn:   conn,
		j:      conn.Journal,
		codecs: codec.Default(),
	}
	d.req.init(d)
	d.res.init(d)

	return d
}

// LastSeen returns the timestamp of the most recent feed.
func (d *Dissector) LastSeen() time.Time {
	return d.lastTs
}

// FeedRequest advances the request direction with the next run of inbound
// payload. The count reports how many bytes were consumed. On
// status.DataOther the caller must hold the remainder until the response
// direction catches up, then feed it again; on status.Stop a hook paused
// the direction and the next feed resumes it; on status.Tunnel the input
// is no longer HTTP and passes through uninspected.
func (d *Dissector) FeedRequest(ts time.Time, data []byte) (status.Status, int, error) {
	m := &d.req

	switch d.conn.RequestState {
	case status.Error:
		d.j.Err(status.DirRequest, journal.CodeParserState, m.base, "Request parser is in error state")
		return status.Error, 0, d.reqErr
	case status.Closed:
		d.reqErr = status.ErrClosedStream
		d.conn.RequestState = status.Error
		d.j.Err(status.DirRequest, journal.CodeParserState, m.base, "Data fed to a closed request stream")
		return status.Error, 0, d.reqErr
	}

	// 0.9 aftermath legitimately runs without a transaction; anything else
	// off idle must have one.
	if m.tx == nil && m.state != eReqIdle && m.state != eReqIgnore09 {
		d.reqErr = status.NewFatal("missing request transaction data")
		d.conn.RequestState = status.Error
		d.j.Err(status.DirRequest, journal.CodeParserState, m.base, "Missing request transaction data")
		return status.Error, 0, d.reqErr
	}

	if !ts.IsZero() {
		d.lastTs = ts
	}
	d.conn.RequestBytes += int64(len(data))

	if len(data) == 0 {
		return d.conn.RequestState, 0, nil
	}
	m.chunkCount++

	if d.conn.RequestState == status.Tunnel {
		return status.Tunnel, len(data), nil
	}
	if d.conn.ResponseState == status.DataOther {
		d.conn.ResponseState = status.Data
	}

	return d.runRequest(data)
}

// FeedResponse is FeedRequest's outbound mirror.
func (d *Dissector) FeedResponse(ts time.Time, data []byte) (status.Status, int, error) {
	m := &d.res

	switch d.conn.ResponseState {
	case status.Error:
		d.j.Err(status.DirResponse, journal.CodeParserState, m.base, "Response parser is in error state")
		return status.Error, 0, d.resErr
	case status.Closed:
		d.resErr = status.ErrClosedStream
		d.conn.ResponseState = status.Error
		d.j.Err(status.DirResponse, journal.CodeParserState, m.base, "Data fed to a closed response stream")
		return status.Error, 0, d.resErr
	}

	if m.tx == nil && m.state != eResIdle {
		d.resErr = status.NewFatal("missing response transaction data")
		d.conn.ResponseState = status.Error
		d.j.Err(status.DirResponse, journal.CodeParserState, m.base, "Missing response transaction data")
		return status.Error, 0, d.resErr
	}

	if !ts.IsZero() {
		d.lastTs = ts
	}
	d.conn.ResponseBytes += int64(len(data))

	if len(data) == 0 {
		return d.conn.ResponseState, 0, nil
	}
	m.chunkCount++

	if d.conn.ResponseState == status.Tunnel {
		return status.Tunnel, len(data), nil
	}
	if d.conn.RequestState == status.DataOther {
		d.conn.RequestState = status.Data
	}

	return d.runResponse(data)
}

func (d *Dissector) runRequest(data []byte) (status.Status, int, error) {
	m := &d.req
	m.open(data)

	for {
		err := m.dispatch()
		if err == nil {
			if d.conn.RequestState == status.Tunnel {
				return status.Tunnel, m.leave(), nil
			}
			continue
		}

		switch {
		case errors.Is(err, errNeedData):
			d.conn.RequestState = status.Data
			return status.Data, m.leave(), nil
		case errors.Is(err, errDataOther):
			if m.pos >= len(m.data) {
				d.conn.RequestState = status.Data
				return status.Data, m.leave(), nil
			}
			d.conn.RequestState = status.DataOther
			return status.DataOther, m.leave(), nil
		case errors.Is(err, errPaused):
			d.conn.RequestState = status.Stop
			return status.Stop, m.leave(), nil
		default:
			if errors.Is(err, status.ErrAborted) {
				d.j.Err(status.DirRequest, journal.CodeParserState, m.off(), "Request inspection aborted by observer")
			}
			d.reqErr = err
			d.conn.RequestState = status.Error
			return status.Error, m.leave(), err
		}
	}
}

func (d *Dissector) runResponse(data []byte) (status.Status, int, error) {
	m := &d.res
	m.open(data)

	for {
		err := m.dispatch()
		if err == nil {
			if d.conn.ResponseState == status.Tunnel {
				return status.Tunnel, m.leave(), nil
			}
			continue
		}

		switch {
		case errors.Is(err, errNeedData):
			d.conn.ResponseState = status.Data
			return status.Data, m.leave(), nil
		case errors.Is(err, errDataOther):
			if m.pos >= len(m.data) {
				d.conn.ResponseState = status.Data
				return status.Data, m.leave(), nil
			}
			d.conn.ResponseState = status.DataOther
			return status.DataOther, m.leave(), nil
		case errors.Is(err, errPaused):
			d.conn.ResponseState = status.Stop
			return status.Stop, m.leave(), nil
		default:
			if errors.Is(err, status.ErrAborted) {
				d.j.Err(status.DirResponse, journal.CodeParserState, m.off(), "Response inspection aborted by observer")
			}
			d.resErr = err
			d.conn.ResponseState = status.Error
			return status.Error, m.leave(), err
		}
	}
}

// CloseRequest marks the request direction closed and runs its machine one
// last time so closure-dependent states resolve. An in-flight request is
// journaled incomplete and then finalized rather than dropped.
func (d *Dissector) CloseRequest(ts time.Time) {
	m := &d.req
	if m.closed {
		return
	}
	if !ts.IsZero() {
		d.lastTs = ts
	}
	m.closed = true

	if tx := m.tx; tx != nil && tx.RequestProgress != http.PhaseComplete {
		d.j.Warn(status.DirRequest, journal.CodeRequestIncomplete, m.off(), "Request truncated by stream close")
	}

	if d.conn.RequestState != status.Error && d.conn.RequestState != status.Tunnel {
		d.runRequest(nil)
	}
	if d.conn.RequestState != status.Error {
		d.conn.RequestState = status.Closed
	}
}

// CloseResponse is CloseRequest's outbound mirror. Read-until-close bodies
// end here, emitting their final body data.
func (d *Dissector) CloseResponse(ts time.Time) {
	m := &d.res
	if m.closed {
		return
	}
	if !ts.IsZero() {
		d.lastTs = ts
	}
	m.closed = true

	if tx := m.tx; tx != nil && tx.ResponseProgress != http.PhaseComplete {
		if tx.ResponseTransfer != http.TransferIdentity || m.bodyLeft > 0 {
			d.j.Warn(status.DirResponse, journal.CodeResponseIncomplete, m.off(), "Response truncated by stream close")
		}
	}

	if d.conn.ResponseState != status.Error && d.conn.ResponseState != status.Tunnel {
		d.runResponse(nil)
	}
	if d.conn.ResponseState != status.Error {
		d.conn.ResponseState = status.Closed
	}
}

// Close marks both directions closed and stamps the connection. Requests
// that never saw a response are noted in the journal.
func (d *Dissector) Close(ts time.Time) {
	if ts.IsZero() {
		ts = d.lastTs
	}
	d.CloseRequest(ts)
	d.CloseResponse(ts)

	for i := d.resNext; i < len(d.conn.Transactions); i++ {
		if d.conn.Transactions[i].ResponseProgress == http.PhaseNone {
			d.j.Note(status.DirResponse, journal.CodeResponseIncomplete, d.res.off(),
				"Transaction has no response at connection close")
		}
	}

	d.conn.ClosedAt = ts
}

// verdict folds an observer's answer into machine control flow.
func verdict(c status.Control) error {
	switch c {
	case status.Pause:
		return errPaused
	case status.Abort:
		return status.ErrAborted
	default:
		return nil
	}
}

// createRequestTx appends a fresh transaction to the connection, flagging
// pipelining when requests run ahead of responses.
func (d *Dissector) createRequestTx() *http.Transaction {
	if len(d.conn.Transactions) > d.resNext {
		d.conn.Flags = d.conn.Flags.Set(flags.Pipelined)
	}

	tx := http.NewTransaction()
	d.conn.Transactions = append(d.conn.Transactions, tx)

	return tx
}

// bindResponseTx picks the transaction the arriving response belongs to,
// synthesizing one when the response has no matching request. In that case
// the request machine abandons whatever it held and parks on finalize, so
// the two directions realign on the synthetic transaction.
func (d *Dissector) bindResponseTx() *http.Transaction {
	if d.resNext < len(d.conn.Transactions) {
		tx := d.conn.Transactions[d.resNext]
		d.resNext++

		return tx
	}

	d.j.Err(status.DirResponse, journal.CodeResponseWithoutRequest, d.res.off(),
		"Unable to match response to request")

	if d.req.state == eReqFinalize && d.req.tx != nil {
		// a request parked on finalize is as complete as it will get
		_ = d.requestComplete()
	}

	tx := d.createRequestTx()
	tx.RawURI = requestURINotSeen
	tx.URI = uri.Parse(requestURINotSeen)
	tx.URI.Path = requestURINotSeen
	d.req.tx = tx
	d.req.state = eReqFinalize
	d.req.resetTx()
	d.resNext++

	return tx
}

// requestComplete ends the request half of the current transaction and
// parks the machine for the next request on the connection.
func (d *Dissector) requestComplete() error {
	m := &d.req
	tx := m.tx

	if tx.RequestProgress != http.PhaseComplete {
		if tx.RequestTransfer == http.TransferIdentity || tx.RequestTransfer == http.TransferChunked {
			if err := m.endBody(); err != nil {
				return err
			}
		}
		tx.RequestProgress = http.PhaseComplete
		if err := verdict(d.hooks.OnRequestComplete(tx)); err != nil {
			return err
		}
		if err := d.txComplete(tx); err != nil {
			return err
		}
	}

	if tx.ProtocolAbsent {
		m.state = eReqIgnore09
	} else {
		m.state = eReqIdle
	}
	m.tx = nil
	m.resetTx()

	return nil
}

// responseComplete ends the response half. Completion may hand control back
// to the request direction: once for a CONNECT still waiting on its verdict,
// and once when a non-2xx CONNECT reply queued request bytes behind it.
func (d *Dissector) responseComplete() error {
	m := &d.res
	tx := m.tx

	if tx.ResponseProgress != http.PhaseComplete {
		tx.ResponseProgress = http.PhaseComplete
		if tx.ResponseTransfer != http.TransferNoBody {
			if err := m.endBody(); err != nil {
				return err
			}
		}
		if err := verdict(d.hooks.OnResponseComplete(tx)); err != nil {
			return err
		}
		if err := d.txComplete(tx); err != nil {
			return err
		}
	}

	if d.conn.RequestState == status.DataOther && d.req.tx == tx {
		return errDataOther
	}
	if m.dataOtherAtTxEnd {
		m.dataOtherAtTxEnd = false
		return errDataOther
	}

	m.tx = nil
	m.state = eResIdle
	m.resetTx()

	return nil
}

func (d *Dissector) txComplete(tx *http.Transaction) error {
	if !tx.Done() {
		return nil
	}

	return verdict(d.hooks.OnTransactionComplete(tx))
}

// overLimit journals a spill overflow and converts it into the fatal
// too-long error, mirroring the field limit the spill enforces.
func (d *Dissector) overLimit(dir status.Direction, c *cursor) error {
	side := "Request"
	if dir == status.DirResponse {
		side = "Response"
	}
	size := c.spill.Len() + len(c.data) - c.pos
	d.j.Err(dir, journal.CodeFieldOverLimit, c.off(),
		fmt.Sprintf("%s buffer over the limit: size %d, limit %d.", side, size, d.cfg.Fields.HardLimit))

	return status.ErrFieldTooLong
}
